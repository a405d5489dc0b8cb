package vm

import (
	"time"

	"github.com/dolthub/swiss"
	"github.com/kristofer/smog/pkg/gc"
	"github.com/kristofer/smog/pkg/object"
	"github.com/kristofer/smog/pkg/table"
	"github.com/kristofer/smog/pkg/value"
)

// Natives is the VM's built-in function registry, keyed by name. Unlike
// globals, fields, and methods it is read-mostly and needs none of
// table.Table's weak-reference/tombstone machinery (spec §4.6), so it is
// backed directly by the pack's generic open-addressing map instead of
// another hand-rolled probing table. A *Natives is exposed on VM so
// embedding code can register additional natives before Interpret runs,
// mirroring the retrieval pack's Thread.Predeclared/Universe extension
// points. Every registration is also installed into globals under its
// own name, the same way CLox's defineNative makes a native reachable
// through ordinary global lookup.
type Natives struct {
	collector *gc.Collector
	globals   *table.Table
	fns       *swiss.Map[string, *object.ObjNative]
}

func newNatives(collector *gc.Collector, globals *table.Table) *Natives {
	n := &Natives{collector: collector, globals: globals, fns: swiss.NewMap[string, *object.ObjNative](4)}
	n.Register("clock", clockNative)
	return n
}

// Register adds fn to the native registry and to globals under name, so
// it becomes callable from script code as an ordinary global function.
func (n *Natives) Register(name string, fn object.NativeFn) {
	native := n.collector.NewNative(name, fn)
	n.fns.Put(name, native)
	n.globals.Set(n.collector.Intern(name), value.FromObj(native))
}

// clockNative is the sole built-in spec §6 requires: a number of
// seconds since an unspecified epoch. It returns wall-clock time in
// seconds since the Unix epoch, with sub-second precision.
func clockNative(args []value.Value) (value.Value, error) {
	return value.Number(float64(time.Now().UnixNano()) / 1e9), nil
}

// Package gc implements smog's precise, non-generational mark-sweep
// collector (spec §4.5, §8). It owns every heap-allocated Obj's
// intrusive next-pointer and mark bit and the interned-string table, and
// is driven by whoever allocates objects (the compiler, building
// constants; the VM, building closures/instances/upvalues at runtime).
//
// Grounded on CLox's memory.c: mark roots, trace a gray worklist to
// blacken reachable objects, sweep the intern table's weak references,
// then sweep the object list and grow the next collection threshold.
// Unlike CLox, the collector never imports the vm package directly —
// VM and compiler both register themselves as a RootMarker, so
// package gc sits below vm in the dependency graph instead of beside it.
package gc

import (
	"github.com/kristofer/smog/pkg/object"
	"github.com/kristofer/smog/pkg/table"
	"github.com/kristofer/smog/pkg/value"
)

// RootMarker is implemented by anything holding live references the
// collector cannot otherwise discover: the VM's value stack, call
// frames and open upvalues, and the compiler chain's in-progress
// function constants. Collect calls MarkRoots on every registered
// marker before tracing.
type RootMarker interface {
	MarkRoots(c *Collector)
}

// Collector is smog's GC. A VM owns exactly one, shared with its
// compiler so that literals produced mid-compilation are tracked and
// can survive a collection triggered by compiling a later literal.
type Collector struct {
	objects value.Obj // intrusive linked list of every live allocation
	gray    []value.Obj

	strings *table.Table // interned strings; swept as weak references

	bytesAllocated uint64
	nextGC         uint64
	heapGrowFactor float64
	stress         bool

	roots []RootMarker

	// logf, when set, receives one line per marked object and a summary
	// line per collection: grounded on the
	// teacher's debug-trace style (disabled unless explicitly wired by
	// a caller that wants GC tracing, e.g. a test).
	logf func(format string, args ...any)
}

// Config mirrors the GC tuning knobs internal/config loads from the
// environment, kept separate from that package so gc has no import on
// it (config depends on nothing here; this avoids an unnecessary edge).
type Config struct {
	Stress             bool
	HeapGrowFactor     float64
	InitialThresholdBy uint64
}

// New returns a Collector ready to intern strings and track allocations.
func New(cfg Config) *Collector {
	growFactor := cfg.HeapGrowFactor
	if growFactor <= 1 {
		growFactor = 2
	}
	threshold := cfg.InitialThresholdBy
	if threshold == 0 {
		threshold = 1 << 20
	}
	return &Collector{
		strings:        table.New(),
		nextGC:         threshold,
		heapGrowFactor: growFactor,
		stress:         cfg.Stress,
	}
}

// SetTraceLogger installs a callback invoked once per object marked and
// once per collection with a human-readable summary. Intended for tests
// asserting GC actually ran.
func (c *Collector) SetTraceLogger(fn func(format string, args ...any)) {
	c.logf = fn
}

// AddRoot registers a RootMarker whose reachable objects must survive
// every collection from now on.
func (c *Collector) AddRoot(r RootMarker) {
	c.roots = append(c.roots, r)
}

// RemoveRoot unregisters a RootMarker added by AddRoot, e.g. once a
// short-lived compiler has finished and its function constants are
// reachable some other way (or may be collected). A no-op if r was
// never registered or already removed.
func (c *Collector) RemoveRoot(r RootMarker) {
	for i, root := range c.roots {
		if root == r {
			c.roots = append(c.roots[:i], c.roots[i+1:]...)
			return
		}
	}
}

// BytesAllocated reports the collector's current live-heap estimate,
// exercised by GC-soundness tests that assert a collection actually
// freed memory.
func (c *Collector) BytesAllocated() uint64 { return c.bytesAllocated }

// track adopts a freshly allocated object into the collector's list and
// charges its size against the allocation budget, running a collection
// first if the budget (or stress mode) demands it.
func (c *Collector) track(o value.Obj) {
	if c.stress {
		c.Collect()
	} else if c.bytesAllocated+sizeOf(o) > c.nextGC {
		c.Collect()
	}
	o.SetNext(c.objects)
	c.objects = o
	c.bytesAllocated += sizeOf(o)
}

func sizeOf(o value.Obj) uint64 { return uint64(o.Size()) }

// Intern returns the canonical *value.ObjString for chars, allocating
// and tracking a new one only the first time chars is seen. This
// collapses CLox's CopyString/TakeString split: Go strings are
// immutable, so there is never an ownership-transfer case to
// distinguish from a copy.
func (c *Collector) Intern(chars string) *value.ObjString {
	hash := value.HashString(chars)
	if existing := c.strings.FindString(chars, hash); existing != nil {
		return existing
	}
	s := value.NewObjString(chars)
	c.track(s)
	c.strings.Set(s, value.Nil)
	return s
}

// NewFunction allocates and tracks a fresh, empty ObjFunction.
func (c *Collector) NewFunction() *object.ObjFunction {
	fn := object.NewFunction()
	c.track(fn)
	return fn
}

// NewNative allocates and tracks a native function wrapper.
func (c *Collector) NewNative(name string, fn object.NativeFn) *object.ObjNative {
	n := object.NewNative(name, fn)
	c.track(n)
	return n
}

// NewClosure allocates and tracks a closure over fn.
func (c *Collector) NewClosure(fn *object.ObjFunction) *object.ObjClosure {
	cl := object.NewClosure(fn)
	c.track(cl)
	return cl
}

// NewUpvalue allocates and tracks an open upvalue pointing at slot.
func (c *Collector) NewUpvalue(slot *value.Value) *object.ObjUpvalue {
	u := object.NewUpvalue(slot)
	c.track(u)
	return u
}

// NewClass allocates and tracks a class named name.
func (c *Collector) NewClass(name *value.ObjString) *object.ObjClass {
	class := object.NewClass(name)
	c.track(class)
	return class
}

// NewInstance allocates and tracks an instance of class.
func (c *Collector) NewInstance(class *object.ObjClass) *object.ObjInstance {
	inst := object.NewInstance(class)
	c.track(inst)
	return inst
}

// NewBoundMethod allocates and tracks a bound method value.
func (c *Collector) NewBoundMethod(receiver value.Value, method *object.ObjClosure) *object.ObjBoundMethod {
	b := object.NewBoundMethod(receiver, method)
	c.track(b)
	return b
}

// MarkValue marks v's underlying object, if it has one.
func (c *Collector) MarkValue(v value.Value) {
	if v.IsObj() {
		c.MarkObject(v.AsObj())
	}
}

// MarkObject marks o and pushes it onto the gray worklist the first
// time it is seen, per CLox's tri-color invariant.
func (c *Collector) MarkObject(o value.Obj) {
	if o == nil || o.IsMarked() {
		return
	}
	o.SetMarked(true)
	c.gray = append(c.gray, o)
	if c.logf != nil {
		c.logf("mark %s", o)
	}
}

// MarkTable marks every value held in t. Keys are *value.ObjString and
// are marked too, since a global's name must outlive the global itself.
func (c *Collector) MarkTable(t *table.Table) {
	if t == nil {
		return
	}
	t.Each(func(key *value.ObjString, val value.Value) {
		c.MarkObject(key)
		c.MarkValue(val)
	})
}

// Collect runs one full mark-sweep cycle: mark roots, trace to
// fixpoint, sweep the intern table's weak references, sweep the object
// list, then grow the threshold for the next cycle.
func (c *Collector) Collect() {
	before := c.bytesAllocated

	for _, r := range c.roots {
		r.MarkRoots(c)
	}
	c.trace()
	c.strings.RemoveUnmarked()
	c.sweep()

	c.nextGC = uint64(float64(c.bytesAllocated) * c.heapGrowFactor)
	if c.nextGC == 0 {
		c.nextGC = 1 << 20
	}
	if c.logf != nil {
		c.logf("collected %d bytes (%d -> %d), next at %d", before-c.bytesAllocated, before, c.bytesAllocated, c.nextGC)
	}
}

// trace drains the gray worklist, blackening each object by marking
// whatever it references in turn, until nothing gray remains.
func (c *Collector) trace() {
	for len(c.gray) > 0 {
		o := c.gray[len(c.gray)-1]
		c.gray = c.gray[:len(c.gray)-1]
		c.blacken(o)
	}
}

// blacken marks every object directly referenced by o. This is the one
// place that needs to know about every concrete Obj variant, since Go
// has no virtual "trace references" method to dispatch through without
// every leaf type importing package gc right back.
func (c *Collector) blacken(o value.Obj) {
	switch v := o.(type) {
	case *value.ObjString:
		// no outgoing references
	case *object.ObjFunction:
		if v.Name != nil {
			c.MarkObject(v.Name)
		}
		for _, constant := range v.Chunk.Constants {
			c.MarkValue(constant)
		}
	case *object.ObjNative:
		// no outgoing references
	case *object.ObjClosure:
		c.MarkObject(v.Function)
		for _, up := range v.Upvalues {
			c.MarkObject(up)
		}
	case *object.ObjUpvalue:
		c.MarkValue(*v.Location)
	case *object.ObjClass:
		c.MarkObject(v.Name)
		if v.Superclass != nil {
			c.MarkObject(v.Superclass)
		}
		c.MarkTable(v.Methods)
	case *object.ObjInstance:
		c.MarkObject(v.Class)
		c.MarkTable(v.Fields)
	case *object.ObjBoundMethod:
		c.MarkValue(v.Receiver)
		c.MarkObject(v.Method)
	}
}

// sweep walks the intrusive object list, freeing (unlinking) every
// object that was not marked during trace, and clearing the mark bit on
// survivors for the next cycle.
func (c *Collector) sweep() {
	var prev value.Obj
	cur := c.objects
	for cur != nil {
		if cur.IsMarked() {
			cur.SetMarked(false)
			prev = cur
			cur = cur.Next()
			continue
		}
		unreached := cur
		cur = cur.Next()
		if prev == nil {
			c.objects = cur
		} else {
			prev.SetNext(cur)
		}
		c.bytesAllocated -= sizeOf(unreached)
	}
}

package gc_test

import (
	"testing"

	"github.com/kristofer/smog/pkg/gc"
	"github.com/kristofer/smog/pkg/object"
	"github.com/kristofer/smog/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRoots lets a test control exactly what the collector considers
// reachable, without needing a real VM.
type fakeRoots struct {
	values []value.Value
}

func (f *fakeRoots) MarkRoots(c *gc.Collector) {
	for _, v := range f.values {
		c.MarkValue(v)
	}
}

func TestInternReturnsSameAllocationForEqualContent(t *testing.T) {
	c := gc.New(gc.Config{})
	a := c.Intern("hello")
	b := c.Intern("hello")
	assert.Same(t, a, b)

	other := c.Intern("world")
	assert.NotSame(t, a, other)
}

func TestCollectFreesUnreachableStrings(t *testing.T) {
	c := gc.New(gc.Config{})
	roots := &fakeRoots{}
	c.AddRoot(roots)

	kept := c.Intern("kept")
	garbage := c.Intern("garbage")
	roots.values = []value.Value{value.FromObj(kept)}

	before := c.BytesAllocated()
	c.Collect()
	assert.Less(t, c.BytesAllocated(), before, "unreachable string must be swept")

	// The interned "garbage" string is gone; interning the same text
	// again must allocate a fresh one rather than returning a dangling
	// pointer to the swept object.
	again := c.Intern("garbage")
	assert.NotSame(t, again, garbage)
}

func TestCollectTracesThroughClosureAndInstance(t *testing.T) {
	c := gc.New(gc.Config{})
	roots := &fakeRoots{}
	c.AddRoot(roots)

	fn := c.NewFunction()
	fn.Name = c.Intern("f")
	closure := c.NewClosure(fn)

	class := c.NewClass(c.Intern("Box"))
	inst := c.NewInstance(class)
	inst.Fields.Set(c.Intern("value"), value.FromObj(closure))

	roots.values = []value.Value{value.FromObj(inst)}
	c.Collect()

	_, ok := inst.Fields.Get(c.Intern("value"))
	require.True(t, ok, "instance field referencing the closure must survive")

	// Drop every root and collect again; everything must now be collectible.
	roots.values = nil
	before := c.BytesAllocated()
	c.Collect()
	assert.Less(t, c.BytesAllocated(), before)
}

func TestStressModeCollectsOnEveryAllocation(t *testing.T) {
	c := gc.New(gc.Config{Stress: true})
	var collections int
	c.SetTraceLogger(func(format string, args ...any) { collections++ })

	for i := 0; i < 5; i++ {
		c.Intern("x")
		c.Intern("y")
	}
	assert.Greater(t, collections, 0, "stress mode must trigger collections")
}

// closureRoot marks a single closure as the only reachable object, used
// to check that tracing reaches into a closure's captured upvalues.
type closureRoot struct{ closure *object.ObjClosure }

func (r *closureRoot) MarkRoots(c *gc.Collector) { c.MarkObject(r.closure) }

func TestUpvalueKeepsClosedValueAlive(t *testing.T) {
	c := gc.New(gc.Config{})

	held := c.Intern("captured")
	slot := value.FromObj(held)
	up := c.NewUpvalue(&slot)
	up.Close()

	fn := c.NewFunction()
	fn.UpvalueCount = 1
	closure := c.NewClosure(fn)
	closure.Upvalues[0] = up

	c.AddRoot(&closureRoot{closure: closure})
	c.Collect()

	again := c.Intern("captured")
	assert.Same(t, held, again, "string captured by a reachable upvalue must survive collection")
}

package object_test

import (
	"testing"

	"github.com/kristofer/smog/pkg/chunk"
	"github.com/kristofer/smog/pkg/object"
	"github.com/kristofer/smog/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionStringAnonymousVsNamed(t *testing.T) {
	fn := object.NewFunction()
	assert.Equal(t, "<script>", fn.String())

	fn.Name = value.NewObjString("greet")
	assert.Equal(t, "<fn greet>", fn.String())
}

func TestClosureWrapsFunctionUpvalues(t *testing.T) {
	fn := object.NewFunction()
	fn.UpvalueCount = 2
	cl := object.NewClosure(fn)
	require.Len(t, cl.Upvalues, 2)
	assert.Equal(t, fn.String(), cl.String())
}

func TestUpvalueCloseCopiesValue(t *testing.T) {
	slot := value.Number(7)
	up := object.NewUpvalue(&slot)
	require.Same(t, &slot, up.Location)

	slot = value.Number(9)
	up.Close()
	assert.Equal(t, value.Number(9), up.Closed)
	assert.NotSame(t, &slot, up.Location)
}

func TestClassAndInstanceFieldIsolation(t *testing.T) {
	class := object.NewClass(value.NewObjString("Point"))
	a := object.NewInstance(class)
	b := object.NewInstance(class)

	x := value.NewObjString("x")
	a.Fields.Set(x, value.Number(1))
	_, ok := b.Fields.Get(x)
	assert.False(t, ok, "instances do not share field storage")

	assert.Equal(t, "Point instance", a.String())
}

func TestBoundMethodRetainsReceiver(t *testing.T) {
	class := object.NewClass(value.NewObjString("Cat"))
	inst := object.NewInstance(class)
	fn := object.NewFunction()
	fn.Name = value.NewObjString("speak")
	method := object.NewClosure(fn)

	bound := object.NewBoundMethod(value.FromObj(inst), method)
	assert.Equal(t, "<fn speak>", bound.String())
	assert.Same(t, inst, bound.Receiver.AsObj())
}

func TestNativeFunctionInvocation(t *testing.T) {
	n := object.NewNative("clock", func(args []value.Value) (value.Value, error) {
		return value.Number(42), nil
	})
	result, err := n.Fn(nil)
	require.NoError(t, err)
	assert.Equal(t, value.Number(42), result)
	assert.Equal(t, "<native fn clock>", n.String())
}

func TestFunctionSizeAccountsForChunk(t *testing.T) {
	fn := object.NewFunction()
	base := fn.Size()
	fn.Chunk.WriteOp(chunk.OpReturn, 1)
	assert.Greater(t, fn.Size(), base)
}

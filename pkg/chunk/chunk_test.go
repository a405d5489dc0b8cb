package chunk_test

import (
	"strings"
	"testing"

	"github.com/kristofer/smog/pkg/chunk"
	"github.com/kristofer/smog/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndAddConstant(t *testing.T) {
	c := chunk.New()
	idx, ok := c.AddConstant(value.Number(1.5))
	require.True(t, ok)
	c.WriteOp(chunk.OpConstant, 1)
	c.Write(byte(idx), 1)
	c.WriteOp(chunk.OpReturn, 1)

	require.Len(t, c.Code, 3)
	assert.Equal(t, []int{1, 1, 1}, c.Lines)
	assert.Equal(t, value.Number(1.5), c.Constants[idx])
}

func TestAddConstantFailsAtCapacity(t *testing.T) {
	c := chunk.New()
	for i := 0; i < chunk.MaxConstants; i++ {
		_, ok := c.AddConstant(value.Number(float64(i)))
		require.True(t, ok)
	}
	_, ok := c.AddConstant(value.Number(999))
	assert.False(t, ok, "pool is addressed by a single byte and must reject the 257th constant")
}

func TestOpCodeString(t *testing.T) {
	assert.Equal(t, "OP_ADD", chunk.OpAdd.String())
	assert.Equal(t, "OP_UNKNOWN", chunk.OpCode(255).String())
}

func TestDisassembleSimpleChunk(t *testing.T) {
	c := chunk.New()
	idx, _ := c.AddConstant(value.Number(1))
	c.WriteOp(chunk.OpConstant, 1)
	c.Write(byte(idx), 1)
	c.WriteOp(chunk.OpReturn, 2)

	out := chunk.Disassemble(c, "test")
	assert.True(t, strings.Contains(out, "== test =="))
	assert.True(t, strings.Contains(out, "OP_CONSTANT"))
	assert.True(t, strings.Contains(out, "OP_RETURN"))
}

func TestDisassembleJump(t *testing.T) {
	c := chunk.New()
	c.WriteOp(chunk.OpJumpIfFalse, 1)
	c.Write(0, 1)
	c.Write(3, 1)
	c.WriteOp(chunk.OpPop, 1)
	c.WriteOp(chunk.OpNil, 1)
	c.WriteOp(chunk.OpReturn, 1)

	out := chunk.Disassemble(c, "jump")
	assert.True(t, strings.Contains(out, "OP_JUMP_IF_FALSE"))
	assert.True(t, strings.Contains(out, "-> "))
}

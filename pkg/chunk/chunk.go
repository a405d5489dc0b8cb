// Package chunk defines the bytecode container the compiler emits into and
// the VM executes: a flat byte buffer, a parallel per-byte source-line
// sidecar used only for diagnostics, and a constant pool addressed by an
// 8-bit index (spec §4.2).
//
// Grounded on the teacher's pkg/bytecode package (an Instruction-slice
// design with a shared constant pool), generalized from smog's
// message-send opcode set to the opcode table in spec §6, and from a
// slice-of-structs instruction stream to a flat byte stream with variable
// immediate widths — required so that CLOSURE's per-upvalue (isLocal,
// index) byte pairs and CLOSE_UPVALUE/OP sequences can be laid out exactly
// as the spec's bytecode table describes, and so jump patching (§4.3) can
// overwrite two already-emitted bytes in place.
package chunk

import "github.com/kristofer/smog/pkg/value"

// OpCode identifies a single bytecode instruction.
type OpCode byte

const (
	OpConstant OpCode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpGetProperty
	OpSetProperty
	OpGetSuper
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpInvoke
	OpSuperInvoke
	OpClosure
	OpCloseUpvalue
	OpReturn
	OpClass
	OpInherit
	OpMethod
)

var opNames = [...]string{
	OpConstant: "OP_CONSTANT", OpNil: "OP_NIL", OpTrue: "OP_TRUE", OpFalse: "OP_FALSE",
	OpPop: "OP_POP", OpGetLocal: "OP_GET_LOCAL", OpSetLocal: "OP_SET_LOCAL",
	OpGetGlobal: "OP_GET_GLOBAL", OpDefineGlobal: "OP_DEFINE_GLOBAL", OpSetGlobal: "OP_SET_GLOBAL",
	OpGetUpvalue: "OP_GET_UPVALUE", OpSetUpvalue: "OP_SET_UPVALUE",
	OpGetProperty: "OP_GET_PROPERTY", OpSetProperty: "OP_SET_PROPERTY", OpGetSuper: "OP_GET_SUPER",
	OpEqual: "OP_EQUAL", OpGreater: "OP_GREATER", OpLess: "OP_LESS",
	OpAdd: "OP_ADD", OpSubtract: "OP_SUBTRACT", OpMultiply: "OP_MULTIPLY", OpDivide: "OP_DIVIDE",
	OpNot: "OP_NOT", OpNegate: "OP_NEGATE", OpPrint: "OP_PRINT",
	OpJump: "OP_JUMP", OpJumpIfFalse: "OP_JUMP_IF_FALSE", OpLoop: "OP_LOOP",
	OpCall: "OP_CALL", OpInvoke: "OP_INVOKE", OpSuperInvoke: "OP_SUPER_INVOKE",
	OpClosure: "OP_CLOSURE", OpCloseUpvalue: "OP_CLOSE_UPVALUE", OpReturn: "OP_RETURN",
	OpClass: "OP_CLASS", OpInherit: "OP_INHERIT", OpMethod: "OP_METHOD",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "OP_UNKNOWN"
}

// MaxConstants is the largest number of constants a single chunk may hold,
// since CONSTANT and its relatives address the pool with a single byte.
const MaxConstants = 256

// Chunk is one function's compiled body: its instruction stream, a
// same-length source-line sidecar, and its constant pool.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

// New returns an empty Chunk.
func New() *Chunk { return &Chunk{} }

// Write appends a raw byte to the instruction stream, recording line as the
// source line that produced it.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Write(byte(op), line)
}

// AddConstant appends v to the constant pool and returns its index. It
// fails once the pool would exceed the 8-bit addressable limit.
func (c *Chunk) AddConstant(v value.Value) (int, bool) {
	if len(c.Constants) >= MaxConstants {
		return 0, false
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, true
}

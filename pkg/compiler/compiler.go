// Package compiler is the single-pass Pratt compiler: it consumes a
// scanner's token stream and emits bytecode directly, with no
// intermediate AST. Scope resolution (locals, upvalues, globals),
// class/method wiring, and jump patching all happen inline as each
// construct is parsed, following CLox's compiler.c one-to-one in
// structure while using Go idioms (typed diagnostics instead of
// fprintf'd error strings, a gc.Collector for allocation instead of a
// global allocator).
//
// Grounded on the teacher's pkg/compiler (AST-to-bytecode lowering) for
// package shape and on spec.md §4.3's Pratt table and scope rules for
// the actual parsing algorithm, since the teacher's own compiler
// assumed a separate parser stage that this design does not have.
package compiler

import (
	"fmt"

	"github.com/kristofer/smog/pkg/chunk"
	"github.com/kristofer/smog/pkg/gc"
	"github.com/kristofer/smog/pkg/object"
	"github.com/kristofer/smog/pkg/scanner"
	"github.com/kristofer/smog/pkg/token"
	"github.com/kristofer/smog/pkg/value"
)

// Diagnostic is a single compile-time error, typed instead of
// pre-formatted so the CLI driver controls rendering.
type Diagnostic struct {
	Line    int
	Lexeme  string
	Message string
}

func (d Diagnostic) String() string {
	if d.Lexeme == "" {
		return fmt.Sprintf("[line %d] Error: %s", d.Line, d.Message)
	}
	return fmt.Sprintf("[line %d] Error at '%s': %s", d.Line, d.Lexeme, d.Message)
}

const (
	maxLocals   = 256
	maxUpvalues = 256
	maxArgs     = 255
)

type funcType int

const (
	funcTypeFunction funcType = iota
	funcTypeInitializer
	funcTypeMethod
	funcTypeScript
)

type local struct {
	name       token.Token
	depth      int
	isCaptured bool
}

type upvalueRef struct {
	index   uint8
	isLocal bool
}

// funcCompiler holds the state specific to compiling one function body:
// its in-progress function object, its locals, and its upvalue table.
// Entering a nested function (or the implicit method/script function)
// pushes a new funcCompiler linked to the enclosing one.
type funcCompiler struct {
	enclosing *funcCompiler
	function  *object.ObjFunction
	typ       funcType

	locals     []local
	scopeDepth int
	upvalues   []upvalueRef
}

type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Compiler is the shared parser/emitter state threaded through every
// parsing function: current/previous tokens, error/panic-mode tracking,
// the active funcCompiler and classCompiler chains, and the collector
// every allocation (interned name, function object, closure) goes
// through.
type Compiler struct {
	scanner *scanner.Scanner
	gc      *gc.Collector

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	diags     []Diagnostic

	fc *funcCompiler
	cc *classCompiler
}

var _ gc.RootMarker = (*Compiler)(nil)

// Compile parses source in a single pass and returns the top-level
// script function, ready to be wrapped in a closure and run. ok is
// false if any compile error was reported; diags always reflects every
// diagnostic collected, errors are not fatal mid-compilation.
func Compile(source string, collector *gc.Collector) (fn *object.ObjFunction, diags []Diagnostic, ok bool) {
	c := &Compiler{scanner: scanner.New(source), gc: collector}
	collector.AddRoot(c)
	defer collector.RemoveRoot(c)

	c.fc = c.newFuncCompiler(nil, funcTypeScript, "")

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	fn = c.endFuncCompiler()

	return fn, c.diags, !c.hadError
}

// MarkRoots marks every function currently under compilation, walking
// the funcCompiler chain from innermost to outermost (spec §4.5 step 1).
// Each function object is already tracked by the collector; what this
// prevents is it being swept mid-compilation before it is reachable any
// other way (it isn't installed as a constant of its enclosing function
// until endFuncCompiler runs).
func (c *Compiler) MarkRoots(gcc *gc.Collector) {
	for fc := c.fc; fc != nil; fc = fc.enclosing {
		gcc.MarkObject(fc.function)
	}
}

func (c *Compiler) newFuncCompiler(enclosing *funcCompiler, typ funcType, name string) *funcCompiler {
	fn := c.gc.NewFunction()
	if name != "" {
		fn.Name = c.gc.Intern(name)
	}
	fc := &funcCompiler{enclosing: enclosing, function: fn, typ: typ}

	// Slot 0 is reserved: "this" for methods/initializers, empty name
	// (unreachable by user code) otherwise.
	slotName := ""
	if typ != funcTypeFunction && typ != funcTypeScript {
		slotName = "this"
	}
	fc.locals = append(fc.locals, local{name: token.Token{Lexeme: slotName}, depth: 0})
	return fc
}

// endFuncCompiler emits the implicit trailing return and pops back to
// the enclosing funcCompiler, returning the finished function.
func (c *Compiler) endFuncCompiler() *object.ObjFunction {
	c.emitReturn()
	fn := c.fc.function
	c.fc = c.fc.enclosing
	return fn
}

func (c *Compiler) currentChunk() *chunk.Chunk { return c.fc.function.Chunk }

// ---- token plumbing ----

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.NextToken()
		if c.current.Kind != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.current.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, message string) {
	if c.current.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.current, message) }
func (c *Compiler) error(message string)          { c.errorAt(c.previous, message) }

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	lexeme := tok.Lexeme
	if tok.Kind == token.EOF {
		lexeme = ""
	}
	c.diags = append(c.diags, Diagnostic{Line: tok.Line, Lexeme: lexeme, Message: message})
}

// synchronize discards tokens until a likely statement boundary, so one
// error does not cascade into a wall of follow-on errors.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMICOLON {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// ---- bytecode emission ----

func (c *Compiler) emitByte(b byte)       { c.currentChunk().Write(b, c.previous.Line) }
func (c *Compiler) emitOp(op chunk.OpCode) { c.currentChunk().WriteOp(op, c.previous.Line) }

func (c *Compiler) emitOpByte(op chunk.OpCode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitReturn() {
	if c.fc.typ == funcTypeInitializer {
		c.emitOpByte(chunk.OpGetLocal, 0)
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.emitOp(chunk.OpReturn)
}

func (c *Compiler) emitConstant(v value.Value) {
	idx, ok := c.currentChunk().AddConstant(v)
	if !ok {
		c.error("Too many constants in one chunk.")
		return
	}
	c.emitOpByte(chunk.OpConstant, byte(idx))
}

// emitJump writes op followed by a two-byte placeholder offset and
// returns the offset of the first placeholder byte, to be patched once
// the jump target is known.
func (c *Compiler) emitJump(op chunk.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	code := c.currentChunk().Code
	jump := len(code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
		return
	}
	code[offset] = byte(jump >> 8)
	code[offset+1] = byte(jump)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(chunk.OpLoop)
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Too much code to jump over.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

func (c *Compiler) identifierConstant(tok token.Token) byte {
	idx, ok := c.currentChunk().AddConstant(value.FromObj(c.gc.Intern(tok.Lexeme)))
	if !ok {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

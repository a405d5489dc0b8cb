// Package vm is the stack-based bytecode interpreter: a dispatch loop
// over chunk.OpCode, a fixed-capacity value stack, a call-frame stack,
// and the closure/upvalue/class machinery spec §4.4 describes.
//
// Grounded on the teacher's pkg/vm for package shape, StackFrame/
// RuntimeError reporting, and the general "one VM instance owns the
// heap" structure, but the dispatch loop itself, calling convention,
// and closure machinery are rebuilt from spec.md §4.4/§4.5/§6 since the
// teacher's VM executes a message-send instruction set with
// interface{} values and no call frames, upvalues, or classes.
package vm

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kristofer/smog/pkg/chunk"
	"github.com/kristofer/smog/pkg/gc"
	"github.com/kristofer/smog/pkg/object"
	"github.com/kristofer/smog/pkg/table"
	"github.com/kristofer/smog/pkg/value"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// CallFrame is one active invocation: the closure being executed, an
// instruction pointer into its chunk, and the stack index of slot 0.
type CallFrame struct {
	closure *object.ObjClosure
	ip      int
	base    int
}

type openUpvalueEntry struct {
	slot int
	up   *object.ObjUpvalue
}

// VM is a single interpreter instance. Per spec §5, VM instances share
// nothing: each owns its own stack, globals, and open-upvalue list, and
// must not exchange heap objects with another VM's collector.
type VM struct {
	stack  []value.Value
	frames []CallFrame

	globals      *table.Table
	openUpvalues []openUpvalueEntry
	initString   *value.ObjString

	gc      *gc.Collector
	natives *Natives

	ctx      context.Context
	maxSteps uint64
	steps    uint64

	// Stdout receives `print` output. Defaults to os.Stdout; the CLI
	// driver and tests override it via mainer.Stdio / an in-memory
	// buffer so execution is observable without a real terminal.
	Stdout io.Writer
}

var _ gc.RootMarker = (*VM)(nil)

// New returns a VM backed by collector, cooperatively cancellable via
// ctx, executing no more than maxSteps bytecode instructions (0 means
// unbounded) before returning a runtime error — the step-budget
// discipline grounded on the retrieval pack's Thread.steps/maxSteps
// cancellation model.
func New(collector *gc.Collector, ctx context.Context, maxSteps uint64) *VM {
	if ctx == nil {
		ctx = context.Background()
	}
	vm := &VM{
		stack:    make([]value.Value, 0, stackMax),
		frames:   make([]CallFrame, 0, framesMax),
		globals:  table.New(),
		gc:       collector,
		ctx:      ctx,
		maxSteps: maxSteps,
		Stdout:   os.Stdout,
	}
	vm.natives = newNatives(collector, vm.globals)
	vm.initString = collector.Intern("init")
	collector.AddRoot(vm)
	return vm
}

// Natives returns the VM's native-function registry, so embedding code
// can add entries beyond the default clock() before calling Interpret.
func (vm *VM) Natives() *Natives { return vm.natives }

// MarkRoots marks every value reachable directly from VM state (spec
// §4.5 step 1): the stack, every frame's closure, every open upvalue,
// the globals table, and the interned "init" string.
func (vm *VM) MarkRoots(c *gc.Collector) {
	for _, v := range vm.stack {
		c.MarkValue(v)
	}
	for _, f := range vm.frames {
		c.MarkObject(f.closure)
	}
	for _, e := range vm.openUpvalues {
		c.MarkObject(e.up)
	}
	c.MarkTable(vm.globals)
	c.MarkObject(vm.initString)
}

// Interpret wraps fn in a closure and runs it to completion, returning
// its RuntimeError if execution failed. Successful completion, printed
// output aside, has no return value: `print` is a statement, not an
// expression (spec §6).
func (vm *VM) Interpret(fn *object.ObjFunction) error {
	closure := vm.gc.NewClosure(fn)
	if err := vm.push(value.FromObj(closure)); err != nil {
		return err
	}
	if err := vm.callValue(value.FromObj(closure), 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) push(v value.Value) error {
	if len(vm.stack) == cap(vm.stack) {
		return vm.runtimeError("Stack overflow.")
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) frame() *CallFrame { return &vm.frames[len(vm.frames)-1] }

func (vm *VM) readByte() byte {
	f := vm.frame()
	b := f.closure.Function.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readShort() int {
	hi := vm.readByte()
	lo := vm.readByte()
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readConstant() value.Value {
	return vm.frame().closure.Function.Chunk.Constants[vm.readByte()]
}

func (vm *VM) readString() *value.ObjString {
	return vm.readConstant().AsObj().(*value.ObjString)
}

// run is the dispatch loop: classical switch on the next opcode,
// repeated until the outermost frame returns or a runtime error occurs.
func (vm *VM) run() error {
	for {
		if err := vm.checkBudget(); err != nil {
			return err
		}

		op := chunk.OpCode(vm.readByte())
		switch op {
		case chunk.OpConstant:
			if err := vm.push(vm.readConstant()); err != nil {
				return err
			}
		case chunk.OpNil:
			if err := vm.push(value.Nil); err != nil {
				return err
			}
		case chunk.OpTrue:
			if err := vm.push(value.Bool(true)); err != nil {
				return err
			}
		case chunk.OpFalse:
			if err := vm.push(value.Bool(false)); err != nil {
				return err
			}
		case chunk.OpPop:
			vm.pop()
		case chunk.OpGetLocal:
			slot := vm.frame().base + int(vm.readByte())
			if err := vm.push(vm.stack[slot]); err != nil {
				return err
			}
		case chunk.OpSetLocal:
			slot := vm.frame().base + int(vm.readByte())
			vm.stack[slot] = vm.peek(0)
		case chunk.OpGetGlobal:
			name := vm.readString()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			if err := vm.push(v); err != nil {
				return err
			}
		case chunk.OpDefineGlobal:
			name := vm.readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case chunk.OpSetGlobal:
			name := vm.readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
		case chunk.OpGetUpvalue:
			idx := vm.readByte()
			if err := vm.push(*vm.frame().closure.Upvalues[idx].Location); err != nil {
				return err
			}
		case chunk.OpSetUpvalue:
			idx := vm.readByte()
			*vm.frame().closure.Upvalues[idx].Location = vm.peek(0)
		case chunk.OpGetProperty:
			if err := vm.getProperty(); err != nil {
				return err
			}
		case chunk.OpSetProperty:
			if err := vm.setProperty(); err != nil {
				return err
			}
		case chunk.OpGetSuper:
			name := vm.readString()
			superclass := vm.pop().AsObj().(*object.ObjClass)
			receiver := vm.pop()
			if err := vm.bindMethod(superclass, name, receiver); err != nil {
				return err
			}
		case chunk.OpEqual:
			b := vm.pop()
			a := vm.pop()
			if err := vm.push(value.Bool(value.Equal(a, b))); err != nil {
				return err
			}
		case chunk.OpGreater:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Bool(a > b) }); err != nil {
				return err
			}
		case chunk.OpLess:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Bool(a < b) }); err != nil {
				return err
			}
		case chunk.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case chunk.OpSubtract:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Number(a - b) }); err != nil {
				return err
			}
		case chunk.OpMultiply:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Number(a * b) }); err != nil {
				return err
			}
		case chunk.OpDivide:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Number(a / b) }); err != nil {
				return err
			}
		case chunk.OpNot:
			if err := vm.push(value.Bool(vm.pop().IsFalsey())); err != nil {
				return err
			}
		case chunk.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			v := vm.pop()
			if err := vm.push(value.Number(-v.AsNumber())); err != nil {
				return err
			}
		case chunk.OpPrint:
			fmt.Fprintln(vm.Stdout, vm.pop().String())
		case chunk.OpJump:
			offset := vm.readShort()
			vm.frame().ip += offset
		case chunk.OpJumpIfFalse:
			offset := vm.readShort()
			if vm.peek(0).IsFalsey() {
				vm.frame().ip += offset
			}
		case chunk.OpLoop:
			offset := vm.readShort()
			vm.frame().ip -= offset
		case chunk.OpCall:
			argc := int(vm.readByte())
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}
		case chunk.OpInvoke:
			name := vm.readString()
			argc := int(vm.readByte())
			if err := vm.invoke(name, argc); err != nil {
				return err
			}
		case chunk.OpSuperInvoke:
			name := vm.readString()
			argc := int(vm.readByte())
			superclass := vm.pop().AsObj().(*object.ObjClass)
			if err := vm.invokeFromClass(superclass, name, argc); err != nil {
				return err
			}
		case chunk.OpClosure:
			fn := vm.readConstant().AsObj().(*object.ObjFunction)
			closure := vm.gc.NewClosure(fn)
			for i := range closure.Upvalues {
				isLocal := vm.readByte()
				idx := int(vm.readByte())
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(vm.frame().base + idx)
				} else {
					closure.Upvalues[i] = vm.frame().closure.Upvalues[idx]
				}
			}
			if err := vm.push(value.FromObj(closure)); err != nil {
				return err
			}
		case chunk.OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()
		case chunk.OpReturn:
			result := vm.pop()
			base := vm.frame().base
			vm.closeUpvalues(base)
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				vm.pop()
				return nil
			}
			vm.stack = vm.stack[:base]
			if err := vm.push(result); err != nil {
				return err
			}
		case chunk.OpClass:
			name := vm.readString()
			if err := vm.push(value.FromObj(vm.gc.NewClass(name))); err != nil {
				return err
			}
		case chunk.OpInherit:
			superVal := vm.peek(1)
			superclass, ok := superVal.AsObj().(*object.ObjClass)
			if !ok {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).AsObj().(*object.ObjClass)
			subclass.Superclass = superclass
			superclass.Methods.Each(func(key *value.ObjString, val value.Value) {
				subclass.Methods.Set(key, val)
			})
			vm.pop() // subclass
		case chunk.OpMethod:
			vm.defineMethod(vm.readString())
		default:
			return vm.runtimeError("Unknown opcode %d.", byte(op))
		}
	}
}

func (vm *VM) checkBudget() error {
	select {
	case <-vm.ctx.Done():
		return vm.runtimeError("Execution cancelled.")
	default:
	}
	vm.steps++
	if vm.maxSteps != 0 && vm.steps > vm.maxSteps {
		return vm.runtimeError("Execution exceeded step budget.")
	}
	return nil
}

func (vm *VM) numericBinary(op func(a, b float64) value.Value) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop()
	a := vm.pop()
	return vm.push(op(a.AsNumber(), b.AsNumber()))
}

// add implements the ADD overload (spec §4.4): string+string
// concatenates via the intern table, number+number adds, anything else
// is a runtime error. Operands are peeked rather than popped until the
// result is built so the allocating concatenation path never drops the
// only reachable reference to either operand mid-allocation (spec
// §4.5's GC safety discipline).
func (vm *VM) add() error {
	bVal, aVal := vm.peek(0), vm.peek(1)
	switch {
	case isString(aVal) && isString(bVal):
		concatenated := aVal.AsObj().(*value.ObjString).Chars + bVal.AsObj().(*value.ObjString).Chars
		result := vm.gc.Intern(concatenated)
		vm.pop()
		vm.pop()
		return vm.push(value.FromObj(result))
	case aVal.IsNumber() && bVal.IsNumber():
		b := vm.pop()
		a := vm.pop()
		return vm.push(value.Number(a.AsNumber() + b.AsNumber()))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
}

func isString(v value.Value) bool {
	if !v.IsObj() {
		return false
	}
	_, ok := v.AsObj().(*value.ObjString)
	return ok
}

// runtimeError builds the stack trace innermost-first and resets
// execution (spec §4.4): the VM returns the error rather than the
// caller discovering a half-unwound stack on the next call.
func (vm *VM) runtimeError(format string, args ...any) error {
	message := fmt.Sprintf(format, args...)
	trace := make([]StackFrame, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		name := "script"
		if f.closure.Function.Name != nil {
			name = f.closure.Function.Name.Chars
		}
		line := 0
		if f.ip-1 >= 0 && f.ip-1 < len(f.closure.Function.Chunk.Lines) {
			line = f.closure.Function.Chunk.Lines[f.ip-1]
		}
		trace = append(trace, StackFrame{Name: name, SourceLine: line})
	}
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpvalues = nil
	return newRuntimeError(message, trace)
}

// Package object defines the heap-allocated object kinds that sit behind
// value.Value's Obj variant: functions, natives, closures, upvalues,
// classes, instances, and bound methods (spec §4.1, §4.4, §4.7).
//
// These live in their own package rather than in value because they in
// turn depend on chunk (a function's compiled body) and table (a class's
// method table and an instance's field table); value.ObjString stays put
// in package value specifically so that table, which only ever needs to
// key on *value.ObjString, never has to import this package.
package object

import (
	"fmt"

	"github.com/kristofer/smog/pkg/chunk"
	"github.com/kristofer/smog/pkg/table"
	"github.com/kristofer/smog/pkg/value"
)

// ObjFunction is a compiled function body: its arity, the number of
// upvalues its closures must capture, its bytecode, and an optional name
// (anonymous for the implicit top-level script function).
type ObjFunction struct {
	value.Header
	Arity        int
	UpvalueCount int
	Chunk        *chunk.Chunk
	Name         *value.ObjString
}

var _ value.Obj = (*ObjFunction)(nil)

// NewFunction returns an empty function ready to be filled in by the
// compiler as it emits the body.
func NewFunction() *ObjFunction {
	return &ObjFunction{
		Header: value.NewHeader(value.ObjTypeFunction),
		Chunk:  chunk.New(),
	}
}

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// Size approximates the function's retained heap footprint: its own
// struct plus its chunk's instruction, line, and constant slices. The
// constants themselves are not charged here since they are independently
// reachable objects the collector already accounts for.
func (f *ObjFunction) Size() uintptr {
	const header = 64
	chunkBytes := uintptr(len(f.Chunk.Code)) + uintptr(len(f.Chunk.Lines))*8 + uintptr(len(f.Chunk.Constants))*24
	return header + chunkBytes
}

// NumUpvalues reports how many upvalues closures over this function must
// capture. Exercised by the disassembler's CLOSURE formatting.
func (f *ObjFunction) NumUpvalues() int { return f.UpvalueCount }

// NativeFn is the signature every native (built-in) function implements.
// Errors are reported the same way a user-level runtime error would be.
type NativeFn func(args []value.Value) (value.Value, error)

// ObjNative wraps a Go function so it can be called as a smog value.
type ObjNative struct {
	value.Header
	Name string
	Fn   NativeFn
}

var _ value.Obj = (*ObjNative)(nil)

func NewNative(name string, fn NativeFn) *ObjNative {
	return &ObjNative{Header: value.NewHeader(value.ObjTypeNative), Name: name, Fn: fn}
}

func (n *ObjNative) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
func (n *ObjNative) Size() uintptr  { return 48 + uintptr(len(n.Name)) }

// ObjUpvalue is a closure's capture of a single local variable. While the
// frame that owns the variable is still on the stack the upvalue is
// "open" and Location points directly into the VM's value stack; Close
// copies the current value into Closed and repoints Location at it,
// matching CLox's closeUpvalues (spec §5.2). The VM tracks the set of
// open upvalues itself (vm.openUpvalues), so unlike CLox's intrusive
// linked list this type carries no next-pointer of its own.
type ObjUpvalue struct {
	value.Header
	Location *value.Value
	Closed   value.Value
}

var _ value.Obj = (*ObjUpvalue)(nil)

func NewUpvalue(slot *value.Value) *ObjUpvalue {
	u := &ObjUpvalue{Header: value.NewHeader(value.ObjTypeUpvalue)}
	u.Location = slot
	return u
}

// Close copies the current value out of the stack slot and repoints
// Location at the copy, severing the upvalue from the stack.
func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

func (u *ObjUpvalue) String() string { return "upvalue" }
func (u *ObjUpvalue) Size() uintptr  { return 56 }

// ObjClosure pairs a compiled function with the upvalues it captured at
// creation time. Every callable value the VM actually invokes is a
// closure, including the implicit wrapper around the top-level script.
type ObjClosure struct {
	value.Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

var _ value.Obj = (*ObjClosure)(nil)

func NewClosure(fn *ObjFunction) *ObjClosure {
	return &ObjClosure{
		Header:   value.NewHeader(value.ObjTypeClosure),
		Function: fn,
		Upvalues: make([]*ObjUpvalue, fn.UpvalueCount),
	}
}

func (c *ObjClosure) String() string { return c.Function.String() }
func (c *ObjClosure) Size() uintptr  { return 40 + uintptr(len(c.Upvalues))*8 }

// ObjClass is a class declaration: its name, an optional superclass
// reference set by OP_INHERIT (super lookups read the superclass from the
// stack, not from this field), and a method table mapping names to
// closures (spec §4.7).
type ObjClass struct {
	value.Header
	Name       *value.ObjString
	Superclass *ObjClass
	Methods    *table.Table
}

var _ value.Obj = (*ObjClass)(nil)

func NewClass(name *value.ObjString) *ObjClass {
	return &ObjClass{
		Header:  value.NewHeader(value.ObjTypeClass),
		Name:    name,
		Methods: table.New(),
	}
}

func (c *ObjClass) String() string { return c.Name.Chars }
func (c *ObjClass) Size() uintptr  { return 48 }

// ObjInstance is a runtime instance of a class: a back-pointer to its
// class for method resolution, and a field table for its own state.
// Fields are untyped and created on first assignment, matching Lox's
// dynamically-extensible instances.
type ObjInstance struct {
	value.Header
	Class  *ObjClass
	Fields *table.Table
}

var _ value.Obj = (*ObjInstance)(nil)

func NewInstance(class *ObjClass) *ObjInstance {
	return &ObjInstance{
		Header: value.NewHeader(value.ObjTypeInstance),
		Class:  class,
		Fields: table.New(),
	}
}

func (i *ObjInstance) String() string { return fmt.Sprintf("%s instance", i.Class.Name.Chars) }
func (i *ObjInstance) Size() uintptr  { return 48 }

// ObjBoundMethod pairs a receiver with one of its class's closures,
// produced whenever a method is accessed as a property rather than
// called directly (spec §4.7's bound-method rule). Calling it invokes
// Method with Receiver installed in call slot 0, exactly as if the
// method had been invoked as receiver.method(...).
type ObjBoundMethod struct {
	value.Header
	Receiver value.Value
	Method   *ObjClosure
}

var _ value.Obj = (*ObjBoundMethod)(nil)

func NewBoundMethod(receiver value.Value, method *ObjClosure) *ObjBoundMethod {
	return &ObjBoundMethod{Header: value.NewHeader(value.ObjTypeBoundMethod), Receiver: receiver, Method: method}
}

func (b *ObjBoundMethod) String() string { return b.Method.String() }
func (b *ObjBoundMethod) Size() uintptr  { return 40 }

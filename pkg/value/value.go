// Package value implements the tagged Value type that every smog expression
// evaluates to, the heap-object header shared by every reference type, and
// the ObjString variant, which is kept in this package (rather than beside
// its sibling variants in package object) because both the generic table
// package and the object package need to refer to interned strings without
// creating an import cycle between them.
//
// Value model (spec-equivalent to CLox's Value union): nil, boolean, a
// double-precision number, or a reference to a heap Obj. Equality is
// structural by tag for the scalar kinds and by identity for object
// references — which, thanks to string interning, makes string equality
// collapse to pointer identity too.
package value

import "fmt"

// Kind discriminates the variant currently held by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is a small tagged union, copied by value the way the teacher's VM
// copies `interface{}` stack slots, but closed over exactly four shapes
// instead of "anything with this method set".
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	obj     Obj
}

// Nil is the unique nil value.
var Nil = Value{kind: KindNil}

// Bool returns a Value wrapping the given boolean.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Number returns a Value wrapping the given number.
func Number(n float64) Value { return Value{kind: KindNumber, number: n} }

// FromObj returns a Value referencing the given heap object. Passing a nil
// Obj is a programming error in the compiler/VM and panics rather than
// silently producing an ambiguous nil-typed-but-KindObj value.
func FromObj(o Obj) Value {
	if o == nil {
		panic("value: FromObj called with nil Obj")
	}
	return Value{kind: KindObj, obj: o}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNil() bool  { return v.kind == KindNil }
func (v Value) IsBool() bool { return v.kind == KindBool }
func (v Value) IsNumber() bool {
	return v.kind == KindNumber
}
func (v Value) IsObj() bool { return v.kind == KindObj }

// AsBool does not check v's kind (a non-bool yields false); callers (the
// compiler and the VM) only call it where a prior type check, opcode discipline, or arity check has
// already guaranteed the kind, exactly as CLox's AS_BOOL macro trusts its
// caller.
func (v Value) AsBool() bool { return v.boolean }

func (v Value) AsNumber() float64 { return v.number }

func (v Value) AsObj() Obj { return v.obj }

// IsFalsey reports whether v is falsy under the language's truthiness rule:
// nil and false are falsy, everything else — including 0 and "" — is truthy.
func (v Value) IsFalsey() bool {
	return v.kind == KindNil || (v.kind == KindBool && !v.boolean)
}

// Equal implements the language's `==` operator: structural comparison
// within a tag, identity comparison across object references.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.boolean == b.boolean
	case KindNumber:
		return a.number == b.number
	case KindObj:
		return a.obj == b.obj
	default:
		return false
	}
}

// String renders v the way the language's `print` statement and string
// concatenation via "+" do.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.number)
	case KindObj:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	// C's printf("%g", ...), which CLox prints numbers with, defaults to
	// 6 significant digits; Go's %g instead prints the shortest string
	// that round-trips, so "%.6g" is the one that actually matches (e.g.
	// 0.1+0.2 prints "0.3", not "0.30000000000000004").
	return fmt.Sprintf("%.6g", n)
}

// TypeName returns a short, user-facing type name for v's kind. The VM's
// runtime error messages (e.g. "Operand must be a number.") do not
// include it.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindObj:
		return v.obj.ObjType().String()
	default:
		return "unknown"
	}
}

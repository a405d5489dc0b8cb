package value

import "fmt"

// ObjString is an immutable, interned string. At most one ObjString per
// distinct byte sequence is ever live in a given collector's intern table
// (spec §3 invariant); this is what lets the language's `==` operator
// compare strings by pointer identity instead of by content.
//
// ObjString lives in package value, rather than alongside the other Obj
// variants in package object, because package table (the open-addressing
// hash table used for globals, fields, methods and the intern table itself)
// is keyed by *ObjString and must not import package object — and package
// object's class/instance variants must embed *table.Table, so object
// already depends on table. Keeping ObjString here breaks what would
// otherwise be an import cycle between table and object.
type ObjString struct {
	Header
	Chars string
	Hash  uint32
}

var _ Obj = (*ObjString)(nil)

// HashString computes the FNV-1a 32-bit hash of s, the hash used by the
// intern table and by every other table keyed on strings.
func HashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// NewObjString constructs an ObjString. Callers should not call this
// directly for language-visible strings — use the collector's Intern
// method, which deduplicates against the intern table first. It is exported
// so that Intern in package gc can build the canonical string once the
// intern table has no match, without a second, parallel constructor living
// in package gc.
func NewObjString(chars string) *ObjString {
	return &ObjString{Header: NewHeader(ObjTypeString), Chars: chars, Hash: HashString(chars)}
}

func (s *ObjString) String() string { return s.Chars }

func (s *ObjString) Size() uintptr {
	return unsafeStringHeaderSize + uintptr(len(s.Chars))
}

// unsafeStringHeaderSize is a constant stand-in for the fixed overhead of a
// string object (header + length/hash fields), to keep Size() free of an
// unsafe.Sizeof call against a type that embeds an interface.
const unsafeStringHeaderSize = 32

func (s *ObjString) GoString() string { return fmt.Sprintf("ObjString(%q)", s.Chars) }

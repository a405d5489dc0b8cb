package value

// ObjType tags the concrete variant of a heap Obj, mirroring CLox's ObjType
// enum (object.h). It exists mainly for error messages and GC bookkeeping;
// the actual dispatch is done with Go type switches and type assertions in
// package vm and package gc, not by branching on ObjType.
type ObjType uint8

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
	ObjTypeClosure
	ObjTypeUpvalue
	ObjTypeClass
	ObjTypeInstance
	ObjTypeBoundMethod
)

func (t ObjType) String() string {
	switch t {
	case ObjTypeString:
		return "string"
	case ObjTypeFunction:
		return "function"
	case ObjTypeNative:
		return "native function"
	case ObjTypeClosure:
		return "function"
	case ObjTypeUpvalue:
		return "upvalue"
	case ObjTypeClass:
		return "class"
	case ObjTypeInstance:
		return "instance"
	case ObjTypeBoundMethod:
		return "bound method"
	default:
		return "object"
	}
}

// Obj is implemented by every heap-allocated reference type: strings,
// functions, closures, upvalues, classes, instances, bound methods and
// natives. The mark bit and intrusive next-pointer required by the
// mark-sweep collector (spec §3, "Heap object header") are implemented once
// on Header and promoted by every variant that embeds it, so a concrete
// struct only has to embed value.Header to satisfy this interface.
type Obj interface {
	ObjType() ObjType
	String() string
	IsMarked() bool
	SetMarked(bool)
	Next() Obj
	SetNext(Obj)
	// Size estimates the heap footprint of the object for the memory
	// manager's bytesAllocated/nextGC bookkeeping (§4.5). It need not be
	// exact — it only has to make collections happen with roughly the
	// right frequency.
	Size() uintptr
}

// Header is the common heap-object header: type tag, GC mark bit, and the
// intrusive pointer into the collector's global allocation list used during
// sweep. Every concrete Obj variant embeds a Header.
type Header struct {
	typ    ObjType
	marked bool
	next   Obj
}

// NewHeader returns a Header tagged with the given type, ready to embed in
// a freshly constructed object before it is handed to the collector.
func NewHeader(typ ObjType) Header { return Header{typ: typ} }

func (h *Header) ObjType() ObjType { return h.typ }
func (h *Header) IsMarked() bool   { return h.marked }
func (h *Header) SetMarked(m bool) { h.marked = m }
func (h *Header) Next() Obj        { return h.next }
func (h *Header) SetNext(o Obj)    { h.next = o }

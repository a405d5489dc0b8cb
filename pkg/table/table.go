// Package table implements the open-addressed hash table used throughout
// smog for every name-keyed mapping: globals, instance fields, class method
// tables, and the collector's string-intern table (spec §4.6).
//
// It is deliberately not the pack's github.com/dolthub/swiss map: the
// intern table specifically needs FindString (probe by hash without first
// materializing an *ObjString key) and a weak-reference sweep that walks
// every slot looking for an unmarked key, neither of which a closed
// general-purpose map type exposes. Everywhere else in the language a table
// also doubles as a GC root (via Collector.MarkTable), which again needs
// slot-level iteration a black-box map can't give us. So this one type is
// grounded directly on CLox's table.c rather than on any pack dependency.
package table

import "github.com/kristofer/smog/pkg/value"

const (
	initialCapacity = 8
	maxLoadFactor    = 0.75
)

type entry struct {
	key       *value.ObjString
	val       value.Value
	tombstone bool
}

// Table is an open-addressed, linear-probed hash table keyed by interned
// strings. Capacity is always a power of two; growth rebuilds all live
// entries and discards tombstones, exactly as CLox's adjustCapacity does.
type Table struct {
	entries []entry
	count   int // live entries + tombstones, i.e. occupied slots
	live    int // live entries only
}

// New returns an empty Table.
func New() *Table { return &Table{} }

// Count returns the number of live (non-tombstone) entries.
func (t *Table) Count() int { return t.live }

// Set installs value for key, growing the table first if doing so would
// exceed the load factor. It reports whether key was not already present.
func (t *Table) Set(key *value.ObjString, val value.Value) bool {
	if key == nil {
		panic("table: nil key")
	}
	if float64(t.count+1) > float64(len(t.entries))*maxLoadFactor {
		t.grow()
	}
	e := t.find(key)
	isNew := e.key == nil
	if isNew && !e.tombstone {
		t.count++
	}
	if isNew {
		t.live++
	}
	e.key = key
	e.val = val
	e.tombstone = false
	return isNew
}

// Get returns the value associated with key, and whether it was present.
func (t *Table) Get(key *value.ObjString) (value.Value, bool) {
	if len(t.entries) == 0 {
		return value.Nil, false
	}
	e := t.find(key)
	if e.key == nil {
		return value.Nil, false
	}
	return e.val, true
}

// Delete removes key, leaving a tombstone behind so that later probes for
// keys that hashed into the same run still find them. It reports whether
// key was present.
func (t *Table) Delete(key *value.ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.tombstone = true
	t.live--
	return true
}

// FindString probes the table by hash and byte content without requiring
// an already-allocated *ObjString key. This is the intern-table fast path:
// Collector.Intern calls it before allocating a new ObjString, so that
// scanning the same literal twice reuses the first allocation.
func (t *Table) FindString(chars string, hash uint32) *value.ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		e := &t.entries[idx]
		if e.key == nil {
			if !e.tombstone {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		idx = (idx + 1) & mask
	}
}

// Each calls fn once for every live entry. fn must not mutate the table.
func (t *Table) Each(fn func(key *value.ObjString, val value.Value)) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil {
			fn(e.key, e.val)
		}
	}
}

// RemoveUnmarked deletes every live entry whose key is not marked. This is
// the collector's weak-reference sweep of the intern table (spec §4.5 step
// 3): once mark has run, any interned string not reachable from a root is
// about to be freed, and must not remain "live" in the intern table or a
// later lookup would return a dangling/freed key.
func (t *Table) RemoveUnmarked() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.IsMarked() {
			e.key = nil
			e.tombstone = true
			t.live--
		}
	}
}

// find locates the entry for key, or the first empty/tombstone slot in its
// probe sequence if key is absent. It always terminates at a true empty
// slot (never a tombstone), bounding the probe length by capacity.
func (t *Table) find(key *value.ObjString) *entry {
	mask := uint32(len(t.entries) - 1)
	idx := key.Hash & mask
	var tombstone *entry
	for {
		e := &t.entries[idx]
		switch {
		case e.key == nil:
			if !e.tombstone {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		idx = (idx + 1) & mask
	}
}

func (t *Table) grow() {
	newCap := initialCapacity
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	old := t.entries
	t.entries = make([]entry, newCap)
	t.count = 0
	for _, e := range old {
		if e.key == nil {
			continue
		}
		dst := t.find(e.key)
		dst.key = e.key
		dst.val = e.val
		t.count++
	}
	// live count is unaffected by growth: only tombstones are discarded.
}

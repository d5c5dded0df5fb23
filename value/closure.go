package value

import (
	"fmt"
	"io"
)

// ClosureObj is a function value: the address of its entry instruction plus
// the frame pointer of its enclosing (statically linked) activation at the
// time it was captured. Two closures are equal, and fingerprint/hash
// identically, iff both components match — a closure captured at a
// different call depth of the same lexical function is a distinct value,
// since reading a variable through it would resolve to a different frame.
type ClosureObj struct {
	Header
	EntryPC      int
	DynamicLevel int
}

// Head implements [Object].
func (o *ClosureObj) Head() *Header { return &o.Header }

type closureForm struct{}

// Closure is the global Form singleton for KindClosure.
var Closure = closureForm{}

func (closureForm) Kind() Kind { return KindClosure }

// NewVal creates a closure value over the given entry point and dynamic
// (static-link) level.
func (closureForm) NewVal(h HeapAccess, entryPC, dynamicLevel int) Value {
	obj := &ClosureObj{Header: Header{Form: Closure}, EntryPC: entryPC, DynamicLevel: dynamicLevel}
	return Ptr(h.New(obj))
}

func (f closureForm) obj(h HeapAccess, v Value) *ClosureObj {
	return h.Resolve(v.Handle()).(*ClosureObj)
}

// EntryPC returns the instruction address a call through v resumes at.
func (f closureForm) EntryPC(h HeapAccess, v Value) int { return f.obj(h, v).EntryPC }

// Level returns the static-link frame pointer v captured at creation.
func (f closureForm) Level(h HeapAccess, v Value) int { return f.obj(h, v).DynamicLevel }

func (f closureForm) IsEqual(h HeapAccess, a, b Value) bool {
	ao, bo := f.obj(h, a), f.obj(h, b)
	return ao.EntryPC == bo.EntryPC && ao.DynamicLevel == bo.DynamicLevel
}

// Cmp orders closures by entry point, then by captured frame pointer.
func (f closureForm) Cmp(h HeapAccess, a, b Value) (int, bool) {
	ao, bo := f.obj(h, a), f.obj(h, b)
	x, y := ao.EntryPC, bo.EntryPC
	if x == y {
		x, y = ao.DynamicLevel, bo.DynamicLevel
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

func (f closureForm) Format(h HeapAccess, w io.Writer, v Value) (int, error) {
	o := f.obj(h, v)
	return fmt.Fprintf(w, "closure(pc=%d, level=%d)", o.EntryPC, o.DynamicLevel)
}

func (f closureForm) Hash(h HeapAccess, v Value) uint32 {
	o := f.obj(h, v)
	x := mixHash32(uint32(o.EntryPC)) ^ mixHash32(uint32(o.DynamicLevel)*2654435761)
	return mixHash32(x)
}

func (f closureForm) Fingerprint(h HeapAccess, v Value) uint64 {
	o := f.obj(h, v)
	fp := fingerprintSeed(KindClosure)
	fp = mixFingerprint64(fp ^ uint64(uint32(o.EntryPC)))
	fp = mixFingerprint64(fp ^ uint64(uint32(o.DynamicLevel))<<32)
	return fp
}

func (f closureForm) Uniq(h HeapAccess, v Value) Value { return v }

func (f closureForm) Delete(h HeapAccess, v Value) {}

func (f closureForm) Children(h HeapAccess, obj Object, out []Handle) []Handle { return out }

func (f closureForm) AdjustHeapPtrs(obj Object, remap map[Handle]Handle) {}

func (f closureForm) CheckHeapPtrs(h HeapAccess, obj Object) error { return nil }

package value

import "io"

// Reference-count regimes for a heap object's Ref field.
const (
	// RefUnreachable is the ref value at which an object is eligible for
	// reclamation at the next sweep.
	RefUnreachable uint32 = 0

	// MinReadOnlyRef is the smallest Ref value that marks an object
	// read-only: Retain/Release leave its count alone and it is never
	// freed. Compact and Reset keep it but can give it a new handle, and
	// Uniq copies it like any other object whose Ref is not 1.
	MinReadOnlyRef uint32 = 1 << 30

	// InitReadOnlyRef is the Ref value assigned to a read-only object at
	// creation time.
	InitReadOnlyRef = MinReadOnlyRef + 1
)

// Header is the common prefix of every heap object: its form (operation
// vtable) and reference count.
type Header struct {
	Form Form
	Ref  uint32
}

// IsReadOnly reports whether the object is in the read-only regime.
func (h *Header) IsReadOnly() bool { return h.Ref >= MinReadOnlyRef }

// FormOfValue returns the Form that operates on v: a smi is always Int,
// and a heap value's Form is read off its object header. Used by
// type-generic code (e.g. the fingerprint-of-any-value conversion) that
// holds only a Value, not the static type that produced it.
func FormOfValue(h HeapAccess, v Value) Form {
	if v.IsSmi() {
		return Int
	}
	return h.Resolve(v.Handle()).Head().Form
}

// Object is implemented by every concrete heap object type (Basic64Obj,
// BytesObj, ArrayObj, TupleObj, MapObj, ClosureObj, ...). Head
// exposes the common header embedded as the object's first field.
type Object interface {
	Head() *Header
}

// HeapAccess is the capability surface a [Form] needs from whatever heap
// owns the objects it operates on: resolving handles to objects, creating
// new objects, and adjusting refcounts. [heap.Heap] implements this
// interface; value itself never allocates memory, only describes the
// operations available on it, breaking what would otherwise be an import
// cycle between the value-representation package and the heap package.
type HeapAccess interface {
	Resolve(h Handle) Object
	New(obj Object) Handle
	NewReadOnly(obj Object) Handle
	Retain(h Handle)
	Release(h Handle)
	// SetTrap records an undef-trap message for the operation in progress.
	// Forms call this instead of returning a Go error so that the
	// recoverable-trap vs. fatal-host-error distinction is preserved
	// uniformly across every operation.
	SetTrap(message string)
}

// Form is the per-type operation vtable. There is one static Form instance
// per [Kind] for scalar kinds; tuple and map keep a Form per concrete
// type, since e.g. element Form is needed to recurse. Array has a single
// Form, and each array object carries its own element Form.
type Form interface {
	Kind() Kind

	// IsEqual is type-equal-first, pointwise-element-equal semantic
	// equality.
	IsEqual(h HeapAccess, a, b Value) bool

	// Cmp is ternary comparison; ordered is false for forms that have no
	// ordering (maps).
	Cmp(h HeapAccess, a, b Value) (sign int, ordered bool)

	// Format writes a human-readable rendering of v to w.
	Format(h HeapAccess, w io.Writer, v Value) (int, error)

	// Hash returns an order-independent 32-bit hash.
	Hash(h HeapAccess, v Value) uint32

	// Fingerprint returns a 64-bit fingerprint, order-dependent for
	// compound types, stable across processes.
	Fingerprint(h HeapAccess, v Value) uint64

	// Uniq returns a value with Ref==1, copying only if currently shared.
	Uniq(h HeapAccess, v Value) Value

	// Delete releases v's owned child handles and any non-heap resources.
	// Called when v's refcount reaches zero.
	Delete(h HeapAccess, v Value)

	// Children appends every child Handle directly owned by obj to out and
	// returns the extended slice. The heap's Compact and Reset do not call
	// it; liveness there comes from refcounts alone. obj is the concrete
	// heap Object (not a Value), so a caller walking the heap passes the
	// object it already holds rather than a handle to re-resolve.
	Children(h HeapAccess, obj Object, out []Handle) []Handle

	// AdjustHeapPtrs rewrites every child handle held by obj in place,
	// according to remap, after compaction.
	AdjustHeapPtrs(obj Object, remap map[Handle]Handle)

	// CheckHeapPtrs validates obj's internal invariants; used by a
	// debug-only whole-heap audit.
	CheckHeapPtrs(h HeapAccess, obj Object) error
}

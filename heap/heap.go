// Package heap implements value.HeapAccess: a handle-indexed, compacting
// object store backing every non-smi value.Value.
package heap

import (
	"fmt"

	"github.com/google/szl-sub000/internal/arena"
	"github.com/google/szl-sub000/internal/dbg"
	"github.com/google/szl-sub000/value"
)

// Heap owns every heap object reachable from any value.Value produced
// through it. Reclamation is primarily refcounted (Release frees an object
// the instant its count hits zero) with an additional compact pass
// available for collapsing the handle space after heavy churn, since a
// refcounted freelist alone never shrinks the slab. Compact decides
// liveness from refcounts alone; there is no mark phase.
type Heap struct {
	slab     *arena.Slab[value.Object]
	freeList []int
	trap     string
	trapSet  bool
}

// New creates an empty Heap.
func New() *Heap {
	return &Heap{slab: arena.NewSlab[value.Object]()}
}

// Resolve implements value.HeapAccess.
func (h *Heap) Resolve(handle value.Handle) value.Object {
	if handle == value.NoHandle || int(handle) >= h.slab.Len() {
		return nil
	}
	obj := *h.slab.At(int(handle))
	return obj
}

// New implements value.HeapAccess: allocates obj with an initial refcount
// of 1, reusing a freed slot when one is available.
func (h *Heap) New(obj value.Object) value.Handle {
	obj.Head().Ref = 1
	return h.place(obj)
}

// NewReadOnly implements value.HeapAccess: allocates obj in the read-only
// regime, where Retain/Release are no-ops and the object is never freed or
// dropped by Compact/Reset. Its handle is not pinned: Compact and Reset
// can move it to a new handle, reported in the remap they return.
func (h *Heap) NewReadOnly(obj value.Object) value.Handle {
	obj.Head().Ref = value.InitReadOnlyRef
	return h.place(obj)
}

func (h *Heap) place(obj value.Object) value.Handle {
	if n := len(h.freeList); n > 0 {
		idx := h.freeList[n-1]
		h.freeList = h.freeList[:n-1]
		*h.slab.At(idx) = obj
		return value.Handle(idx)
	}
	idx := h.slab.Alloc(obj)
	return value.Handle(idx)
}

// Retain implements value.HeapAccess.
func (h *Heap) Retain(handle value.Handle) {
	obj := h.Resolve(handle)
	if obj == nil {
		return
	}
	hdr := obj.Head()
	if hdr.IsReadOnly() {
		return
	}
	hdr.Ref++
}

// Release implements value.HeapAccess: decrements the refcount and, on
// reaching zero, runs the object's Form.Delete (releasing whatever it owns
// in turn) before returning the slot to the freelist.
func (h *Heap) Release(handle value.Handle) {
	obj := h.Resolve(handle)
	if obj == nil {
		return
	}
	hdr := obj.Head()
	if hdr.IsReadOnly() {
		return
	}
	if hdr.Ref == 0 {
		panic(fmt.Sprintf("heap: Release on handle %d with refcount already zero", handle))
	}
	hdr.Ref--
	if hdr.Ref == value.RefUnreachable {
		dbg.Log("heap", "free", "handle=%d", handle)
		hdr.Form.Delete(h, value.Ptr(handle))
		*h.slab.At(int(handle)) = nil
		h.freeList = append(h.freeList, int(handle))
	}
}

// SetTrap implements value.HeapAccess, recording the most recent undef-trap
// message raised by a Form operation. A caller that drives bytecode
// execution consumes this via Trap/ClearTrap after every step.
func (h *Heap) SetTrap(message string) {
	h.trap = message
	h.trapSet = true
}

// Trap returns the last recorded trap message and whether one is pending.
func (h *Heap) Trap() (string, bool) { return h.trap, h.trapSet }

// ClearTrap clears any pending trap.
func (h *Heap) ClearTrap() { h.trap = ""; h.trapSet = false }

// Len returns one past the highest handle ever allocated (live or freed).
func (h *Heap) Len() int { return h.slab.Len() }

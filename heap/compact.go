package heap

import (
	"fmt"

	"github.com/google/szl-sub000/internal/dbg"
	"github.com/google/szl-sub000/value"
)

// Compact slides every still-referenced object down to a dense prefix of
// the handle space and rewrites every contained handle to match, via
// Form.AdjustHeapPtrs. Compaction does not rely on reachability: an object
// is kept iff it is read-only or its refcount is nonzero, full stop — it
// never traces Form.Children to decide liveness, and it never looks at
// roots to find objects to drop. A cycle of objects that only reference
// each other keeps every member's refcount above zero forever; compaction
// cannot and does not reclaim it. Such cycles are only ever reclaimed by
// discarding the whole heap between records. The roots parameter exists so
// callers can remap handles they hold outside the heap (an interpreter's
// value stack, output-table statics); it plays no part in deciding what
// Compact keeps.
func (h *Heap) Compact(roots []value.Handle) map[value.Handle]value.Handle {
	totalBefore := h.slab.Len() - 1
	keep := make([]int, 0, totalBefore)
	for i := 1; i < h.slab.Len(); i++ {
		obj := *h.slab.At(i)
		if obj == nil {
			continue
		}
		hdr := obj.Head()
		if hdr.IsReadOnly() || hdr.Ref > 0 {
			keep = append(keep, i)
		}
	}

	remapInt := h.slab.Compact(keep)
	remap := make(map[value.Handle]value.Handle, len(remapInt))
	for old, new := range remapInt {
		remap[value.Handle(old)] = value.Handle(new)
	}

	for i := 1; i < h.slab.Len(); i++ {
		obj := *h.slab.At(i)
		obj.Head().Form.AdjustHeapPtrs(obj, remap)
	}

	for i := range roots {
		if r, ok := remap[roots[i]]; ok {
			roots[i] = r
		}
	}

	h.freeList = h.freeList[:0]
	dbg.Log("heap", "compact", "kept=%d freed=%d", len(keep), totalBefore-len(keep))
	return remap
}

// DefaultSweepThreshold is the fraction of allocated slots sitting dead in
// the freelist (freed by Release but not yet reclaimed) at which Sweep
// decides a compaction is worth its cost.
const DefaultSweepThreshold = 0.5

// DeadRatio reports the fraction of ever-allocated slots that are
// currently on the freelist: allocation headroom lost to dead objects
// Compact hasn't reclaimed yet.
func (h *Heap) DeadRatio() float64 {
	total := h.slab.Len() - 1
	if total <= 0 {
		return 0
	}
	return float64(len(h.freeList)) / float64(total)
}

// Sweep runs Compact only once DeadRatio has crossed threshold, reporting
// whether it ran. This is the headroom-triggered policy a long-running
// interpreter loop polls periodically, as opposed to a caller explicitly
// requesting Compact.
func (h *Heap) Sweep(threshold float64) (map[value.Handle]value.Handle, bool) {
	if h.DeadRatio() < threshold {
		return nil, false
	}
	return h.Compact(nil), true
}

// Reset discards every object that isn't read-only, regardless of its
// refcount, and slides the surviving read-only statics down to a dense
// prefix. This is the "between records" heap wipe: a record's
// heap-allocated values are never individually released at record end,
// they're abandoned in bulk, which is also how a cycle of objects that
// only reference each other (impossible to free via Compact, which never
// drops a positive refcount) is finally reclaimed. Literal pool values
// and other cross-record statics must be allocated via NewReadOnly to
// survive a Reset; anything allocated via New is transient and dropped
// here even if its refcount never reached zero.
func (h *Heap) Reset() map[value.Handle]value.Handle {
	keep := make([]int, 0)
	for i := 1; i < h.slab.Len(); i++ {
		obj := *h.slab.At(i)
		if obj != nil && obj.Head().IsReadOnly() {
			keep = append(keep, i)
		}
	}

	remapInt := h.slab.Compact(keep)
	remap := make(map[value.Handle]value.Handle, len(remapInt))
	for old, new := range remapInt {
		remap[value.Handle(old)] = value.Handle(new)
	}

	for i := 1; i < h.slab.Len(); i++ {
		obj := *h.slab.At(i)
		obj.Head().Form.AdjustHeapPtrs(obj, remap)
	}

	h.freeList = h.freeList[:0]
	h.trap = ""
	h.trapSet = false
	dbg.Log("heap", "reset", "kept=%d", len(keep))
	return remap
}

// Check audits every live object's internal invariants via
// Form.CheckHeapPtrs. It is a debug-only whole-heap pass, not called on any
// hot path.
func (h *Heap) Check() error {
	for i := 1; i < h.slab.Len(); i++ {
		obj := *h.slab.At(i)
		if obj == nil {
			continue
		}
		if err := obj.Head().Form.CheckHeapPtrs(h, obj); err != nil {
			return fmt.Errorf("heap: handle %d: %w", i, err)
		}
	}
	return nil
}

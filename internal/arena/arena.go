// Package arena provides a growable, index-addressed slab allocator backed
// by a single slice.
//
// Unlike a raw bump allocator over unsafe memory, a [Slab] hands out stable
// integer indices ("slots") rather than pointers, so that the owning heap
// can compact the slab (move survivors to the front, drop the rest) without
// invalidating any Go pointer the garbage collector has to track. Growth is
// whatever append gives the one backing slice; there are no separate
// chunks.
package arena

// Slab is a growable, index-addressed sequence of T. Index 0 is never
// handed out by Alloc; it is reserved so that a zero index can be used as a
// sentinel "no slot" value by callers.
type Slab[T any] struct {
	slots []T
}

// NewSlab creates an empty slab with the reserved sentinel slot already
// present.
func NewSlab[T any]() *Slab[T] {
	s := &Slab[T]{}
	var zero T
	s.slots = append(s.slots, zero)
	return s
}

// Len returns one past the highest valid index (i.e. len(slots)).
func (s *Slab[T]) Len() int { return len(s.slots) }

// Alloc appends value and returns its index.
func (s *Slab[T]) Alloc(value T) int {
	s.slots = append(s.slots, value)
	return len(s.slots) - 1
}

// At returns a pointer to the slot at index i, which must be in
// [1, s.Len()).
func (s *Slab[T]) At(i int) *T {
	return &s.slots[i]
}

// Compact keeps only the slots whose index is in keep (which must contain
// only indices >= 1), sliding them down starting at index 1, and returns the
// map from old index to new index.
func (s *Slab[T]) Compact(keep []int) map[int]int {
	remap := make(map[int]int, len(keep))
	out := make([]T, 1, len(keep)+1)
	var zero T
	out[0] = zero
	for _, old := range keep {
		out = append(out, s.slots[old])
		remap[old] = len(out) - 1
	}
	s.slots = out
	return remap
}

// Reset drops every slot, keeping only the sentinel.
func (s *Slab[T]) Reset() {
	s.slots = s.slots[:1]
}

// All iterates every live slot index (skipping the sentinel) in order.
func (s *Slab[T]) All(yield func(index int, value *T) bool) {
	for i := 1; i < len(s.slots); i++ {
		if !yield(i, &s.slots[i]) {
			return
		}
	}
}

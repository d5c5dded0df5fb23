package value

import (
	"fmt"
	"io"
)

// MapType is the type descriptor for a map: the Form used for keys and for
// values.
type MapType struct {
	Key   Form
	Elem  Form
	form  mapForm
}

// NewMapType builds a MapType for the given key and value forms.
func NewMapType(key, elem Form) *MapType {
	t := &MapType{Key: key, Elem: elem}
	t.form = mapForm{typ: t}
	return t
}

// Form returns the Form for values of this map type.
func (t *MapType) Form() Form { return t.form }

// NewVal creates a new empty owning map value of this type.
func (t *MapType) NewVal(h HeapAccess) Value { return t.form.NewVal(h) }

// Len returns the number of entries in v.
func (t *MapType) Len(h HeapAccess, v Value) int { return t.form.Len(h, v) }

// Lookup returns the value for key and true, or (Undef, false).
func (t *MapType) Lookup(h HeapAccess, v, key Value) (Value, bool) { return t.form.Lookup(h, v, key) }

// InsertKey ensures key is present (creating it with Undef if absent) and
// returns its current value.
func (t *MapType) InsertKey(h HeapAccess, v, key Value) Value { return t.form.InsertKey(h, v, key) }

// Set inserts or overwrites the value for key.
func (t *MapType) Set(h HeapAccess, v, key, val Value) { t.form.Set(h, v, key, val) }

// DeleteKey removes key if present, reporting whether it was found.
func (t *MapType) DeleteKey(h HeapAccess, v, key Value) bool { return t.form.DeleteKey(h, v, key) }

// Entries returns the live entries of v in insertion order.
func (t *MapType) Entries(h HeapAccess, v Value) []struct{ Key, Val Value } {
	return t.form.Entries(h, v)
}

// mapCell is one slot of the cuckoo table: either empty, or holding a
// (key, value) pair plus the 0-based insertion order used to make iteration
// deterministic and stable across a rehash.
type mapCell struct {
	used  bool
	key   Value
	val   Value
	order int
}

// MapObj implements a 2-way cuckoo hash table: every key hashes to one of
// two candidate cells (one per seed); insertion displaces an occupant to
// its other candidate cell, retrying up to a bounded number of times before
// the whole table is rehashed into a larger one. Iteration follows
// insertion order via a side index sorted by each live cell's order field,
// not cell position, so grow/rehash never reorders a program's output.
type MapObj struct {
	Header
	Type     *MapType
	cells    []mapCell
	seed1    uint64
	seed2    uint64
	count    int
	nextOrd  int
}

// Head implements [Object].
func (o *MapObj) Head() *Header { return &o.Header }

const mapMinCells = 8
const mapMaxDisplacements = 24

type mapForm struct{ typ *MapType }

func (f mapForm) Kind() Kind { return KindMap }

// NewVal creates a new empty owning MapObj.
func (f mapForm) NewVal(h HeapAccess) Value {
	obj := &MapObj{
		Header: Header{Form: f},
		Type:   f.typ,
		cells:  make([]mapCell, mapMinCells),
		seed1:  0x9E3779B97F4A7C15,
		seed2:  0xC2B2AE3D27D4EB4F,
	}
	return Ptr(h.New(obj))
}

func (f mapForm) obj(h HeapAccess, v Value) *MapObj {
	return h.Resolve(v.Handle()).(*MapObj)
}

// Len returns the number of entries.
func (f mapForm) Len(h HeapAccess, v Value) int { return f.obj(h, v).count }

func (o *MapObj) slot1(hash uint32) int { return int(uint64(hash)*o.seed1>>32) % len(o.cells) }
func (o *MapObj) slot2(hash uint32) int { return int(uint64(hash)*o.seed2>>32) % len(o.cells) }

// Lookup returns the value for key and true, or (Undef, false).
func (f mapForm) Lookup(h HeapAccess, v Value, key Value) (Value, bool) {
	o := f.obj(h, v)
	hash := f.typ.Key.Hash(h, key)
	for _, idx := range [2]int{o.slot1(hash), o.slot2(hash)} {
		c := &o.cells[idx]
		if c.used && f.typ.Key.IsEqual(h, c.key, key) {
			return c.val, true
		}
	}
	return Undef, false
}

// InsertKey ensures key is present, creating it with Undef value if absent
// (the `insert_key` / index-for-write operation), and returns its current
// value.
func (f mapForm) InsertKey(h HeapAccess, v Value, key Value) Value {
	if val, ok := f.Lookup(h, v, key); ok {
		return val
	}
	f.Set(h, v, key, Undef)
	return Undef
}

// Set inserts or overwrites the value for key.
func (f mapForm) Set(h HeapAccess, v Value, key Value, val Value) {
	o := f.obj(h, v)
	hash := f.typ.Key.Hash(h, key)
	for _, idx := range [2]int{o.slot1(hash), o.slot2(hash)} {
		c := &o.cells[idx]
		if c.used && f.typ.Key.IsEqual(h, c.key, key) {
			old := c.val
			if val.IsPtr() {
				h.Retain(val.Handle())
			}
			c.val = val
			if old.IsPtr() {
				h.Release(old.Handle())
			}
			return
		}
	}
	if key.IsPtr() {
		h.Retain(key.Handle())
	}
	if val.IsPtr() {
		h.Retain(val.Handle())
	}
	f.insertNew(h, o, key, val)
}

// insertNew places a brand-new (key, val) pair, performing cuckoo
// displacement and growing the table when displacement runs too long. The
// caller has already retained key and val.
func (f mapForm) insertNew(h HeapAccess, o *MapObj, key, val Value) {
	order := o.nextOrd
	o.nextOrd++
	o.count++

	for {
		hash := f.typ.Key.Hash(h, key)
		idx := o.slot1(hash)
		if !o.cells[idx].used {
			o.cells[idx] = mapCell{used: true, key: key, val: val, order: order}
			return
		}
		idx2 := o.slot2(hash)
		if !o.cells[idx2].used {
			o.cells[idx2] = mapCell{used: true, key: key, val: val, order: order}
			return
		}

		// Both candidate cells are occupied: evict the primary-slot occupant
		// to its own secondary slot, freeing idx for key, and repeat with the
		// evicted pair. If this chases for too long, the table is too full for
		// its current size: rehash into a bigger one and retry from scratch.
		displaced := o.cells[idx]
		o.cells[idx] = mapCell{used: true, key: key, val: val, order: order}
		key, val, order = displaced.key, displaced.val, displaced.order

		displacements := 0
		for displacements < mapMaxDisplacements {
			hash = f.typ.Key.Hash(h, key)
			idx = o.slot1(hash)
			if !o.cells[idx].used {
				o.cells[idx] = mapCell{used: true, key: key, val: val, order: order}
				return
			}
			idx2 = o.slot2(hash)
			if !o.cells[idx2].used {
				o.cells[idx2] = mapCell{used: true, key: key, val: val, order: order}
				return
			}
			displaced = o.cells[idx]
			o.cells[idx] = mapCell{used: true, key: key, val: val, order: order}
			key, val, order = displaced.key, displaced.val, displaced.order
			displacements++
		}

		f.rehash(h, o, len(o.cells)*2)
	}
}

// rehash reinserts every live entry into a fresh table of newSize cells,
// drawing a new pair of seeds so that a sequence of unlucky collisions
// cannot recur deterministically.
func (f mapForm) rehash(h HeapAccess, o *MapObj, newSize int) {
	old := o.cells
	count, nextOrd := o.count, o.nextOrd
	o.cells = make([]mapCell, newSize)
	o.seed1 = mixFingerprint64(o.seed1 + 1)
	o.seed2 = mixFingerprint64(o.seed2 + 0x9E3779B9)
	type kv struct {
		key, val Value
		order    int
	}
	live := make([]kv, 0, len(old))
	for _, c := range old {
		if c.used {
			live = append(live, kv{c.key, c.val, c.order})
		}
	}
	// Preserve original insertion order across the rehash.
	for i := 1; i < len(live); i++ {
		j := i
		for j > 0 && live[j-1].order > live[j].order {
			live[j-1], live[j] = live[j], live[j-1]
			j--
		}
	}
	for _, e := range live {
		// Reinsert under the entry's own order; the count and next order
		// are restored below, so the pair still pending in the caller
		// stays counted and keeps its order too.
		o.nextOrd = e.order
		f.insertNew(h, o, e.key, e.val)
	}
	o.count, o.nextOrd = count, nextOrd
}

// DeleteKey removes key if present, releasing its key and value handles.
func (f mapForm) DeleteKey(h HeapAccess, v Value, key Value) bool {
	o := f.obj(h, v)
	hash := f.typ.Key.Hash(h, key)
	for _, idx := range [2]int{o.slot1(hash), o.slot2(hash)} {
		c := &o.cells[idx]
		if c.used && f.typ.Key.IsEqual(h, c.key, key) {
			if c.key.IsPtr() {
				h.Release(c.key.Handle())
			}
			if c.val.IsPtr() {
				h.Release(c.val.Handle())
			}
			*c = mapCell{}
			o.count--
			return true
		}
	}
	return false
}

// Entries returns the live entries in insertion order.
func (f mapForm) Entries(h HeapAccess, v Value) []struct{ Key, Val Value } {
	o := f.obj(h, v)
	out := make([]struct{ Key, Val Value }, 0, o.count)
	idxs := make([]int, 0, o.count)
	for i, c := range o.cells {
		if c.used {
			idxs = append(idxs, i)
		}
	}
	for i := 1; i < len(idxs); i++ {
		j := i
		for j > 0 && o.cells[idxs[j-1]].order > o.cells[idxs[j]].order {
			idxs[j-1], idxs[j] = idxs[j], idxs[j-1]
			j--
		}
	}
	for _, i := range idxs {
		out = append(out, struct{ Key, Val Value }{o.cells[i].key, o.cells[i].val})
	}
	return out
}

func (f mapForm) IsEqual(h HeapAccess, a, b Value) bool {
	ao, bo := f.obj(h, a), f.obj(h, b)
	if ao.count != bo.count {
		return false
	}
	for _, e := range f.Entries(h, a) {
		bv, ok := f.Lookup(h, b, e.Key)
		if !ok || !f.typ.Elem.IsEqual(h, e.Val, bv) {
			return false
		}
	}
	return true
}

// Cmp reports maps as unordered.
func (f mapForm) Cmp(h HeapAccess, a, b Value) (int, bool) { return 0, false }

func (f mapForm) Format(h HeapAccess, w io.Writer, v Value) (int, error) {
	total, err := io.WriteString(w, "{")
	if err != nil {
		return total, err
	}
	for i, e := range f.Entries(h, v) {
		if i > 0 {
			m, err := io.WriteString(w, ", ")
			total += m
			if err != nil {
				return total, err
			}
		}
		m, err := f.typ.Key.Format(h, w, e.Key)
		total += m
		if err != nil {
			return total, err
		}
		m, err = io.WriteString(w, ": ")
		total += m
		if err != nil {
			return total, err
		}
		m, err = f.typ.Elem.Format(h, w, e.Val)
		total += m
		if err != nil {
			return total, err
		}
	}
	m, err := io.WriteString(w, "}")
	total += m
	return total, err
}

// Hash combines entry hashes with an order-independent, associative and
// commutative combiner, same as arrayForm.Hash.
func (f mapForm) Hash(h HeapAccess, v Value) uint32 {
	o := f.obj(h, v)
	x := uint32(o.count) + 1
	for _, e := range f.Entries(h, v) {
		x ^= mixHash32(f.typ.Key.Hash(h, e.Key) ^ f.typ.Elem.Hash(h, e.Val))
	}
	return mixHash32(x)
}

// Fingerprint combines per-entry fingerprints with an order-independent
// XOR fold: unlike array/tuple, a map's insertion order is not part of
// its value (IsEqual ignores it), so Fingerprint (unlike Fingerprint for
// these other kinds) does not depend on it.
func (f mapForm) Fingerprint(h HeapAccess, v Value) uint64 {
	o := f.obj(h, v)
	fp := fingerprintSeed(KindMap)
	for _, e := range f.Entries(h, v) {
		entryFp := mixFingerprint64(f.typ.Key.Fingerprint(h, e.Key) ^ f.typ.Elem.Fingerprint(h, e.Val))
		fp ^= entryFp
	}
	_ = o
	return mixFingerprint64(fp)
}

func (f mapForm) Uniq(h HeapAccess, v Value) Value {
	o := f.obj(h, v)
	if o.Ref == 1 {
		return v
	}
	n := &MapObj{
		Header: Header{Form: f},
		Type:   o.Type,
		cells:  make([]mapCell, len(o.cells)),
		seed1:  o.seed1,
		seed2:  o.seed2,
		count:  o.count,
		nextOrd: o.nextOrd,
	}
	copy(n.cells, o.cells)
	for _, c := range n.cells {
		if c.used {
			if c.key.IsPtr() {
				h.Retain(c.key.Handle())
			}
			if c.val.IsPtr() {
				h.Retain(c.val.Handle())
			}
		}
	}
	nh := h.New(n)
	h.Release(v.Handle())
	return Ptr(nh)
}

func (f mapForm) Delete(h HeapAccess, v Value) {
	o := f.obj(h, v)
	for _, c := range o.cells {
		if c.used {
			if c.key.IsPtr() {
				h.Release(c.key.Handle())
			}
			if c.val.IsPtr() {
				h.Release(c.val.Handle())
			}
		}
	}
}

func (f mapForm) Children(h HeapAccess, obj Object, out []Handle) []Handle {
	o := obj.(*MapObj)
	for _, c := range o.cells {
		if c.used {
			if c.key.IsPtr() {
				out = append(out, c.key.Handle())
			}
			if c.val.IsPtr() {
				out = append(out, c.val.Handle())
			}
		}
	}
	return out
}

func (f mapForm) AdjustHeapPtrs(obj Object, remap map[Handle]Handle) {
	o := obj.(*MapObj)
	for i, c := range o.cells {
		if !c.used {
			continue
		}
		if c.key.IsPtr() {
			o.cells[i].key = Ptr(remap[c.key.Handle()])
		}
		if c.val.IsPtr() {
			o.cells[i].val = Ptr(remap[c.val.Handle()])
		}
	}
}

func (f mapForm) CheckHeapPtrs(h HeapAccess, obj Object) error {
	o := obj.(*MapObj)
	live := 0
	for _, c := range o.cells {
		if c.used {
			live++
			if c.key.IsPtr() && h.Resolve(c.key.Handle()) == nil {
				return fmt.Errorf("value: dangling map key handle %d", c.key.Handle())
			}
			if c.val.IsPtr() && h.Resolve(c.val.Handle()) == nil {
				return fmt.Errorf("value: dangling map value handle %d", c.val.Handle())
			}
		}
	}
	if live != o.count {
		return fmt.Errorf("value: map live cell count %d != count field %d", live, o.count)
	}
	return nil
}

package interp

import (
	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
)

// loadIndex reads container[index], dispatching on the container's runtime
// Kind: array element access, a byte read back as an Int, or a single-rune
// substring.
func loadIndex(p *proc.Process, container, index value.Value) value.Value {
	i := int(value.Int.AsInt(p.Heap, index))
	form := value.FormOfValue(p.Heap, container)
	switch form.Kind() {
	case value.KindArray:
		v := value.Array.At(p.Heap, container, i)
		if v.IsPtr() {
			p.Heap.Retain(v.Handle())
		}
		return v
	case value.KindBytes:
		data := value.Bytes.Bytes(p.Heap, container)
		if i < 0 || i >= len(data) {
			p.Heap.SetTrap("bytes index out of bounds")
			return value.Undef
		}
		return value.Smi(int64(data[i]))
	case value.KindString:
		n := value.String.RuneLen(p.Heap, container)
		if i < 0 || i >= n {
			p.Heap.SetTrap("string index out of bounds")
			return value.Undef
		}
		return value.String.Slice(p.Heap, container, i, i+1)
	default:
		p.Heap.SetTrap("not indexable")
		return value.Undef
	}
}

// storeIndex writes val into container[index] and returns the (possibly
// relocated, copy-on-write) container that callers must write back to
// wherever the container came from.
func storeIndex(p *proc.Process, container, index, val value.Value) value.Value {
	i := int(value.Int.AsInt(p.Heap, index))
	form := value.FormOfValue(p.Heap, container)
	switch form.Kind() {
	case value.KindArray:
		return value.Array.SetSlice(p.Heap, container, i, i+1, []value.Value{val})
	case value.KindBytes:
		b := byte(value.Int.AsInt(p.Heap, val))
		return value.Bytes.SetSlice(p.Heap, container, i, i+1, []byte{b})
	case value.KindString:
		return value.String.SetSlice(p.Heap, container, i, i+1, value.String.Str(p.Heap, val))
	default:
		p.Heap.SetTrap("not indexable")
		return value.Undef
	}
}

// incIndex adds delta to the integer element at container[index] in
// place, used by the compiler's lowering of `M[i] += delta`-shaped
// statements into a single opcode instead of load/add/store.
func incIndex(p *proc.Process, container, index, delta value.Value) value.Value {
	i := int(value.Int.AsInt(p.Heap, index))
	old := value.Array.At(p.Heap, container, i)
	var sum int64 // an undefined element counts as 0
	if !old.IsUndef() {
		sum = value.Int.AsInt(p.Heap, old)
	}
	sum += value.Int.AsInt(p.Heap, delta)
	return value.Array.SetSlice(p.Heap, container, i, i+1, []value.Value{value.Int.NewVal(p.Heap, sum)})
}

type tupleTyped interface {
	TupleType() *value.TupleType
}

// loadField reads slot i of a tuple container.
func loadField(p *proc.Process, container value.Value, i int) value.Value {
	form := value.FormOfValue(p.Heap, container)
	tt, ok := form.(tupleTyped)
	if !ok {
		p.Heap.SetTrap("not a tuple")
		return value.Undef
	}
	v := tt.TupleType().Get(p.Heap, container, i)
	if v.IsPtr() {
		p.Heap.Retain(v.Handle())
	}
	return v
}

// storeField writes val into slot i of a tuple container. Tuples mutate
// their own slots rather than relocating, so no updated container needs
// to be pushed back.
func storeField(p *proc.Process, container value.Value, i int, val value.Value) {
	form := value.FormOfValue(p.Heap, container)
	tt, ok := form.(tupleTyped)
	if !ok {
		p.Heap.SetTrap("not a tuple")
		return
	}
	tt.TupleType().Set(p.Heap, container, i, val)
}

// loadMap reads m[key], returning Undef and a trap if absent.
func loadMap(p *proc.Process, m, key value.Value) value.Value {
	form := value.FormOfValue(p.Heap, m)
	mt, ok := form.(interface {
		Lookup(value.HeapAccess, value.Value, value.Value) (value.Value, bool)
	})
	if !ok {
		p.Heap.SetTrap("not a map")
		return value.Undef
	}
	v, found := mt.Lookup(p.Heap, m, key)
	if !found {
		p.Heap.SetTrap("key not in map")
		return value.Undef
	}
	if v.IsPtr() {
		p.Heap.Retain(v.Handle())
	}
	return v
}

// storeMap sets m[key] = val in place (mapForm.Set mutates the MapObj
// directly; it never relocates the map handle).
func storeMap(p *proc.Process, m, key, val value.Value) {
	form := value.FormOfValue(p.Heap, m)
	mt, ok := form.(interface {
		Set(value.HeapAccess, value.Value, value.Value, value.Value)
	})
	if !ok {
		p.Heap.SetTrap("not a map")
		return
	}
	mt.Set(p.Heap, m, key, val)
}

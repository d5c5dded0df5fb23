package value

import (
	"bytes"
	"io"
)

// BytesObj is an indexable byte container. An owning object has Owner ==
// NoHandle, Origin == 0, and holds its storage directly in
// Data (whose capacity may exceed Length, reserved for growth-free
// shrink/grow in place); a slice object has Owner pointing directly at the
// (always owning) object that holds the data, Origin is its offset within
// that object's Data, and its own Data is nil. A slice is never chained
// through another slice: Slice always resolves to the ultimate owner first.
type BytesObj struct {
	Header
	Origin int
	Length int
	Owner  Handle
	Data   []byte
}

// Head implements [Object].
func (o *BytesObj) Head() *Header { return &o.Header }

// bytesForm is the Form for KindBytes.
type bytesForm struct{}

// Bytes is the global Form singleton for KindBytes.
var Bytes = bytesForm{}

func (bytesForm) Kind() Kind { return KindBytes }

// NewVal creates a new owning BytesObj by copying data.
func (bytesForm) NewVal(h HeapAccess, data []byte) Value {
	buf := make([]byte, len(data))
	copy(buf, data)
	obj := &BytesObj{Header: Header{Form: Bytes}, Length: len(buf), Data: buf}
	return Ptr(h.New(obj))
}

// NewValCap creates a new owning, filled BytesObj of the given length,
// mirroring `new(bytes, n, fill)`.
func (bytesForm) NewValCap(h HeapAccess, length int, fill byte) Value {
	buf := make([]byte, length)
	if fill != 0 {
		for i := range buf {
			buf[i] = fill
		}
	}
	obj := &BytesObj{Header: Header{Form: Bytes}, Length: length, Data: buf}
	return Ptr(h.New(obj))
}

func (bytesForm) obj(h HeapAccess, v Value) *BytesObj {
	return h.Resolve(v.Handle()).(*BytesObj)
}

// ownerHandle returns the handle of the object that actually owns v's
// storage (v itself, if v is already owning).
func ownerHandle(v Value, o *BytesObj) Handle {
	if o.Owner != NoHandle {
		return o.Owner
	}
	return v.Handle()
}

// Bytes returns the live byte range named by v.
func (f bytesForm) Bytes(h HeapAccess, v Value) []byte {
	o := f.obj(h, v)
	if o.Owner == NoHandle {
		return o.Data[:o.Length]
	}
	owner := h.Resolve(o.Owner).(*BytesObj)
	return owner.Data[o.Origin : o.Origin+o.Length]
}

func (f bytesForm) Len(h HeapAccess, v Value) int { return f.obj(h, v).Length }

// Slice returns a new BytesObj viewing [i, j) of v's storage, sharing
// storage with v's ultimate owner.
func (f bytesForm) Slice(h HeapAccess, v Value, i, j int) Value {
	o := f.obj(h, v)
	if i < 0 || j < i || j > o.Length {
		h.SetTrap("bytes slice index out of bounds")
		return Undef
	}
	oh := ownerHandle(v, o)
	base := 0
	if o.Owner != NoHandle {
		base = o.Origin
	}
	h.Retain(oh)
	slice := &BytesObj{
		Header: Header{Form: Bytes},
		Origin: base + i,
		Length: j - i,
		Owner:  oh,
	}
	return Ptr(h.New(slice))
}

func (f bytesForm) IsEqual(h HeapAccess, a, b Value) bool {
	return bytes.Equal(f.Bytes(h, a), f.Bytes(h, b))
}

func (f bytesForm) Cmp(h HeapAccess, a, b Value) (int, bool) {
	return bytes.Compare(f.Bytes(h, a), f.Bytes(h, b)), true
}

func (f bytesForm) Format(h HeapAccess, w io.Writer, v Value) (int, error) {
	return fprintBytesLiteral(w, f.Bytes(h, v))
}

func (f bytesForm) Hash(h HeapAccess, v Value) uint32 {
	data := f.Bytes(h, v)
	var x uint32 = 0x811c9dc5
	for _, b := range data {
		x ^= uint32(b)
		x *= 0x01000193
	}
	return mixHash32(x)
}

func (f bytesForm) Fingerprint(h HeapAccess, v Value) uint64 {
	data := f.Bytes(h, v)
	fp := fingerprintSeed(KindBytes)
	for _, b := range data {
		fp = mixFingerprint64(fp ^ uint64(b))
	}
	return fp
}

func (f bytesForm) Uniq(h HeapAccess, v Value) Value {
	o := f.obj(h, v)
	if o.Owner == NoHandle {
		if o.Ref == 1 {
			return v
		}
	} else {
		owner := h.Resolve(o.Owner).(*BytesObj)
		if owner.Ref == 1 && o.Ref == 1 {
			return v
		}
	}
	data := f.Bytes(h, v)
	cp := make([]byte, len(data))
	copy(cp, data)
	n := &BytesObj{Header: Header{Form: Bytes}, Length: len(cp), Data: cp}
	nh := h.New(n)
	h.Release(v.Handle())
	return Ptr(nh)
}

func (f bytesForm) Delete(h HeapAccess, v Value) {
	o := f.obj(h, v)
	if o.Owner != NoHandle {
		h.Release(o.Owner)
	}
}

func (f bytesForm) Children(h HeapAccess, obj Object, out []Handle) []Handle {
	o := obj.(*BytesObj)
	if o.Owner != NoHandle {
		out = append(out, o.Owner)
	}
	return out
}

func (f bytesForm) AdjustHeapPtrs(obj Object, remap map[Handle]Handle) {
	o := obj.(*BytesObj)
	if o.Owner != NoHandle {
		o.Owner = remap[o.Owner]
	}
}

func (f bytesForm) CheckHeapPtrs(h HeapAccess, obj Object) error {
	o := obj.(*BytesObj)
	if o.Owner != NoHandle {
		owner, ok := h.Resolve(o.Owner).(*BytesObj)
		if !ok {
			return errBadOwner
		}
		if o.Origin < 0 || o.Origin+o.Length > len(owner.Data) {
			return errOutOfBounds
		}
	}
	return nil
}

// SetSlice implements the indexable mutation protocol: uniq, then
// fit/relocate/reallocate. repl replaces v[i:j]. Returns the (possibly new)
// value, which the caller must store back wherever v came from.
func (f bytesForm) SetSlice(h HeapAccess, v Value, i, j int, repl []byte) Value {
	v = f.Uniq(h, v)
	o := f.obj(h, v)
	if i < 0 || j < i || j > o.Length {
		h.SetTrap("bytes slice assignment out of bounds")
		return v
	}
	oldLen := o.Length
	newLen := oldLen - (j - i) + len(repl)

	if len(repl) == j-i {
		// Same length: overwrite in place.
		dst := f.Bytes(h, v)
		copy(dst[i:j], repl)
		return v
	}

	if o.Owner == NoHandle {
		if newLen <= cap(o.Data) {
			// Shift suffix within existing owner capacity.
			suffix := append([]byte(nil), o.Data[j:oldLen]...)
			o.Data = o.Data[:newLen]
			copy(o.Data[i:], repl)
			copy(o.Data[i+len(repl):], suffix)
			o.Length = newLen
			return v
		}
	}

	// Reallocate a fresh owner.
	buf := make([]byte, newLen)
	old := f.Bytes(h, v)
	copy(buf, old[:i])
	copy(buf[i:], repl)
	copy(buf[i+len(repl):], old[j:oldLen])
	if o.Owner != NoHandle {
		h.Release(o.Owner)
		o.Owner = NoHandle
	}
	o.Origin = 0
	o.Length = newLen
	o.Data = buf
	return v
}

func fprintBytesLiteral(w io.Writer, data []byte) (int, error) {
	const hexdigits = "0123456789abcdef"
	buf := make([]byte, 0, len(data)*2+2)
	buf = append(buf, 'x', '"')
	for _, b := range data {
		buf = append(buf, hexdigits[b>>4], hexdigits[b&0xf])
	}
	buf = append(buf, '"')
	return w.Write(buf)
}

// fingerprintSeed returns a per-kind seed so that empty containers of
// different kinds (and an empty container vs. an unrelated scalar) have
// distinct, non-zero fingerprints.
func fingerprintSeed(k Kind) uint64 {
	return mixFingerprint64(uint64(k)*0x9E3779B97F4A7C15 + 1)
}

package value

import (
	"io"
	"strings"
	"unicode/utf8"
)

// StringObj is an indexable UTF-8 string container, with the same
// owner/slice discipline as [BytesObj] plus a rune count and a single
// (lastRuneIndex -> lastByteOffset) cache used to make rune-indexed access
// amortized O(1) for typical left-to-right scans.
type StringObj struct {
	Header
	Origin int
	Length int // in bytes
	Owner  Handle
	Data   []byte // valid only when Owner == NoHandle

	Runes      int // rune count (cached at construction / mutation)
	cacheIndex int // last rune index queried
	cacheByte  int // corresponding byte offset
	ascii      bool
}

// Head implements [Object].
func (o *StringObj) Head() *Header { return &o.Header }

type stringForm struct{}

// String is the global Form singleton for KindString.
var String = stringForm{}

func (stringForm) Kind() Kind { return KindString }

// NewVal creates an owning StringObj from s.
func (stringForm) NewVal(h HeapAccess, s string) Value {
	data := []byte(s)
	ascii := isASCII(data)
	n := utf8.RuneCount(data)
	obj := &StringObj{
		Header: Header{Form: String},
		Length: len(data),
		Data:   data,
		Runes:  n,
		ascii:  ascii,
	}
	return Ptr(h.New(obj))
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

func (stringForm) obj(h HeapAccess, v Value) *StringObj {
	return h.Resolve(v.Handle()).(*StringObj)
}

// Bytes returns the live UTF-8 byte range named by v.
func (f stringForm) Bytes(h HeapAccess, v Value) []byte {
	o := f.obj(h, v)
	if o.Owner == NoHandle {
		return o.Data[:o.Length]
	}
	owner := h.Resolve(o.Owner).(*StringObj)
	return owner.Data[o.Origin : o.Origin+o.Length]
}

// Str returns v's contents as a Go string (copies).
func (f stringForm) Str(h HeapAccess, v Value) string { return string(f.Bytes(h, v)) }

func (f stringForm) RuneLen(h HeapAccess, v Value) int { return f.obj(h, v).Runes }

func (f stringForm) ByteLen(h HeapAccess, v Value) int { return f.obj(h, v).Length }

// ByteOffset translates a rune index into a byte offset within v, using and
// updating the (lastRuneIndex -> lastByteOffset) cache: it walks forward or
// backward from the nearest of {0, cache, end}.
func (f stringForm) ByteOffset(h HeapAccess, v Value, runeIdx int) int {
	o := f.obj(h, v)
	if o.ascii {
		return runeIdx
	}
	data := f.Bytes(h, v)
	if runeIdx == 0 {
		return 0
	}
	if runeIdx == o.Runes {
		return len(data)
	}

	// Candidates: start, cache, end. Pick whichever needs the fewest rune
	// steps.
	type anchor struct {
		idx, off int
	}
	best := anchor{0, 0}
	bestDist := runeIdx
	if d := abs(runeIdx - o.Runes); d < bestDist {
		best, bestDist = anchor{o.Runes, len(data)}, d
	}
	if o.cacheIndex != 0 || o.cacheByte != 0 {
		if d := abs(runeIdx - o.cacheIndex); d < bestDist {
			best, bestDist = anchor{o.cacheIndex, o.cacheByte}, d
		}
	}

	off := best.off
	idx := best.idx
	for idx < runeIdx {
		_, sz := utf8.DecodeRune(data[off:])
		off += sz
		idx++
	}
	for idx > runeIdx {
		idx--
		r := off
		for r > 0 {
			r--
			if !isUTF8Continuation(data[r]) {
				break
			}
		}
		off = r
	}
	o.cacheIndex, o.cacheByte = runeIdx, off
	return off
}

func isUTF8Continuation(b byte) bool { return b&0xC0 == 0x80 }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Slice returns a new StringObj viewing runes [i, j) of v.
func (f stringForm) Slice(h HeapAccess, v Value, i, j int) Value {
	o := f.obj(h, v)
	if i < 0 || j < i || j > o.Runes {
		h.SetTrap("string slice index out of bounds")
		return Undef
	}
	bi := f.ByteOffset(h, v, i)
	bj := f.ByteOffset(h, v, j)
	oh := ownerHandleString(v, o)
	base := 0
	if o.Owner != NoHandle {
		base = o.Origin
	}
	h.Retain(oh)
	slice := &StringObj{
		Header: Header{Form: String},
		Origin: base + bi,
		Length: bj - bi,
		Owner:  oh,
		Runes:  j - i,
		ascii:  o.ascii,
	}
	return Ptr(h.New(slice))
}

func ownerHandleString(v Value, o *StringObj) Handle {
	if o.Owner != NoHandle {
		return o.Owner
	}
	return v.Handle()
}

func (f stringForm) IsEqual(h HeapAccess, a, b Value) bool {
	return string(f.Bytes(h, a)) == string(f.Bytes(h, b))
}

func (f stringForm) Cmp(h HeapAccess, a, b Value) (int, bool) {
	return strings.Compare(string(f.Bytes(h, a)), string(f.Bytes(h, b))), true
}

func (f stringForm) Format(h HeapAccess, w io.Writer, v Value) (int, error) {
	return io.WriteString(w, strQuote(f.Str(h, v)))
}

func strQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func (f stringForm) Hash(h HeapAccess, v Value) uint32 {
	data := f.Bytes(h, v)
	var x uint32 = 0x811c9dc5
	for _, b := range data {
		x ^= uint32(b)
		x *= 0x01000193
	}
	return mixHash32(x ^ 0x2545F491)
}

func (f stringForm) Fingerprint(h HeapAccess, v Value) uint64 {
	data := f.Bytes(h, v)
	fp := fingerprintSeed(KindString)
	for _, b := range data {
		fp = mixFingerprint64(fp ^ uint64(b))
	}
	return fp
}

func (f stringForm) Uniq(h HeapAccess, v Value) Value {
	o := f.obj(h, v)
	if o.Owner == NoHandle {
		if o.Ref == 1 {
			return v
		}
	} else {
		owner := h.Resolve(o.Owner).(*StringObj)
		if owner.Ref == 1 && o.Ref == 1 {
			return v
		}
	}
	data := append([]byte(nil), f.Bytes(h, v)...)
	n := &StringObj{Header: Header{Form: String}, Length: len(data), Data: data, Runes: o.Runes, ascii: o.ascii}
	nh := h.New(n)
	h.Release(v.Handle())
	return Ptr(nh)
}

func (f stringForm) Delete(h HeapAccess, v Value) {
	o := f.obj(h, v)
	if o.Owner != NoHandle {
		h.Release(o.Owner)
	}
}

func (f stringForm) Children(h HeapAccess, obj Object, out []Handle) []Handle {
	o := obj.(*StringObj)
	if o.Owner != NoHandle {
		out = append(out, o.Owner)
	}
	return out
}

func (f stringForm) AdjustHeapPtrs(obj Object, remap map[Handle]Handle) {
	o := obj.(*StringObj)
	if o.Owner != NoHandle {
		o.Owner = remap[o.Owner]
	}
}

func (f stringForm) CheckHeapPtrs(h HeapAccess, obj Object) error {
	o := obj.(*StringObj)
	if o.Owner != NoHandle {
		owner, ok := h.Resolve(o.Owner).(*StringObj)
		if !ok {
			return errBadOwner
		}
		if o.Origin < 0 || o.Origin+o.Length > len(owner.Data) {
			return errOutOfBounds
		}
	}
	return nil
}

// SetSlice implements the indexable mutation protocol for strings: rune
// indices i, j are translated to byte bounds via ByteOffset, then it is the
// same fit/relocate/reallocate discipline as [bytesForm.SetSlice]. The rune
// cache is reset on every mutation.
func (f stringForm) SetSlice(h HeapAccess, v Value, i, j int, repl string) Value {
	v = f.Uniq(h, v)
	o := f.obj(h, v)
	if i < 0 || j < i || j > o.Runes {
		h.SetTrap("string slice assignment out of bounds")
		return v
	}
	bi := f.ByteOffset(h, v, i)
	bj := f.ByteOffset(h, v, j)
	replBytes := []byte(repl)
	replRunes := utf8.RuneCount(replBytes)

	oldByteLen := o.Length
	newByteLen := oldByteLen - (bj - bi) + len(replBytes)

	if o.Owner == NoHandle && newByteLen <= cap(o.Data) {
		suffix := append([]byte(nil), o.Data[bj:oldByteLen]...)
		o.Data = o.Data[:newByteLen]
		copy(o.Data[bi:], replBytes)
		copy(o.Data[bi+len(replBytes):], suffix)
	} else {
		buf := make([]byte, newByteLen)
		old := f.Bytes(h, v)
		copy(buf, old[:bi])
		copy(buf[bi:], replBytes)
		copy(buf[bi+len(replBytes):], old[bj:oldByteLen])
		if o.Owner != NoHandle {
			h.Release(o.Owner)
			o.Owner = NoHandle
		}
		o.Origin = 0
		o.Data = buf
	}
	o.Length = newByteLen
	o.Runes = o.Runes - (j - i) + replRunes
	o.ascii = o.ascii && isASCII(replBytes)
	o.cacheIndex, o.cacheByte = 0, 0
	return v
}

package value

import (
	"fmt"
	"io"
	"math"
)

// Basic64Obj is the common heap layout for every scalar kind whose payload
// is a single 64-bit word: bool, uint, float, time, fingerprint, and boxed
// (non-smi) int.
type Basic64Obj struct {
	Header
	Bits uint64
}

// Head implements [Object].
func (o *Basic64Obj) Head() *Header { return &o.Header }

func newBasic64(h HeapAccess, kind Kind, bits uint64) Value {
	obj := &Basic64Obj{Header: Header{Form: formFor(kind)}, Bits: bits}
	return Ptr(h.New(obj))
}

func basic64Bits(h HeapAccess, v Value) uint64 {
	if v.IsSmi() {
		return uint64(v.AsSmi())
	}
	obj := h.Resolve(v.Handle()).(*Basic64Obj)
	return obj.Bits
}

func formFor(k Kind) Form {
	switch k {
	case KindBool:
		return boolFormImpl
	case KindInt:
		return intFormImpl
	case KindUint:
		return uintFormImpl
	case KindFloat:
		return floatFormImpl
	case KindTime:
		return timeFormImpl
	case KindFingerprint:
		return fingerprintFormImpl
	default:
		panic("value: formFor: not a basic64 kind")
	}
}

// basic64Form centralizes the boilerplate shared by every fixed-width
// scalar form: the only things that vary between bool/uint/float/time/
// fingerprint are how the 64 bits are compared, formatted, and seeded for
// hashing/fingerprinting.
type basic64Form struct {
	kind     Kind
	cmp      func(a, b uint64) (int, bool)
	format   func(w io.Writer, bits uint64) (int, error)
	hashSeed uint32
	fpSeed   uint64
}

func (f basic64Form) Kind() Kind { return f.kind }

func (f basic64Form) IsEqual(h HeapAccess, a, b Value) bool {
	return basic64Bits(h, a) == basic64Bits(h, b)
}

func (f basic64Form) Cmp(h HeapAccess, a, b Value) (int, bool) {
	return f.cmp(basic64Bits(h, a), basic64Bits(h, b))
}

func (f basic64Form) Format(h HeapAccess, w io.Writer, v Value) (int, error) {
	return f.format(w, basic64Bits(h, v))
}

func (f basic64Form) Hash(h HeapAccess, v Value) uint32 {
	bits := basic64Bits(h, v)
	x := uint32(bits) ^ uint32(bits>>32)
	return mixHash32(x ^ f.hashSeed)
}

func (f basic64Form) Fingerprint(h HeapAccess, v Value) uint64 {
	return mixFingerprint64(basic64Bits(h, v) ^ f.fpSeed)
}

func (f basic64Form) Uniq(h HeapAccess, v Value) Value {
	// Smis never need copying; a boxed basic64 whose Ref is not exactly 1
	// (shared, or read-only) is copied.
	if v.IsSmi() {
		return v
	}
	obj := h.Resolve(v.Handle()).(*Basic64Obj)
	if obj.Ref == 1 {
		return v
	}
	cp := &Basic64Obj{Header: Header{Form: obj.Form}, Bits: obj.Bits}
	nh := h.New(cp)
	h.Release(v.Handle())
	return Ptr(nh)
}

func (f basic64Form) Delete(h HeapAccess, v Value) {}

func (f basic64Form) Children(h HeapAccess, obj Object, out []Handle) []Handle { return out }

func (f basic64Form) AdjustHeapPtrs(obj Object, remap map[Handle]Handle) {}

func (f basic64Form) CheckHeapPtrs(h HeapAccess, obj Object) error { return nil }

// --- concrete forms ---

// BoolForm is the Form for KindBool.
type BoolForm struct{ basic64Form }

// NewVal boxes a bool. Bools always occupy a heap object of their own,
// never an inline smi.
func (BoolForm) NewVal(h HeapAccess, b bool) Value {
	var bits uint64
	if b {
		bits = 1
	}
	return newBasic64(h, KindBool, bits)
}

func (f BoolForm) AsBool(h HeapAccess, v Value) bool { return basic64Bits(h, v) != 0 }

var boolFormImpl = BoolForm{basic64Form{
	kind: KindBool,
	cmp: func(a, b uint64) (int, bool) {
		switch {
		case a == b:
			return 0, true
		case a < b:
			return -1, true
		default:
			return 1, true
		}
	},
	format: func(w io.Writer, bits uint64) (int, error) {
		if bits != 0 {
			return io.WriteString(w, "true")
		}
		return io.WriteString(w, "false")
	},
	hashSeed: 0x6d325ccd,
	fpSeed:   0x9b6b3f6f7a5a1a23,
}}

// IntForm is the Form for KindInt. Small values live inline as smis; large
// ones are boxed the same way as the other basic64 kinds.
type IntForm struct{ basic64Form }

var intFormImpl = IntForm{basic64Form{
	kind: KindInt,
	cmp: func(a, b uint64) (int, bool) {
		x, y := int64(a), int64(b)
		switch {
		case x == y:
			return 0, true
		case x < y:
			return -1, true
		default:
			return 1, true
		}
	},
	format: func(w io.Writer, bits uint64) (int, error) {
		return fmt.Fprintf(w, "%d", int64(bits))
	},
	hashSeed: 0x27d4eb2f,
	fpSeed:   0xc2b2ae3d27d4eb4f,
}}

// NewVal creates an int value, inlining it as a smi when it fits.
func (IntForm) NewVal(h HeapAccess, x int64) Value {
	if FitsSmi(x) {
		return Smi(x)
	}
	return newBasic64(h, KindInt, uint64(x))
}

func (f IntForm) AsInt(h HeapAccess, v Value) int64 {
	if v.IsSmi() {
		return v.AsSmi()
	}
	return int64(basic64Bits(h, v))
}

// IsEqual/Cmp/Hash/Fingerprint must route smis and boxed ints through the
// same bit pattern, which basic64Bits already does; override Uniq because a
// smi never needs a copy and is never "shared" in the refcount sense.
func (f IntForm) Uniq(h HeapAccess, v Value) Value { return f.basic64Form.Uniq(h, v) }

// UintForm is the Form for KindUint.
type UintForm struct{ basic64Form }

var uintFormImpl = UintForm{basic64Form{
	kind: KindUint,
	cmp: func(a, b uint64) (int, bool) {
		switch {
		case a == b:
			return 0, true
		case a < b:
			return -1, true
		default:
			return 1, true
		}
	},
	format: func(w io.Writer, bits uint64) (int, error) {
		return fmt.Fprintf(w, "%d", bits)
	},
	hashSeed: 0x165667b1,
	fpSeed:   0x27d4eb2f165667b1,
}}

func (UintForm) NewVal(h HeapAccess, x uint64) Value { return newBasic64(h, KindUint, x) }

func (f UintForm) AsUint(h HeapAccess, v Value) uint64 { return basic64Bits(h, v) }

// FloatForm is the Form for KindFloat. Cmp follows IEEE-754 total ordering
// for the usual case and reports unordered (ok=false) for any comparison
// involving NaN, including against itself.
type FloatForm struct{ basic64Form }

var floatFormImpl = FloatForm{basic64Form{
	kind: KindFloat,
	cmp: func(a, b uint64) (int, bool) {
		x, y := math.Float64frombits(a), math.Float64frombits(b)
		if math.IsNaN(x) || math.IsNaN(y) {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case x < y:
			return -1, true
		default:
			return 1, true
		}
	},
	format: func(w io.Writer, bits uint64) (int, error) {
		return fmt.Fprintf(w, "%g", math.Float64frombits(bits))
	},
	hashSeed: 0x85ebca6b,
	fpSeed:   0x165667b185ebca6b,
}}

func (FloatForm) NewVal(h HeapAccess, x float64) Value {
	return newBasic64(h, KindFloat, math.Float64bits(x))
}

func (f FloatForm) AsFloat(h HeapAccess, v Value) float64 {
	return math.Float64frombits(basic64Bits(h, v))
}

// TimeForm is the Form for KindTime: a signed microsecond count since the
// epoch, ordered and equality-compared as an int64.
type TimeForm struct{ basic64Form }

var timeFormImpl = TimeForm{basic64Form{
	kind: KindTime,
	cmp: func(a, b uint64) (int, bool) {
		x, y := int64(a), int64(b)
		switch {
		case x == y:
			return 0, true
		case x < y:
			return -1, true
		default:
			return 1, true
		}
	},
	format: func(w io.Writer, bits uint64) (int, error) {
		return fmt.Fprintf(w, "%d", int64(bits))
	},
	hashSeed: 0x1b873593,
	fpSeed:   0x85ebca6b1b873593,
}}

func (TimeForm) NewVal(h HeapAccess, microseconds int64) Value {
	return newBasic64(h, KindTime, uint64(microseconds))
}

func (f TimeForm) AsTime(h HeapAccess, v Value) int64 { return int64(basic64Bits(h, v)) }

// FingerprintForm is the Form for KindFingerprint: an opaque, totally
// ordered 64-bit value.
type FingerprintForm struct{ basic64Form }

var fingerprintFormImpl = FingerprintForm{basic64Form{
	kind: KindFingerprint,
	cmp: func(a, b uint64) (int, bool) {
		switch {
		case a == b:
			return 0, true
		case a < b:
			return -1, true
		default:
			return 1, true
		}
	},
	format: func(w io.Writer, bits uint64) (int, error) {
		return fmt.Fprintf(w, "%#016x", bits)
	},
	hashSeed: 0xc2b2ae35,
	fpSeed:   0x1b873593c2b2ae35,
}}

func (FingerprintForm) NewVal(h HeapAccess, fp uint64) Value {
	return newBasic64(h, KindFingerprint, fp)
}

func (f FingerprintForm) AsFingerprint(h HeapAccess, v Value) uint64 { return basic64Bits(h, v) }

// mixHash32 is a small avalanche finisher (murmur3-style) used by every
// scalar Hash implementation.
func mixHash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x85ebca6b
	x ^= x >> 13
	x *= 0xc2b2ae35
	x ^= x >> 16
	return x
}

// mixFingerprint64 is the finisher used by every scalar Fingerprint
// implementation; it is also the per-element step used by compound forms
// to fold in each element's own fingerprint.
func mixFingerprint64(x uint64) uint64 {
	const prime = 0x9E3779B97F4A7C15
	x ^= x >> 33
	x *= prime
	x ^= x >> 29
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 32
	return x
}

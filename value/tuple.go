package value

import (
	"fmt"
	"io"
)

// WireKind names the protobuf wire-format category a field's scalar value
// is encoded as, independent of its Kind (e.g. a float field can be wire
// Fixed32 or, boxed as a double, Fixed64).
type WireKind int

const (
	WireVarint WireKind = iota
	WireFixed32
	WireFixed64
	WireBytes // length-delimited: bytes, string, nested message, or packed repeated
)

// FieldDesc describes one field of a [TupleType]: its declared Kind, the
// Form used to operate on values stored in its slot (or on one element of
// it, when Repeated), its wire tag if the owning type is a proto tuple (0
// otherwise), its wire encoding category, whether it is `repeated`
// (array-typed slot), whether a message field is length-delimited
// ("message") vs. start/end-tagged ("group"), and the read-only default
// value filled in when the field is absent from the wire.
type FieldDesc struct {
	Name      string
	Kind      Kind
	Form      Form
	Tag       int // proto field number; 0 if this tuple is not a proto type
	Wire      WireKind
	Repeated  bool // proto field is `repeated` (array-typed slot)
	IsMessage bool // nested tuple field uses length-delimited wire encoding; false means group
	Default   Value
}

// TupleType is the type descriptor for a tuple: an ordered field list, a
// sparse tag->field-index map for proto tuples, and a pre-built read-only
// default tuple used to fill absent fields after a protobuf decode.
type TupleType struct {
	Name     string
	Fields   []FieldDesc
	TagIndex map[int]int // proto tag -> field/slot index
	IsProto  bool
	Default  Value // read-only TupleObj; Undef until built by NewTupleType
	form     tupleForm
}

// NewTupleType builds a TupleType and its read-only default tuple. fields
// must already carry each FieldDesc.Default for scalar fields; a nested
// tuple field defaults to its nested type's own Default, and an empty
// array/map field defaults to a fresh empty container, both assigned here
// by the caller before NewTupleType walks the field list.
func NewTupleType(h HeapAccess, name string, isProto bool, fields []FieldDesc) *TupleType {
	t := &TupleType{Name: name, Fields: fields, IsProto: isProto}
	t.form = tupleForm{typ: t}
	if isProto {
		t.TagIndex = make(map[int]int, len(fields))
		for i, f := range fields {
			if f.Tag != 0 {
				t.TagIndex[f.Tag] = i
			}
		}
	}
	slots := make([]Value, len(fields))
	for i, f := range fields {
		slots[i] = f.Default
	}
	obj := &TupleObj{
		Header:  Header{Form: t.form},
		Type:    t,
		Slots:   slots,
		InProto: NewBitset(len(fields)),
	}
	for _, s := range slots {
		if s.IsPtr() {
			h.Retain(s.Handle())
		}
	}
	t.Default = Ptr(h.NewReadOnly(obj))
	return t
}

// Form returns the Form for values of this tuple type.
func (t *TupleType) Form() Form { return t.form }

// TupleType returns the type this Form was built for, letting generic code
// (e.g. the proto wire codec) recover a nested message field's element
// type from its FieldDesc.Form.
func (f tupleForm) TupleType() *TupleType { return f.typ }

// NewVal creates a new owning tuple value of this type with every field at
// its default and no in-proto bits set.
func (t *TupleType) NewVal(h HeapAccess) Value { return t.form.NewVal(h) }

// Get returns slot i's value.
func (t *TupleType) Get(h HeapAccess, v Value, i int) Value { return t.form.Get(h, v, i) }

// InProto reports whether slot i was set from the wire or by assignment.
func (t *TupleType) InProto(h HeapAccess, v Value, i int) bool { return t.form.InProto(h, v, i) }

// Set assigns slot i and marks it in-proto.
func (t *TupleType) Set(h HeapAccess, v Value, i int, val Value) { t.form.Set(h, v, i, val) }

// ClearProto clears every in-proto bit, resetting every slot to its field
// default.
func (t *TupleType) ClearProto(h HeapAccess, v Value) { t.form.ClearProto(h, v) }

// FieldIndex returns the slot index for a proto tag, or (-1, false).
func (t *TupleType) FieldIndex(tag int) (int, bool) {
	i, ok := t.TagIndex[tag]
	return i, ok
}

// TupleObj is a heap tuple value: a field-indexed slot array plus a
// contiguous in-proto bit vector flagging which slots were set from the
// wire (or by explicit assignment) rather than left at their default.
type TupleObj struct {
	Header
	Type    *TupleType
	Slots   []Value
	InProto Bitset
}

// Head implements [Object].
func (o *TupleObj) Head() *Header { return &o.Header }

type tupleForm struct{ typ *TupleType }

func (f tupleForm) Kind() Kind { return KindTuple }

// NewVal creates a new owning TupleObj with every slot set to its field's
// default and no in-proto bits set.
func (f tupleForm) NewVal(h HeapAccess) Value {
	slots := make([]Value, len(f.typ.Fields))
	for i, fd := range f.typ.Fields {
		slots[i] = fd.Default
		if slots[i].IsPtr() {
			h.Retain(slots[i].Handle())
		}
	}
	obj := &TupleObj{Header: Header{Form: f}, Type: f.typ, Slots: slots, InProto: NewBitset(len(slots))}
	return Ptr(h.New(obj))
}

func (f tupleForm) obj(h HeapAccess, v Value) *TupleObj {
	return h.Resolve(v.Handle()).(*TupleObj)
}

// Get returns slot i's value.
func (f tupleForm) Get(h HeapAccess, v Value, i int) Value { return f.obj(h, v).Slots[i] }

// InProto reports whether slot i was set from the wire (or by explicit
// assignment).
func (f tupleForm) InProto(h HeapAccess, v Value, i int) bool {
	return f.obj(h, v).InProto.Get(i)
}

// Set assigns slot i, adjusting refcounts, and sets its in-proto bit.
func (f tupleForm) Set(h HeapAccess, v Value, i int, val Value) {
	o := f.obj(h, v)
	old := o.Slots[i]
	if val.IsPtr() {
		h.Retain(val.Handle())
	}
	o.Slots[i] = val
	o.InProto.Set(i)
	if old.IsPtr() {
		h.Release(old.Handle())
	}
}

// ClearProto clears every in-proto bit (the `clearproto` opcode), resetting
// every slot to its field default.
func (f tupleForm) ClearProto(h HeapAccess, v Value) {
	o := f.obj(h, v)
	for i, fd := range f.typ.Fields {
		old := o.Slots[i]
		if fd.Default.IsPtr() {
			h.Retain(fd.Default.Handle())
		}
		o.Slots[i] = fd.Default
		if old.IsPtr() {
			h.Release(old.Handle())
		}
	}
	o.InProto.ClearAll()
}

func (f tupleForm) IsEqual(h HeapAccess, a, b Value) bool {
	ao, bo := f.obj(h, a), f.obj(h, b)
	if ao.Type != bo.Type {
		return false
	}
	for i, fd := range f.typ.Fields {
		if !fd.Form.IsEqual(h, ao.Slots[i], bo.Slots[i]) {
			return false
		}
	}
	return true
}

func (f tupleForm) Cmp(h HeapAccess, a, b Value) (int, bool) {
	ao, bo := f.obj(h, a), f.obj(h, b)
	for i, fd := range f.typ.Fields {
		sign, ok := fd.Form.Cmp(h, ao.Slots[i], bo.Slots[i])
		if !ok {
			return 0, false
		}
		if sign != 0 {
			return sign, true
		}
	}
	_ = bo
	return 0, true
}

func (f tupleForm) Format(h HeapAccess, w io.Writer, v Value) (int, error) {
	o := f.obj(h, v)
	total, err := io.WriteString(w, "{")
	if err != nil {
		return total, err
	}
	for i, fd := range f.typ.Fields {
		if i > 0 {
			m, err := io.WriteString(w, ", ")
			total += m
			if err != nil {
				return total, err
			}
		}
		m, err := fmt.Fprintf(w, "%s: ", fd.Name)
		total += m
		if err != nil {
			return total, err
		}
		m, err = fd.Form.Format(h, w, o.Slots[i])
		total += m
		if err != nil {
			return total, err
		}
	}
	m, err := io.WriteString(w, "}")
	total += m
	return total, err
}

// Hash combines field hashes with an order-independent, associative and
// commutative combiner, matching arrayForm.Hash.
func (f tupleForm) Hash(h HeapAccess, v Value) uint32 {
	o := f.obj(h, v)
	x := uint32(len(o.Slots)) + 1
	for i := range f.typ.Fields {
		x ^= mixHash32(f.typ.Fields[i].Form.Hash(h, o.Slots[i]))
	}
	return mixHash32(x)
}

func (f tupleForm) Fingerprint(h HeapAccess, v Value) uint64 {
	o := f.obj(h, v)
	fp := fingerprintSeed(KindTuple)
	for i, fd := range f.typ.Fields {
		fp = mixFingerprint64(fp ^ fd.Form.Fingerprint(h, o.Slots[i]))
	}
	return fp
}

func (f tupleForm) Uniq(h HeapAccess, v Value) Value {
	o := f.obj(h, v)
	if o.Ref == 1 {
		return v
	}
	slots := make([]Value, len(o.Slots))
	copy(slots, o.Slots)
	for _, s := range slots {
		if s.IsPtr() {
			h.Retain(s.Handle())
		}
	}
	n := &TupleObj{Header: Header{Form: f}, Type: o.Type, Slots: slots, InProto: o.InProto.Clone()}
	nh := h.New(n)
	h.Release(v.Handle())
	return Ptr(nh)
}

func (f tupleForm) Delete(h HeapAccess, v Value) {
	o := f.obj(h, v)
	for _, s := range o.Slots {
		if s.IsPtr() {
			h.Release(s.Handle())
		}
	}
}

func (f tupleForm) Children(h HeapAccess, obj Object, out []Handle) []Handle {
	o := obj.(*TupleObj)
	for _, s := range o.Slots {
		if s.IsPtr() {
			out = append(out, s.Handle())
		}
	}
	return out
}

func (f tupleForm) AdjustHeapPtrs(obj Object, remap map[Handle]Handle) {
	o := obj.(*TupleObj)
	for i, s := range o.Slots {
		if s.IsPtr() {
			o.Slots[i] = Ptr(remap[s.Handle()])
		}
	}
}

func (f tupleForm) CheckHeapPtrs(h HeapAccess, obj Object) error {
	o := obj.(*TupleObj)
	if len(o.Slots) != len(f.typ.Fields) {
		return fmt.Errorf("value: tuple %s slot count %d != field count %d", f.typ.Name, len(o.Slots), len(f.typ.Fields))
	}
	for _, s := range o.Slots {
		if s.IsPtr() && h.Resolve(s.Handle()) == nil {
			return fmt.Errorf("value: dangling tuple slot handle %d", s.Handle())
		}
	}
	return nil
}

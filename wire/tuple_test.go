package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
	"github.com/google/szl-sub000/wire"
)

func personType(h value.HeapAccess) *value.TupleType {
	fields := []value.FieldDesc{
		{Name: "id", Kind: value.KindInt, Form: value.Int, Tag: 1, Wire: value.WireVarint, Default: value.Smi(0)},
		{Name: "name", Kind: value.KindString, Form: value.String, Tag: 2, Wire: value.WireBytes, Default: value.String.NewVal(h, "")},
	}
	return value.NewTupleType(h, "Person", true, fields)
}

func TestWriteThenReadTupleRoundTrips(t *testing.T) {
	p := proc.New()
	typ := personType(p.Heap)

	v := typ.NewVal(p.Heap)
	typ.Set(p.Heap, v, 0, value.Smi(7))
	typ.Set(p.Heap, v, 1, value.String.NewVal(p.Heap, "ada"))

	data := wire.WriteTuple(p, typ, v, nil)
	require.NotEmpty(t, data)

	got, err := wire.ReadTuple(p, typ, data)
	require.NoError(t, err)

	assert.Equal(t, int64(7), value.Int.AsInt(p.Heap, typ.Get(p.Heap, got, 0)))
	assert.Equal(t, "ada", value.String.Str(p.Heap, typ.Get(p.Heap, got, 1)))
	assert.True(t, typ.InProto(p.Heap, got, 0))
	assert.True(t, typ.InProto(p.Heap, got, 1))
}

func TestReadTupleFillsDefaultsForAbsentFields(t *testing.T) {
	p := proc.New()
	typ := personType(p.Heap)

	v := typ.NewVal(p.Heap)
	typ.Set(p.Heap, v, 0, value.Smi(99))
	data := wire.WriteTuple(p, typ, v, nil)

	got, err := wire.ReadTuple(p, typ, data)
	require.NoError(t, err)

	assert.False(t, typ.InProto(p.Heap, got, 1))
	assert.Equal(t, "", value.String.Str(p.Heap, typ.Get(p.Heap, got, 1)))
}

func TestReadTupleStrictModeRejectsUnknownField(t *testing.T) {
	p := proc.New(proc.WithStrictProto(true))
	typ := personType(p.Heap)

	other := value.NewTupleType(p.Heap, "Other", true, []value.FieldDesc{
		{Name: "id", Kind: value.KindInt, Form: value.Int, Tag: 1, Wire: value.WireVarint, Default: value.Smi(0)},
		{Name: "extra", Kind: value.KindInt, Form: value.Int, Tag: 3, Wire: value.WireVarint, Default: value.Smi(0)},
	})
	v := other.NewVal(p.Heap)
	other.Set(p.Heap, v, 0, value.Smi(1))
	other.Set(p.Heap, v, 1, value.Smi(2))
	data := wire.WriteTuple(p, other, v, nil)

	_, err := wire.ReadTuple(p, typ, data)
	require.Error(t, err)
}

func TestReadTupleLenientModeSkipsUnknownFieldAndCountsBytesSkipped(t *testing.T) {
	p := proc.New()
	typ := personType(p.Heap)

	other := value.NewTupleType(p.Heap, "Other", true, []value.FieldDesc{
		{Name: "id", Kind: value.KindInt, Form: value.Int, Tag: 1, Wire: value.WireVarint, Default: value.Smi(0)},
		{Name: "extra", Kind: value.KindInt, Form: value.Int, Tag: 3, Wire: value.WireVarint, Default: value.Smi(0)},
	})
	v := other.NewVal(p.Heap)
	other.Set(p.Heap, v, 0, value.Smi(1))
	other.Set(p.Heap, v, 1, value.Smi(2))
	data := wire.WriteTuple(p, other, v, nil)

	got, err := wire.ReadTuple(p, typ, data)
	require.NoError(t, err)
	assert.Equal(t, int64(1), value.Int.AsInt(p.Heap, typ.Get(p.Heap, got, 0)))
	assert.Positive(t, p.BytesSkipped)
}

func TestRepeatedPackedVarintRoundTrips(t *testing.T) {
	p := proc.New()
	scoresType := value.NewTupleType(p.Heap, "Scores", true, []value.FieldDesc{
		{Name: "values", Kind: value.KindInt, Form: value.Int, Tag: 1, Wire: value.WireVarint, Repeated: true,
			Default: value.Array.NewValFrom(p.Heap, value.Int, nil)},
	})
	v := scoresType.NewVal(p.Heap)
	arr := value.Array.NewValFrom(p.Heap, value.Int, []value.Value{value.Smi(1), value.Smi(2), value.Smi(3)})
	scoresType.Set(p.Heap, v, 0, arr)

	data := wire.WriteTuple(p, scoresType, v, nil)
	got, err := wire.ReadTuple(p, scoresType, data)
	require.NoError(t, err)

	out := typFieldArray(p, scoresType, got, 0)
	assert.Equal(t, []int64{1, 2, 3}, out)
}

func addressType(h value.HeapAccess) *value.TupleType {
	fields := []value.FieldDesc{
		{Name: "city", Kind: value.KindString, Form: value.String, Tag: 1, Wire: value.WireBytes, Default: value.String.NewVal(h, "")},
	}
	return value.NewTupleType(h, "Address", true, fields)
}

func withHomeType(h value.HeapAccess, isMessage bool) *value.TupleType {
	addr := addressType(h)
	fields := []value.FieldDesc{
		{Name: "id", Kind: value.KindInt, Form: value.Int, Tag: 1, Wire: value.WireVarint, Default: value.Smi(0)},
		{Name: "home", Kind: value.KindTuple, Form: addr.Form(), Tag: 2, Wire: value.WireBytes, IsMessage: isMessage, Default: addr.Default},
	}
	return value.NewTupleType(h, "WithHome", true, fields)
}

func TestWriteThenReadNestedMessageFieldRoundTrips(t *testing.T) {
	p := proc.New()
	addr := addressType(p.Heap)
	typ := withHomeType(p.Heap, true)

	home := addr.NewVal(p.Heap)
	addr.Set(p.Heap, home, 0, value.String.NewVal(p.Heap, "Springfield"))
	v := typ.NewVal(p.Heap)
	typ.Set(p.Heap, v, 0, value.Smi(1))
	typ.Set(p.Heap, v, 1, home)

	data := wire.WriteTuple(p, typ, v, nil)
	got, err := wire.ReadTuple(p, typ, data)
	require.NoError(t, err)

	gotHome := typ.Get(p.Heap, got, 1)
	assert.Equal(t, "Springfield", value.String.Str(p.Heap, addr.Get(p.Heap, gotHome, 0)))
}

func TestWriteThenReadNestedGroupFieldRoundTrips(t *testing.T) {
	p := proc.New()
	addr := addressType(p.Heap)
	typ := withHomeType(p.Heap, false)

	home := addr.NewVal(p.Heap)
	addr.Set(p.Heap, home, 0, value.String.NewVal(p.Heap, "Shelbyville"))
	v := typ.NewVal(p.Heap)
	typ.Set(p.Heap, v, 0, value.Smi(2))
	typ.Set(p.Heap, v, 1, home)

	data := wire.WriteTuple(p, typ, v, nil)

	got, err := wire.ReadTuple(p, typ, data)
	require.NoError(t, err)

	gotHome := typ.Get(p.Heap, got, 1)
	assert.Equal(t, "Shelbyville", value.String.Str(p.Heap, addr.Get(p.Heap, gotHome, 0)))
	assert.True(t, typ.InProto(p.Heap, got, 1))
}

func TestGroupFieldEncodingHasNoLengthPrefix(t *testing.T) {
	p := proc.New()
	addr := addressType(p.Heap)
	msgTyp := withHomeType(p.Heap, true)
	groupTyp := withHomeType(p.Heap, false)

	home := addr.NewVal(p.Heap)
	addr.Set(p.Heap, home, 0, value.String.NewVal(p.Heap, "Ogdenville"))

	msgV := msgTyp.NewVal(p.Heap)
	msgTyp.Set(p.Heap, msgV, 0, value.Smi(3))
	msgTyp.Set(p.Heap, msgV, 1, home)
	msgData := wire.WriteTuple(p, msgTyp, msgV, nil)

	home2 := addr.NewVal(p.Heap)
	addr.Set(p.Heap, home2, 0, value.String.NewVal(p.Heap, "Ogdenville"))
	groupV := groupTyp.NewVal(p.Heap)
	groupTyp.Set(p.Heap, groupV, 0, value.Smi(3))
	groupTyp.Set(p.Heap, groupV, 1, home2)
	groupData := wire.WriteTuple(p, groupTyp, groupV, nil)

	assert.NotEqual(t, msgData, groupData)
	// id (08 03), then the start-group tag for field 2 (0x13) followed
	// directly by the nested city field's tag (0x0a), with no length byte
	// in between; the group closes with the end-group tag (0x14).
	assert.Equal(t, []byte{0x08, 0x03, 0x13, 0x0a}, groupData[:4])
	assert.Equal(t, byte(0x14), groupData[len(groupData)-1])
}

func typFieldArray(p *proc.Process, typ *value.TupleType, v value.Value, idx int) []int64 {
	arrVal := typ.Get(p.Heap, v, idx)
	vals := value.Array.Values(p.Heap, arrVal)
	out := make([]int64, len(vals))
	for i, e := range vals {
		out[i] = value.Int.AsInt(p.Heap, e)
	}
	return out
}

package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/szl-sub000/heap"
	"github.com/google/szl-sub000/value"
)

func buildPersonType(h value.HeapAccess) *value.TupleType {
	fields := []value.FieldDesc{
		{Name: "id", Kind: value.KindInt, Form: value.Int, Tag: 1, Default: value.Smi(0)},
		{Name: "name", Kind: value.KindString, Form: value.String, Tag: 2, Default: value.String.NewVal(h, "")},
	}
	return value.NewTupleType(h, "Person", true, fields)
}

func TestTupleDefaultsAndFieldIndex(t *testing.T) {
	h := heap.New()
	typ := buildPersonType(h)

	idx, ok := typ.FieldIndex(2)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	v := typ.NewVal(h)

	assert.False(t, typ.InProto(h, v, 0))
	assert.Equal(t, int64(0), typ.Get(h, v, 0).AsSmi())

	typ.Set(h, v, 0, value.Smi(42))
	assert.True(t, typ.InProto(h, v, 0))
	assert.Equal(t, int64(42), typ.Get(h, v, 0).AsSmi())

	typ.ClearProto(h, v)
	assert.False(t, typ.InProto(h, v, 0))
	assert.Equal(t, int64(0), typ.Get(h, v, 0).AsSmi())
}

func TestTupleIsEqualRequiresSameType(t *testing.T) {
	h := heap.New()
	typ := buildPersonType(h)
	other := value.NewTupleType(h, "Other", false, []value.FieldDesc{
		{Name: "id", Kind: value.KindInt, Form: value.Int, Default: value.Smi(0)},
	})

	a := typ.NewVal(h)
	b := other.NewVal(h)
	assert.False(t, typ.Form().IsEqual(h, a, b))
}

func TestTupleFingerprintStableAcrossEqualValues(t *testing.T) {
	h := heap.New()
	typ := buildPersonType(h)
	a := typ.NewVal(h)
	b := typ.NewVal(h)
	typ.Set(h, a, 0, value.Smi(1))
	typ.Set(h, b, 0, value.Smi(1))
	assert.True(t, typ.Form().IsEqual(h, a, b))
	assert.Equal(t, typ.Form().Fingerprint(h, a), typ.Form().Fingerprint(h, b))
}

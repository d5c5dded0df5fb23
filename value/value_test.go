package value_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/szl-sub000/heap"
	"github.com/google/szl-sub000/value"
)

func TestSmiRoundTrip(t *testing.T) {
	for _, x := range []int64{0, 1, -1, math.MaxInt64 >> 2, math.MinInt64 >> 2} {
		require.True(t, value.FitsSmi(x), x)
		v := value.Smi(x)
		assert.True(t, v.IsSmi())
		assert.False(t, v.IsUndef())
		assert.Equal(t, x, v.AsSmi())
	}
}

func TestSmiOverflowPanics(t *testing.T) {
	assert.False(t, value.FitsSmi(math.MaxInt64))
	assert.Panics(t, func() { value.Smi(math.MaxInt64) })
}

func TestUndef(t *testing.T) {
	assert.True(t, value.Undef.IsUndef())
	assert.False(t, value.Undef.IsSmi())
	assert.False(t, value.Undef.IsPtr())
	assert.True(t, value.Ptr(value.NoHandle).IsUndef())
}

func TestValueEqualIsIdentityNotSemantic(t *testing.T) {
	h := heap.New()
	a := value.Int.NewVal(h, math.MaxInt64)
	b := value.Int.NewVal(h, math.MaxInt64)
	assert.True(t, value.Int.IsEqual(h, a, b))
	assert.False(t, a.Equal(b)) // different handles
	assert.True(t, a.Equal(a))
}

func TestBoolForm(t *testing.T) {
	h := heap.New()
	tru := value.Bool.NewVal(h, true)
	fls := value.Bool.NewVal(h, false)
	assert.True(t, value.Bool.AsBool(h, tru))
	assert.False(t, value.Bool.AsBool(h, fls))
	assert.False(t, value.Bool.IsEqual(h, tru, fls))

	var sb strings.Builder
	_, err := value.Bool.Format(h, &sb, tru)
	require.NoError(t, err)
	assert.Equal(t, "true", sb.String())
}

func TestIntFormSmiAndBoxedAgree(t *testing.T) {
	h := heap.New()
	smi := value.Int.NewVal(h, 42)
	boxed := value.Int.NewVal(h, math.MaxInt64)
	assert.True(t, smi.IsSmi())
	assert.False(t, boxed.IsSmi())
	assert.Equal(t, int64(42), value.Int.AsInt(h, smi))
	assert.Equal(t, int64(math.MaxInt64), value.Int.AsInt(h, boxed))

	sign, ok := value.Int.Cmp(h, smi, boxed)
	assert.True(t, ok)
	assert.Equal(t, -1, sign)
}

func TestFloatCmpNaNUnordered(t *testing.T) {
	h := heap.New()
	nan := value.Float.NewVal(h, math.NaN())
	one := value.Float.NewVal(h, 1.0)
	_, ok := value.Float.Cmp(h, nan, one)
	assert.False(t, ok)
	_, ok = value.Float.Cmp(h, nan, nan)
	assert.False(t, ok)
}

func TestFingerprintStableAndDistinctByKind(t *testing.T) {
	h := heap.New()
	a := value.Int.NewVal(h, 7)
	b := value.Int.NewVal(h, 7)
	assert.Equal(t, value.Int.Fingerprint(h, a), value.Int.Fingerprint(h, b))

	u := value.Uint.NewVal(h, 7)
	assert.NotEqual(t, value.Int.Fingerprint(h, a), value.Uint.Fingerprint(h, u))
}

func TestIsEqualImpliesFingerprintAndHashEqual(t *testing.T) {
	h := heap.New()
	s1 := value.String.NewVal(h, "abc")
	s2 := value.String.NewVal(h, "abc")
	require.True(t, value.String.IsEqual(h, s1, s2))
	assert.Equal(t, value.String.Fingerprint(h, s1), value.String.Fingerprint(h, s2))
	assert.Equal(t, value.String.Hash(h, s1), value.String.Hash(h, s2))
}

func TestBytesSliceAndSetSlice(t *testing.T) {
	h := heap.New()
	b := value.Bytes.NewVal(h, []byte("hello world"))
	sl := value.Bytes.Slice(h, b, 6, 11)
	assert.Equal(t, []byte("world"), value.Bytes.Bytes(h, sl))

	b2 := value.Bytes.SetSlice(h, sl, 0, 5, []byte("WORLD"))
	assert.Equal(t, []byte("WORLD"), value.Bytes.Bytes(h, b2))
}

func TestBytesFormatHexLiteral(t *testing.T) {
	h := heap.New()
	b := value.Bytes.NewVal(h, []byte{0xDE, 0xAD})
	var sb strings.Builder
	_, err := value.Bytes.Format(h, &sb, b)
	require.NoError(t, err)
	assert.Equal(t, `x"dead"`, sb.String())
}

func TestArrayUniqOnWriteDoesNotAliasShared(t *testing.T) {
	h := heap.New()
	a := value.Array.NewVal(h, value.Int, 2)

	arr := value.Array.SetSlice(h, a, 0, 2, []value.Value{value.Smi(0), value.Smi(0)})
	h.Retain(arr.Handle())
	b := arr // shared alias, Ref now 2

	arr2 := value.Array.SetSlice(h, arr, 0, 1, []value.Value{value.Smi(1)})
	assert.NotEqual(t, arr2.Handle(), b.Handle(), "mutation through a shared array must uniq first")
	assert.Equal(t, int64(0), value.Array.At(h, b, 0).AsSmi())
	assert.Equal(t, int64(1), value.Array.At(h, arr2, 0).AsSmi())
}

func TestStringByteOffsetMultibyte(t *testing.T) {
	h := heap.New()
	s := value.String.NewVal(h, "café!")
	assert.Equal(t, 3, value.String.ByteOffset(h, s, 3))
	assert.Equal(t, 5, value.String.ByteOffset(h, s, 4))
}

func TestStringSlicingByRune(t *testing.T) {
	h := heap.New()
	s := value.String.NewVal(h, "café!")
	sl := value.String.Slice(h, s, 0, 4)
	assert.Equal(t, "café", value.String.Str(h, sl))
}

func TestArrayCmpLexicographic(t *testing.T) {
	h := heap.New()
	a := value.Array.NewValFrom(h, value.Int, []value.Value{value.Smi(1), value.Smi(2)})
	b := value.Array.NewValFrom(h, value.Int, []value.Value{value.Smi(1), value.Smi(3)})
	sign, ok := value.Array.Cmp(h, a, b)
	require.True(t, ok)
	assert.Equal(t, -1, sign)
}

func TestArrayHashOrderIndependentButFingerprintOrderDependent(t *testing.T) {
	h := heap.New()
	a := value.Array.NewValFrom(h, value.Int, []value.Value{value.Smi(1), value.Smi(2)})
	b := value.Array.NewValFrom(h, value.Int, []value.Value{value.Smi(2), value.Smi(1)})
	assert.Equal(t, value.Array.Hash(h, a), value.Array.Hash(h, b))
	assert.NotEqual(t, value.Array.Fingerprint(h, a), value.Array.Fingerprint(h, b))
}

func TestMapInsertLookupDeleteIterationOrder(t *testing.T) {
	h := heap.New()
	mt := value.NewMapType(value.Int, value.String)
	m := mt.NewVal(h)

	mt.Set(h, m, value.Smi(3), value.String.NewVal(h, "three"))
	mt.Set(h, m, value.Smi(1), value.String.NewVal(h, "one"))
	mt.Set(h, m, value.Smi(2), value.String.NewVal(h, "two"))

	got, ok := mt.Lookup(h, m, value.Smi(1))
	require.True(t, ok)
	assert.Equal(t, "one", value.String.Str(h, got))

	entries := mt.Entries(h, m)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(3), value.Int.AsInt(h, entries[0].Key))
	assert.Equal(t, int64(1), value.Int.AsInt(h, entries[1].Key))
	assert.Equal(t, int64(2), value.Int.AsInt(h, entries[2].Key))

	require.True(t, mt.DeleteKey(h, m, value.Smi(1)))
	_, ok = mt.Lookup(h, m, value.Smi(1))
	assert.False(t, ok)
	assert.Equal(t, 2, mt.Len(h, m))
}

func TestMapResizeUnderLoad(t *testing.T) {
	h := heap.New()
	mt := value.NewMapType(value.Int, value.Int)
	m := mt.NewVal(h)

	const n = 10000
	for i := 0; i < n; i++ {
		mt.Set(h, m, value.Smi(int64(i)), value.Smi(int64(i*2)))
	}
	for i := 0; i < n; i++ {
		got, ok := mt.Lookup(h, m, value.Smi(int64(i)))
		require.True(t, ok)
		assert.Equal(t, int64(i*2), got.AsSmi())
	}
	assert.Equal(t, n, mt.Len(h, m))
}

func TestClosureEqualityByPCAndLevel(t *testing.T) {
	h := heap.New()
	a := value.Closure.NewVal(h, 100, 2)
	b := value.Closure.NewVal(h, 100, 2)
	c := value.Closure.NewVal(h, 100, 3)
	assert.True(t, value.Closure.IsEqual(h, a, b))
	assert.False(t, value.Closure.IsEqual(h, a, c))
}

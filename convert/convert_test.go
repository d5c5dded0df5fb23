package convert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/szl-sub000/convert"
	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
)

func TestBasicIntToFloat(t *testing.T) {
	p := proc.New()
	out := convert.Basic(p, convert.IntToFloat, value.Smi(3), convert.Extra{})
	assert.Equal(t, 3.0, value.Float.AsFloat(p.Heap, out))
}

func TestBasicStringToIntFailureSetsTrapAndUndef(t *testing.T) {
	p := proc.New()
	out := convert.Basic(p, convert.StringToInt, value.String.NewVal(p.Heap, "not-a-number"), convert.Extra{})
	assert.True(t, out.IsUndef())
	assert.Equal(t, int64(1), p.UndefTotal())
	_, trapped := p.Heap.Trap()
	assert.True(t, trapped)
}

func TestArrayConversionContinuesPastFailureFillingUndef(t *testing.T) {
	p := proc.New()
	src := value.Array.NewValFrom(p.Heap, value.String, []value.Value{
		value.String.NewVal(p.Heap, "1"),
		value.String.NewVal(p.Heap, "bad"),
		value.String.NewVal(p.Heap, "3"),
	})
	out := convert.Array(p, convert.StringToInt, value.Int, src, convert.Extra{})
	vals := value.Array.Values(p.Heap, out)
	require.Len(t, vals, 3)
	assert.Equal(t, int64(1), value.Int.AsInt(p.Heap, vals[0]))
	assert.True(t, vals[1].IsUndef())
	assert.Equal(t, int64(3), value.Int.AsInt(p.Heap, vals[2]))
}

func TestHexRoundTrip(t *testing.T) {
	p := proc.New()
	raw := value.Bytes.NewVal(p.Heap, []byte{0xde, 0xad, 0xbe, 0xef})
	s := convert.Basic(p, convert.BytesToString, raw, convert.Extra{Encoding: "hex"})
	assert.Equal(t, "deadbeef", value.String.Str(p.Heap, s))

	back := convert.Basic(p, convert.StringToBytes, s, convert.Extra{Encoding: "hex"})
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, value.Bytes.Bytes(p.Heap, back))
}

func TestFingerprintOfValue(t *testing.T) {
	p := proc.New()
	a := convert.Basic(p, convert.AnyToFingerprint, value.Smi(42), convert.Extra{})
	b := convert.Basic(p, convert.AnyToFingerprint, value.Smi(42), convert.Extra{})
	assert.Equal(t, value.Fingerprint.AsFingerprint(p.Heap, a), value.Fingerprint.AsFingerprint(p.Heap, b))
}

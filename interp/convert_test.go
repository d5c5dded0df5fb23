package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/szl-sub000/convert"
	"github.com/google/szl-sub000/interp"
	"github.com/google/szl-sub000/opcode"
	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
)

func TestExecuteConvertArrayAppliesElementwise(t *testing.T) {
	p := proc.New()
	code := opcode.Code{}
	code = code.PutOp(opcode.PushSmi, 2)
	code = code.PutOp(opcode.NewArray, 0) // Forms[0] == value.Float
	code = code.PutOp(opcode.PushSmi, 0)
	code = code.PutOp(opcode.PushLit, 0) // 3.5
	code = code.PutOp0(opcode.StoreIndex)
	code = code.PutOp(opcode.PushSmi, 1)
	code = code.PutOp(opcode.PushLit, 1) // 4.5
	code = code.PutOp0(opcode.StoreIndex)
	code = code.PutOp(opcode.ConvertArray, 0)
	code = code.PutOp(opcode.PushSmi, 1)
	code = code.PutOp0(opcode.LoadIndex)
	code = code.PutOp(opcode.Emit, 0)
	code = code.PutOp0(opcode.Stop)

	prog := &opcode.Program{
		Code:  code,
		Forms: []value.Form{value.Float},
		Literals: []value.Value{
			value.Float.NewVal(p.Heap, 3.5),
			value.Float.NewVal(p.Heap, 4.5),
		},
		ConvertArrays: []opcode.ConvertArrayDesc{
			{Op: convert.FloatToInt, Elem: value.Int},
		},
	}
	em := &recordingEmitter{}
	status, _ := interp.Execute(p, prog, 0, interp.Emitters{em})
	require.Equal(t, interp.Completed, status)
	require.Len(t, em.records, 1)
	assert.Equal(t, itoaRaw(4), em.records[0][0])
}

func TestExecuteConvertMapBuildsFromFlatKeyValueArray(t *testing.T) {
	p := proc.New()
	code := opcode.Code{}
	code = code.PutOp(opcode.PushSmi, 4)
	code = code.PutOp(opcode.NewArray, 0) // Forms[0] == value.Int
	code = code.PutOp(opcode.PushSmi, 0)
	code = code.PutOp(opcode.PushSmi, 1) // key source
	code = code.PutOp0(opcode.StoreIndex)
	code = code.PutOp(opcode.PushSmi, 1)
	code = code.PutOp(opcode.PushSmi, 2) // value source
	code = code.PutOp0(opcode.StoreIndex)
	code = code.PutOp(opcode.PushSmi, 2)
	code = code.PutOp(opcode.PushSmi, 3) // key source
	code = code.PutOp0(opcode.StoreIndex)
	code = code.PutOp(opcode.PushSmi, 3)
	code = code.PutOp(opcode.PushSmi, 4) // value source
	code = code.PutOp0(opcode.StoreIndex)
	code = code.PutOp(opcode.ConvertMap, 0)
	code = code.PutOp(opcode.PushLit, 0) // key "1"
	code = code.PutOp0(opcode.LoadMap)
	code = code.PutOp(opcode.Emit, 0)
	code = code.PutOp0(opcode.Stop)

	prog := &opcode.Program{
		Code:     code,
		Forms:    []value.Form{value.Int},
		Literals: []value.Value{value.String.NewVal(p.Heap, "1")},
		ConvertMaps: []opcode.ConvertMapDesc{
			{KeyOp: convert.IntToString, ValOp: convert.IntToUint, KeyForm: value.String, ValForm: value.Uint},
		},
	}
	em := &recordingEmitter{}
	status, _ := interp.Execute(p, prog, 0, interp.Emitters{em})
	require.Equal(t, interp.Completed, status)
	require.Len(t, em.records, 1)
	assert.Equal(t, itoaRaw(2), em.records[0][0])
}

package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/szl-sub000/emit"
	"github.com/google/szl-sub000/interp"
	"github.com/google/szl-sub000/opcode"
	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
)

type recordingEmitter struct {
	records [][]string
	cur     []string
}

func (e *recordingEmitter) PutBool(b bool) { e.cur = append(e.cur, boolStr(b)) }
func (e *recordingEmitter) PutInt(i int64) { e.cur = append(e.cur, itoa(i)) }
func (e *recordingEmitter) PutFloat(f float64) { e.cur = append(e.cur, ftoa(f)) }
func (e *recordingEmitter) PutFingerprint(fp uint64) { e.cur = append(e.cur, fptoa(fp)) }
func (e *recordingEmitter) PutTime(t int64) { e.cur = append(e.cur, itoa(t)) }
func (e *recordingEmitter) PutString(s string) { e.cur = append(e.cur, s) }
func (e *recordingEmitter) PutBytes(b []byte) { e.cur = append(e.cur, string(b)) }

func (e *recordingEmitter) Begin(kind emit.Kind, count int) {
	if kind == emit.KindEmit {
		e.cur = nil
	}
}

func (e *recordingEmitter) End(kind emit.Kind, count int) {
	if kind == emit.KindEmit {
		e.records = append(e.records, e.cur)
	}
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
func itoa(i int64) string { return itoaRaw(i) }
func itoaRaw(i int64) string {
	neg := i < 0
	if neg {
		i = -i
	}
	if i == 0 {
		if neg {
			return "-0"
		}
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
func ftoa(f float64) string { return "" } // unused in these tests
func fptoa(fp uint64) string {
	const hexdigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexdigits[fp&0xf]
		fp >>= 4
	}
	return string(buf)
}

func TestExecuteAddIntsThenEmit(t *testing.T) {
	p := proc.New()
	code := opcode.Code{}
	code = code.PutOp(opcode.PushSmi, 2)
	code = code.PutOp(opcode.PushSmi, 3)
	code = code.PutOp(opcode.AddOp, int32(value.KindInt))
	code = code.PutOp(opcode.Emit, 0)
	code = code.PutOp0(opcode.Stop)
	prog := &opcode.Program{Code: code}

	em := &recordingEmitter{}
	status, _ := interp.Execute(p, prog, 0, interp.Emitters{em})
	require.Equal(t, interp.Completed, status)
	require.Len(t, em.records, 1)
	assert.Equal(t, itoaRaw(5), em.records[0][0])
}

func TestExecuteTrapConditionUnwindsToHandler(t *testing.T) {
	p := proc.New()
	code := opcode.Code{}
	code = code.PutOp(opcode.PushSmi, 1)
	code = code.PutOp(opcode.PushSmi, 2)
	code = code.PutOp0(opcode.CmpEQ) // pops the two smis, sets cond=false
	trapPC := len(code)
	code = code.PutOp(opcode.TrapCond, -1) // no literal message
	afterTrapPC := len(code)
	code = code.PutOp(opcode.PushSmi, 99)
	code = code.PutOp(opcode.Emit, 0)
	code = code.PutOp0(opcode.Stop)

	prog := &opcode.Program{
		Code:  code,
		Traps: []opcode.TrapRange{{Start: trapPC, End: trapPC + 6, Target: afterTrapPC}},
	}

	em := &recordingEmitter{}
	status, _ := interp.Execute(p, prog, 0, interp.Emitters{em})
	require.Equal(t, interp.Completed, status)
	assert.Equal(t, int64(1), p.UndefTotal())
	require.Len(t, em.records, 1)
	assert.Equal(t, itoaRaw(99), em.records[0][0])
}

func TestExecuteTrapWithoutHandlerFails(t *testing.T) {
	p := proc.New()
	code := opcode.Code{}
	code = code.PutOp(opcode.PushSmi, 1)
	code = code.PutOp(opcode.PushSmi, 2)
	code = code.PutOp0(opcode.CmpEQ)
	code = code.PutOp(opcode.TrapCond, -1)
	code = code.PutOp0(opcode.Stop)
	prog := &opcode.Program{Code: code}

	status, _ := interp.Execute(p, prog, 0, nil)
	assert.Equal(t, interp.Failed, status)
}

func TestExecuteStepLimit(t *testing.T) {
	p := proc.New(proc.WithStepLimit(2))
	code := opcode.Code{}
	code = code.PutOp0(opcode.Nop)
	code = code.PutOp0(opcode.Nop)
	code = code.PutOp0(opcode.Nop)
	code = code.PutOp0(opcode.Stop)
	prog := &opcode.Program{Code: code}

	status, steps := interp.Execute(p, prog, 0, nil)
	assert.Equal(t, interp.StepLimit, status)
	assert.Equal(t, int64(2), steps)
}

package szl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/szl-sub000/emit"
	"github.com/google/szl-sub000/interp"
	"github.com/google/szl-sub000/opcode"
	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/szl"
	"github.com/google/szl-sub000/value"
)

type recordEmitter struct {
	lines []int64
	cur   []int64
}

func (e *recordEmitter) PutBool(bool)           {}
func (e *recordEmitter) PutInt(i int64)         { e.cur = append(e.cur, i) }
func (e *recordEmitter) PutFloat(float64)       {}
func (e *recordEmitter) PutFingerprint(uint64)  {}
func (e *recordEmitter) PutTime(int64)          {}
func (e *recordEmitter) PutString(string)       {}
func (e *recordEmitter) PutBytes([]byte)        {}
func (e *recordEmitter) Begin(k emit.Kind, n int) {
	if k == emit.KindEmit {
		e.cur = nil
	}
}
func (e *recordEmitter) End(k emit.Kind, n int) {
	if k == emit.KindEmit {
		e.lines = append(e.lines, e.cur...)
	}
}

func addProgram() *szl.Program {
	code := opcode.Code{}
	code = code.PutOp(opcode.PushSmi, 2)
	code = code.PutOp(opcode.PushSmi, 3)
	code = code.PutOp(opcode.AddOp, int32(value.KindInt))
	code = code.PutOp(opcode.Emit, 0)
	code = code.PutOp0(opcode.Stop)
	return szl.NewProgram(&opcode.Program{Code: code})
}

func TestProcessRunExecutesAndEmits(t *testing.T) {
	p := szl.NewProcess()
	em := &recordEmitter{}
	status, _ := p.Run(addProgram(), 0, []emit.Emitter{em})
	require.Equal(t, interp.Completed, status)
	require.Len(t, em.lines, 1)
	assert.Equal(t, int64(5), em.lines[0])
}

func TestSandboxedSecurityRefusesFileEmitter(t *testing.T) {
	p := szl.NewProcess(szl.WithSecurity(proc.SecuritySandboxed))
	_, err := p.NewFileEmitter("/tmp/does-not-matter")
	assert.Error(t, err)
}

func TestUnrestrictedSecurityAllowsFileEmitter(t *testing.T) {
	p := szl.NewProcess(szl.WithSecurity(proc.SecurityNone))
	path := t.TempDir() + "/out.txt"
	e, err := p.NewFileEmitter(path)
	require.NoError(t, err)
	require.NoError(t, e.Close())
}

func TestPoolRunsRecordsConcurrently(t *testing.T) {
	prog := addProgram()
	pool := szl.NewPool(prog, nil)

	entries := []int{0, 0, 0}
	emitters := make([]*recordEmitter, len(entries))
	results := pool.Run(entries, func(i int) []emit.Emitter {
		emitters[i] = &recordEmitter{}
		return []emit.Emitter{emitters[i]}
	})

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, interp.Completed, r.Status)
		require.Len(t, emitters[i].lines, 1)
		assert.Equal(t, int64(5), emitters[i].lines[0])
	}
}

package proc_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
)

func TestPushPopOrder(t *testing.T) {
	p := proc.New()
	p.Push(value.Smi(1))
	p.Push(value.Smi(2))
	assert.Equal(t, int64(2), p.Pop().AsSmi())
	assert.Equal(t, int64(1), p.Pop().AsSmi())
	assert.Equal(t, 0, p.StackLen())
}

func TestPopOnEmptyStackPanics(t *testing.T) {
	p := proc.New()
	assert.Panics(t, func() { p.Pop() })
}

func TestUndefCountAccumulatesPerMessage(t *testing.T) {
	p := proc.New()
	p.SetUndef("")
	p.SetUndef("")
	p.SetUndef("divide by zero")
	assert.Equal(t, int64(2), p.UndefCount(""))
	assert.Equal(t, int64(1), p.UndefCount("divide by zero"))
	assert.Equal(t, int64(3), p.UndefTotal())
}

func TestResetTrapsAndCountersClearsStateKeepsHeap(t *testing.T) {
	p := proc.New()
	p.SetUndef("x")
	p.BytesRead = 10
	p.BytesSkipped = 4
	p.Terminate()
	heap := p.Heap

	p.ResetTrapsAndCounters()

	assert.Equal(t, int64(0), p.UndefTotal())
	assert.Equal(t, int64(0), p.BytesRead)
	assert.Equal(t, int64(0), p.BytesSkipped)
	assert.False(t, p.Terminated())
	require.Same(t, heap, p.Heap)
}

func TestResetTrapsAndCountersDropsTransientKeepsReadOnly(t *testing.T) {
	p := proc.New()
	static := p.Heap.NewReadOnly(&value.Basic64Obj{Header: value.Header{Form: value.Bool}, Bits: 1})
	transient := value.Int.NewVal(p.Heap, math.MaxInt64)
	p.Push(transient)

	p.ResetTrapsAndCounters()

	assert.NotNil(t, p.Heap.Resolve(static))
	assert.True(t, p.Heap.Resolve(static).Head().IsReadOnly())
}

func TestMaybeSweepCompactsOnceDeadRatioCrossesThreshold(t *testing.T) {
	p := proc.New()
	live := value.Int.NewVal(p.Heap, math.MaxInt64)
	p.Push(live)
	for i := 0; i < 10; i++ {
		v := value.Int.NewVal(p.Heap, math.MinInt64+int64(i))
		p.Heap.Release(v.Handle())
	}

	swept := p.MaybeSweep(0.5)
	require.True(t, swept)
	assert.NotNil(t, p.Heap.Resolve(p.StackAt(0).Handle()))
	assert.Equal(t, float64(0), p.Heap.DeadRatio())
}

func TestWithStepLimitAndSecurityOptions(t *testing.T) {
	p := proc.New(proc.WithStepLimit(100), proc.WithSecurity(proc.SecuritySandboxed), proc.WithStrictProto(true))
	assert.Equal(t, int64(100), p.StepLimit)
	assert.Equal(t, proc.SecuritySandboxed, p.Security)
	assert.True(t, p.StrictProto)
}

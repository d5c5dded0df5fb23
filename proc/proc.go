// Package proc implements Process: the per-execution state bundle that
// sits on top of a heap.Heap — a value stack, undefined-value (trap)
// bookkeeping, protocol-buffer decode telemetry, and a step counter
// the interpreter polls for termination.
package proc

import (
	"github.com/google/szl-sub000/heap"
	"github.com/google/szl-sub000/value"
)

// SecurityMode restricts which external side effects a Process's emitters
// and conversions may perform.
type SecurityMode int

const (
	// SecurityNone allows file and subprocess emitters unrestricted.
	SecurityNone SecurityMode = iota
	// SecuritySandboxed rejects any operation that reaches outside the
	// process (file/proc emitters), keeping only in-memory emission.
	SecuritySandboxed
)

// DefaultSweepThreshold is the dead-slot ratio MaybeSweep checks against
// when a caller doesn't have a more specific policy of its own.
const DefaultSweepThreshold = heap.DefaultSweepThreshold

// Process bundles one bytecode execution's heap, operand stack, and runtime
// counters. It is not safe for concurrent use; run one Process per
// goroutine and use [Pool] (package szl) to fan out across many.
type Process struct {
	Heap *heap.Heap

	stack []value.Value

	// undefCount counts, per distinct trap message, how many times
	// execution produced an undefined value at that point instead of
	// terminating the whole run. The empty-string key aggregates traps
	// raised without a specific message.
	undefCount   map[string]int64
	undefDetails []string

	// Proto decode telemetry, accumulated across every wire.ReadTuple call
	// driven by this Process.
	BytesRead    int64
	BytesSkipped int64

	StepCount int64
	StepLimit int64 // 0 means unlimited

	Security SecurityMode

	// StrictProto rejects unknown wire tags instead of skipping them when
	// decoding a proto message, at top level and inside nested messages and
	// groups alike.
	StrictProto bool

	terminated bool
}

// New creates a Process over a fresh heap with the given options.
func New(opts ...Option) *Process {
	p := &Process{
		Heap:       heap.New(),
		undefCount: make(map[string]int64),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Option configures a Process at construction time.
type Option func(*Process)

// WithStepLimit bounds the number of bytecode steps interp.Execute will run
// before returning StepLimit status. 0 (the default) means unlimited.
func WithStepLimit(n int64) Option { return func(p *Process) { p.StepLimit = n } }

// WithSecurity sets the Process's SecurityMode.
func WithSecurity(m SecurityMode) Option { return func(p *Process) { p.Security = m } }

// WithStrictProto enables strict unknown-field rejection during proto
// decode.
func WithStrictProto(strict bool) Option { return func(p *Process) { p.StrictProto = strict } }

// Push pushes v onto the operand stack.
func (p *Process) Push(v value.Value) { p.stack = append(p.stack, v) }

// Pop pops and returns the top of the operand stack. Panics on an empty
// stack: a stack underflow is a bytecode-generation bug, not a recoverable
// runtime condition.
func (p *Process) Pop() value.Value {
	n := len(p.stack)
	v := p.stack[n-1]
	p.stack = p.stack[:n-1]
	return v
}

// Top returns the top of the operand stack without popping it.
func (p *Process) Top() value.Value { return p.stack[len(p.stack)-1] }

// StackLen returns the current operand stack depth.
func (p *Process) StackLen() int { return len(p.stack) }

// StackSlice returns the live operand stack range [i, len), for use as
// compaction roots or frame-relative addressing.
func (p *Process) StackSlice(i int) []value.Value { return p.stack[i:] }

// StackAt returns the value at absolute stack index i, used by the
// interpreter for frame/bp-relative local access.
func (p *Process) StackAt(i int) value.Value { return p.stack[i] }

// SetStackAt overwrites the value at absolute stack index i.
func (p *Process) SetStackAt(i int, v value.Value) { p.stack[i] = v }

// Grow appends n Undef slots to the operand stack (Enter's locals
// allocation) and returns the index of the first appended slot.
func (p *Process) Grow(n int) int {
	base := len(p.stack)
	for i := 0; i < n; i++ {
		p.stack = append(p.stack, value.Undef)
	}
	return base
}

// Truncate shrinks the operand stack to length n (Ret's frame teardown),
// releasing any heap refs held by the discarded slots.
func (p *Process) Truncate(n int) {
	for i := n; i < len(p.stack); i++ {
		if p.stack[i].IsPtr() {
			p.Heap.Release(p.stack[i].Handle())
		}
	}
	p.stack = p.stack[:n]
}

// SetUndef records one occurrence of an undefined-value trap with the
// given message (the empty string if the trap carried none), mirroring
// the runtime's per-message `_undef_cnt` counters.
func (p *Process) SetUndef(message string) {
	p.undefCount[message]++
	p.undefDetails = append(p.undefDetails, message)
}

// UndefCount returns how many times the given trap message has fired.
func (p *Process) UndefCount(message string) int64 { return p.undefCount[message] }

// UndefTotal returns the total number of undef traps recorded across every
// message.
func (p *Process) UndefTotal() int64 {
	var total int64
	for _, n := range p.undefCount {
		total += n
	}
	return total
}

// Terminate requests that the interpreter stop at the next step-limit
// check, without raising a fatal error. Polled rather than delivered via
// context.Context, matching the interpreter's own step-counted execution
// loop (checked once per bytecode instruction, not preemptively).
func (p *Process) Terminate() { p.terminated = true }

// Terminated reports whether Terminate has been called.
func (p *Process) Terminated() bool { return p.terminated }

// MaybeSweep compacts the heap once its dead-slot ratio has crossed
// threshold (see heap.Heap.Sweep), fixing up every heap handle this
// Process holds outside the heap itself — the operand stack — to its
// post-compaction value. Reports whether a sweep actually ran. Intended to
// be polled periodically during execution (interp.Execute calls it once
// per step), the same way StepLimit and Terminated are polled.
func (p *Process) MaybeSweep(threshold float64) bool {
	remap, swept := p.Heap.Sweep(threshold)
	if !swept {
		return false
	}
	p.remapStack(remap)
	return true
}

// ResetTrapsAndCounters clears per-run bookkeeping (undef counts, proto
// telemetry, step count) and resets the heap (see heap.Heap.Reset),
// abandoning every transient heap value while keeping statics (objects
// allocated via NewReadOnly) alive — used between repeated invocations of
// the same compiled program over a stream of input records.
func (p *Process) ResetTrapsAndCounters() {
	p.undefCount = make(map[string]int64)
	p.undefDetails = nil
	p.BytesRead = 0
	p.BytesSkipped = 0
	p.StepCount = 0
	p.terminated = false
	remap := p.Heap.Reset()
	p.remapStack(remap)
}

// remapStack rewrites every heap handle on the operand stack per remap,
// used after a Compact-family call that may have relocated objects the
// stack still points at. A handle with no entry in remap was dropped by
// the call that produced it (Reset drops anything not read-only); this
// should never be reached holding one, since a well-formed record has
// unwound its stack by the time a reset runs, but a dangling entry is
// defensively left as-is rather than panicking.
func (p *Process) remapStack(remap map[value.Handle]value.Handle) {
	for i, v := range p.stack {
		if !v.IsPtr() {
			continue
		}
		if r, ok := remap[v.Handle()]; ok {
			p.stack[i] = value.Ptr(r)
		}
	}
}

// Package szl is the top-level driver: it pairs a compiled [opcode.Program]
// with a [proc.Process] and runs it, and exposes the external surface
// (output-table emitters, security gating, multi-process fan-out) that
// sits above the interpreter core.
package szl

import (
	"fmt"

	"github.com/google/szl-sub000/emit"
	"github.com/google/szl-sub000/interp"
	"github.com/google/szl-sub000/opcode"
	"github.com/google/szl-sub000/proc"
)

// Program is a compiled unit ready to run: the bytecode plus the
// descriptor tables the interpreter's opcodes index into, and the set of
// output tables the compiler declared.
type Program struct {
	prog *opcode.Program
}

// NewProgram wraps a compiled [opcode.Program] for execution.
func NewProgram(p *opcode.Program) *Program { return &Program{prog: p} }

// Outputs returns the program's declared output tables, in declaration
// order — callers build one Emitter per entry before calling Run.
func (p *Program) Outputs() []opcode.OutputTable { return p.prog.Outputs }

// Process is one execution context: a proc.Process plus the emitters bound
// to its program's output tables. Not safe for concurrent use — see [Pool]
// to run many records across goroutines.
type Process struct {
	proc     *proc.Process
	security proc.SecurityMode
}

// NewProcess creates a Process using the given options.
func NewProcess(opts ...ProcessOption) *Process {
	cfg := processConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	popts := []proc.Option{proc.WithSecurity(cfg.security)}
	if cfg.stepLimit > 0 {
		popts = append(popts, proc.WithStepLimit(cfg.stepLimit))
	}
	if cfg.strictProto {
		popts = append(popts, proc.WithStrictProto(true))
	}
	return &Process{proc: proc.New(popts...), security: cfg.security}
}

// Proc exposes the underlying proc.Process, for callers (e.g. wire.ReadTuple)
// that need direct access to its heap and counters.
func (p *Process) Proc() *proc.Process { return p.proc }

// Run executes prog starting at entryPC, flushing Emit opcodes to ems in
// output-table order. Before returning, it resets the Process's trap
// counters and heap (see proc.Process.ResetTrapsAndCounters) so the next
// Run call on the same Process starts the next record with the heap
// wiped of every transient value from this one, exactly as a compiled
// program invoked once per input record expects.
func (p *Process) Run(prog *Program, entryPC int, ems []emit.Emitter) (interp.Status, int64) {
	status, steps := interp.Execute(p.proc, prog.prog, entryPC, interp.Emitters(ems))
	p.proc.ResetTrapsAndCounters()
	return status, steps
}

// NewFileEmitter opens a "file" output table, refusing under
// SecuritySandboxed since it reaches outside the process.
func (p *Process) NewFileEmitter(path string) (*emit.FileEmitter, error) {
	if p.security == proc.SecuritySandboxed {
		return nil, fmt.Errorf("szl: file emitter not permitted under SecuritySandboxed")
	}
	return emit.OpenFile(path)
}

// NewProcEmitter starts a "proc" output table, refusing under
// SecuritySandboxed since it spawns a subprocess.
func (p *Process) NewProcEmitter(expr string) (*emit.ProcEmitter, error) {
	if p.security == proc.SecuritySandboxed {
		return nil, fmt.Errorf("szl: proc emitter not permitted under SecuritySandboxed")
	}
	return emit.OpenProc(expr)
}

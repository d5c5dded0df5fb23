package interp

import (
	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
)

// call sets up a new activation for a closure call: argCount arguments
// already sit on the operand stack below the popped closure value. It
// pushes a frameHeader recording where to resume the caller and where the
// caller's own frame (for the static link chain) lives, and returns the
// callee's entry pc and new fp (the index its locals start at).
func call(p *proc.Process, closure value.Value, returnPC, callerFP, argCount int) (entryPC, newFP int) {
	entryPC = value.Closure.EntryPC(p.Heap, closure)
	staticLink := value.Closure.Level(p.Heap, closure)
	if closure.IsPtr() {
		p.Heap.Release(closure.Handle())
	}
	p.Push(value.Smi(int64(returnPC)))
	p.Push(value.Smi(int64(callerFP)))
	p.Push(value.Smi(int64(staticLink)))
	p.Push(value.Smi(int64(argCount)))
	return entryPC, p.StackLen()
}

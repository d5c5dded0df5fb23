package szl

import (
	"sync"

	"github.com/google/szl-sub000/emit"
	"github.com/google/szl-sub000/interp"
)

// Pool runs a batch of independent records against the same Program,
// fanning out across goroutines. Each record gets its own Process (its own
// heap and operand stack); no mutable state crosses records, matching the
// single-goroutine-owned discipline every Process already requires.
type Pool struct {
	prog    *Program
	newOpts func() []ProcessOption
}

// NewPool creates a Pool over prog. newOpts is called once per record to
// build that record's Process options (e.g. to vary step limits); pass a
// function returning nil for uniform defaults.
func NewPool(prog *Program, newOpts func() []ProcessOption) *Pool {
	return &Pool{prog: prog, newOpts: newOpts}
}

// Result is one record's outcome.
type Result struct {
	Index  int
	Status interp.Status
	Steps  int64
}

// Run executes one record per entry in entryPCs concurrently, each with
// its own emitters built by newEmitters(index). It returns once every
// record has finished, in no particular completion order; Results are
// indexed by the position of the corresponding entryPC.
func (pl *Pool) Run(entryPCs []int, newEmitters func(index int) []emit.Emitter) []Result {
	results := make([]Result, len(entryPCs))
	var wg sync.WaitGroup
	wg.Add(len(entryPCs))
	for i, pc := range entryPCs {
		go func(i, pc int) {
			defer wg.Done()
			var opts []ProcessOption
			if pl.newOpts != nil {
				opts = pl.newOpts()
			}
			p := NewProcess(opts...)
			status, steps := p.Run(pl.prog, pc, newEmitters(i))
			results[i] = Result{Index: i, Status: status, Steps: steps}
		}(i, pc)
	}
	wg.Wait()
	return results
}

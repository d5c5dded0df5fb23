package szl

import "github.com/google/szl-sub000/proc"

// processConfig accumulates ProcessOption settings before a Process's
// underlying proc.Process is constructed.
type processConfig struct {
	stepLimit   int64
	security    proc.SecurityMode
	strictProto bool
}

// ProcessOption configures a Process at construction time.
type ProcessOption func(*processConfig)

// WithStepLimit bounds the number of bytecode steps a record's execution
// will run before returning interp.StepLimit. 0 (the default) means
// unlimited.
func WithStepLimit(n int64) ProcessOption {
	return func(c *processConfig) { c.stepLimit = n }
}

// WithSecurity restricts which external side effects (file/proc emitters)
// a Process's operations may perform.
func WithSecurity(m proc.SecurityMode) ProcessOption {
	return func(c *processConfig) { c.security = m }
}

// WithStrictProto rejects unknown wire tags instead of skipping them
// during protocol-buffer decode.
func WithStrictProto(strict bool) ProcessOption {
	return func(c *processConfig) { c.strictProto = strict }
}

// CompileOptions configures how a Program is put together from its
// compiled parts — currently only which output tables it declares, since
// this module has no front-end compiler of its own (the bytecode and
// descriptor tables are supplied pre-built).
type CompileOptions struct {
	Outputs []OutputSpec
}

// OutputSpec names one output table before a Program exists, letting a
// driver validate emitter construction against the declared set.
type OutputSpec struct {
	Name      string
	HasWeight bool
}

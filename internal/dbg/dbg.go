// Package dbg provides a package-global, opt-in trace logger for the
// interpreter and heap. Tracing is toggled at runtime so that a single test
// binary can turn it on for one failing case without a rebuild.
package dbg

import (
	"fmt"
	"os"
)

// Enabled turns on trace output to stderr. Off by default; tests and the
// szl driver may flip it on for a single run.
var Enabled = false

// Log prints a trace line of the form "[context] op: format" to stderr when
// Enabled is true. context is typically the subsystem name ("heap",
// "interp"); it is cheap to compute so callers needn't guard the call
// themselves.
func Log(context, op, format string, args ...any) {
	if !Enabled {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", context, op, msg)
}

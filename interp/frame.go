// Package interp implements the bytecode interpreter: activation frames on
// the value stack, the trap/recovery unwind, and the main execute loop.
package interp

import "github.com/google/szl-sub000/value"

// frameHeader is the fixed-size prologue a call pushes onto the operand
// stack ahead of a function's locals: the caller's pc to resume at, the
// caller's frame pointer (dynamic link), the lexically enclosing frame's
// pointer a closure captured and restores on call (static link), and the
// argument count, which lets Ret find where the caller's arguments started
// without the interpreter tracking per-function metadata separately.
type frameHeader struct {
	ReturnPC    int
	DynamicLink int
	StaticLink  int
	ArgCount    int
}

const frameHeaderSize = 4

// readFrame reads back the frameHeader that call pushed at fp (see
// interp/call.go) — the four header words live immediately below fp.
func readFrame(stack []value.Value, fp int) frameHeader {
	return frameHeader{
		ReturnPC:    int(stack[fp-4].AsSmi()),
		DynamicLink: int(stack[fp-3].AsSmi()),
		StaticLink:  int(stack[fp-2].AsSmi()),
		ArgCount:    int(stack[fp-1].AsSmi()),
	}
}

// localAddr resolves a LoadLocal/StoreLocal slot number to an absolute
// stack index relative to bp — the current frame's fp by default, or an
// outer lexical frame reached by SetBP walking the StaticLink chain.
// Non-negative slots count up from bp into that frame's own locals (as
// Enter allocated them); negative slots count down through its frame
// header into its caller-pushed arguments.
func localAddr(bp int, slot int) int {
	if slot < 0 {
		return bp - frameHeaderSize + slot
	}
	return bp + slot
}

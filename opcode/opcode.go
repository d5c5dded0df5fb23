// Package opcode defines the bytecode instruction set: the Opcode enum,
// its stack-delta metadata, and the operand encoding (an optional 32-bit
// immediate after each 16-bit opcode) consumed by package interp's
// dispatch loop.
package opcode

// Opcode identifies one bytecode instruction.
type Opcode uint16

const (
	Nop Opcode = iota

	// Stack.
	PushSmi  // imm32 signed
	PushLit  // imm32 index into the program's literal pool
	Dup
	Pop

	// Locals / fields / indexables.
	SetBP      // imm8 static-link levels to walk from fp; 0 resets bp to fp
	LoadLocal  // imm16 frame-relative slot (relative to bp)
	StoreLocal // imm16
	LoadField  // imm16 tuple slot index
	StoreField // imm16
	LoadIndex  // pops index, container
	StoreIndex // pops value, index, container
	LoadMap    // pops key, map
	StoreMap   // pops value, key, map
	IncIndex   // pops delta, index, container; in-place integer increment

	// Arithmetic / bitwise, one opcode per (operator, Kind) pair collapsed
	// into a single opcode carrying the Kind as an 8-bit immediate, since
	// the element Form already knows how to dispatch per Kind.
	AddOp
	SubOp
	MulOp
	DivOp
	ModOp
	AndOp
	OrOp
	XorOp
	ShlOp
	ShrOp
	NegOp
	NotOp

	// Comparison: writes a single condition-code slot consumed by the
	// branch instructions below.
	CmpEQ
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE

	// Control flow.
	Branch      // imm32 absolute pc
	BranchCond  // imm32 absolute pc; consumes the condition code
	TrapCond    // imm32 literal-pool index of the trap message; raises undef if cond false
	Enter       // imm16 frame size
	Ret
	RetU  // return, discarding the top-of-stack result (statement context)
	RetV  // return a value
	Terminate
	Stop
	VerifySP // imm16 expected stack depth, debug-only

	// Conversion.
	ConvertBasic // imm16 ConversionOp
	ConvertArray // imm16 index into Program.ConvertArrays
	ConvertMap   // imm16 index into Program.ConvertMaps

	// Aggregate creation.
	NewBytes
	NewString
	NewArray // imm16 index into Program.Forms (element Form); pops the length
	NewMap   // imm16 index into Program.MapTypes
	NewTuple // imm16 index into Program.TupleTypes

	// Call.
	CallClosure // pops a closure value; imm8 arg count
	CallIndirect

	// Emit.
	Emit // imm16 output table index
)

//go:generate stringer -type=Opcode

// StackDelta reports how many values an instruction nets onto the operand
// stack (negative for consumers), used by the code-generation verifier and
// by VerifySP. Call-site-dependent opcodes (CallClosure, CallIndirect,
// Enter, the returns) report 0 here; their real delta depends on operands
// the verifier reads separately.
func StackDelta(op Opcode) int {
	switch op {
	case PushSmi, PushLit, Dup, LoadLocal:
		return 1
	case Pop, StoreLocal, StoreField, Emit:
		return -1
	case SetBP, Branch, TrapCond:
		return 0
	case LoadField:
		return 0 // pops container, pushes field
	case LoadIndex, LoadMap:
		return -1 // pops 2, pushes 1
	case StoreIndex:
		return -2 // pops 3, pushes 1... callers check the table entry, not just the sign
	case StoreMap:
		return -2
	case IncIndex:
		return -2
	case AddOp, SubOp, MulOp, DivOp, ModOp, AndOp, OrOp, XorOp, ShlOp, ShrOp:
		return -1 // pops 2, pushes 1
	case NegOp, NotOp:
		return 0 // pops 1, pushes 1
	case CmpEQ, CmpNE, CmpLT, CmpLE, CmpGT, CmpGE:
		return -2 // pops 2, pushes a condition code, no value push
	case BranchCond:
		return 0
	case Enter, Ret, RetU, RetV, Terminate, Stop, VerifySP, Nop:
		return 0
	case ConvertBasic, ConvertArray, ConvertMap:
		return 0
	case NewBytes, NewString, NewMap, NewTuple:
		return 1
	case NewArray:
		return 0 // pops length, pushes array
	case CallClosure, CallIndirect:
		return 0
	default:
		return 0
	}
}

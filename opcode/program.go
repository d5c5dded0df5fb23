package opcode

import (
	"encoding/binary"

	"github.com/google/szl-sub000/convert"
	"github.com/google/szl-sub000/value"
)

// Code is a contiguous bytecode buffer: a 16-bit Opcode followed, for
// opcodes that take one, by a fixed 4-byte little-endian immediate (no
// variable-length instruction prefix to scan past).
type Code []byte

// PutOp appends op and a 32-bit immediate, returning the extended code.
func (c Code) PutOp(op Opcode, imm int32) Code {
	var buf [6]byte
	binary.LittleEndian.PutUint16(buf[0:2], uint16(op))
	binary.LittleEndian.PutUint32(buf[2:6], uint32(imm))
	return append(c, buf[:]...)
}

// PutOp0 appends op with no immediate (opcodes that take none, e.g. Ret,
// Dup, Pop).
func (c Code) PutOp0(op Opcode) Code {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[0:2], uint16(op))
	return append(c, buf[:]...)
}

// Decode reads one instruction at pc, returning its Opcode, 32-bit
// immediate, and the pc of the next instruction.
func Decode(code Code, pc int) (Opcode, int32, int) {
	op := Opcode(binary.LittleEndian.Uint16(code[pc : pc+2]))
	if !hasImmediate(op) {
		return op, 0, pc + 2
	}
	imm := int32(binary.LittleEndian.Uint32(code[pc+2 : pc+6]))
	return op, imm, pc + 6
}

func hasImmediate(op Opcode) bool {
	switch op {
	case Dup, Pop, LoadIndex, StoreIndex, LoadMap, StoreMap, IncIndex,
		AddOp, SubOp, MulOp, DivOp, ModOp, AndOp, OrOp, XorOp, ShlOp, ShrOp, NotOp,
		CmpEQ, CmpNE, CmpLT, CmpLE, CmpGT, CmpGE,
		Ret, RetU, RetV, Terminate, Stop,
		NewBytes, NewString,
		CallIndirect, Nop:
		return false
	default:
		return true
	}
}

// FuncDesc describes one compiled function: its entry point, parameter
// count, and frame layout — the compiler-to-runtime contract named in the
// driver interface.
type FuncDesc struct {
	Name       string
	EntryPC    int
	ParamCount int
	LocalsSize int
	FrameSize  int
}

// TrapRange is one statically-registered recovery region: a trap raised
// while pc is in [Start, End) resumes execution at Target instead of
// failing the record.
type TrapRange struct {
	Start, End int
	Target     int
}

// OutputTable describes one emitter destination: its declared name, kind
// (scalar vs. structured), and index/value Kinds, mirroring the
// compiler's symbol-table entry for an Emitter slot.
type OutputTable struct {
	Name       string
	HasWeight  bool
	IndexKinds []string
}

// ConvertArrayDesc is what ConvertArray's immediate indexes into: the
// element-wise conversion to apply plus the result array's element Form,
// since neither fits in a 32-bit immediate alongside the opcode itself.
type ConvertArrayDesc struct {
	Op    convert.ConversionOp
	Elem  value.Form
	Extra convert.Extra
}

// ConvertMapDesc is what ConvertMap's immediate indexes into: the
// key/value conversions and result Forms for an array-to-map conversion.
type ConvertMapDesc struct {
	KeyOp, ValOp       convert.ConversionOp
	KeyForm, ValForm   value.Form
	KeyExtra, ValExtra convert.Extra
}

// Program is everything the interpreter needs besides a Process: the
// bytecode, function table, trap-range table, output-table descriptors,
// and the type-descriptor pools the aggregate-creation and conversion
// opcodes index into, all produced by the (external) compiler.
type Program struct {
	Code          Code
	Funcs         []FuncDesc
	Traps         []TrapRange
	Outputs       []OutputTable
	Literals      []value.Value      // indexed by PushLit's immediate
	Forms         []value.Form       // indexed by NewArray's immediate (element Form)
	MapTypes      []*value.MapType   // indexed by NewMap's immediate
	TupleTypes    []*value.TupleType // indexed by NewTuple's immediate
	ConvertArrays []ConvertArrayDesc // indexed by ConvertArray's immediate
	ConvertMaps   []ConvertMapDesc   // indexed by ConvertMap's immediate
}

// FuncAt returns the FuncDesc whose entry point is entryPC, for resolving a
// dynamically-dispatched closure's argument count (CallIndirect has no
// compile-time-known arity of its own; the callee's own declared parameter
// count is the only place that information can come from).
func (p *Program) FuncAt(entryPC int) (FuncDesc, bool) {
	for _, fd := range p.Funcs {
		if fd.EntryPC == entryPC {
			return fd, true
		}
	}
	return FuncDesc{}, false
}

// TrapRangeFor returns the innermost registered trap range covering pc, or
// (TrapRange{}, false) if none handles it.
func (p *Program) TrapRangeFor(pc int) (TrapRange, bool) {
	best := -1
	for i, r := range p.Traps {
		if pc >= r.Start && pc < r.End {
			if best == -1 || (r.End-r.Start) < (p.Traps[best].End-p.Traps[best].Start) {
				best = i
			}
		}
	}
	if best == -1 {
		return TrapRange{}, false
	}
	return p.Traps[best], true
}

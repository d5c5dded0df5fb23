package interp

import (
	"github.com/google/szl-sub000/opcode"
	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
)

// arith performs one binary arithmetic/bitwise opcode over operands of the
// given Kind, matching the bytecode's per-Kind collapsed opcode encoding
// (op carries the operator, the immediate carries the Kind). Returns
// (result, trapped) — trapped is true on integer division/modulo by zero,
// which sets a trap and leaves result unused.
func arith(p *proc.Process, op opcode.Opcode, k value.Kind, a, b value.Value) (value.Value, bool) {
	switch k {
	case value.KindInt:
		x, y := value.Int.AsInt(p.Heap, a), value.Int.AsInt(p.Heap, b)
		if (op == opcode.DivOp || op == opcode.ModOp) && y == 0 {
			p.Heap.SetTrap("integer division by zero")
			p.SetUndef("integer division by zero")
			return value.Undef, true
		}
		return value.Int.NewVal(p.Heap, intOp(op, x, y)), false
	case value.KindUint:
		x, y := value.Uint.AsUint(p.Heap, a), value.Uint.AsUint(p.Heap, b)
		if (op == opcode.DivOp || op == opcode.ModOp) && y == 0 {
			p.Heap.SetTrap("integer division by zero")
			p.SetUndef("integer division by zero")
			return value.Undef, true
		}
		return value.Uint.NewVal(p.Heap, uintOp(op, x, y)), false
	case value.KindFloat:
		x, y := value.Float.AsFloat(p.Heap, a), value.Float.AsFloat(p.Heap, b)
		return value.Float.NewVal(p.Heap, floatOp(op, x, y)), false
	case value.KindString:
		if op == opcode.AddOp {
			return value.String.NewVal(p.Heap, value.String.Str(p.Heap, a)+value.String.Str(p.Heap, b)), false
		}
	case value.KindBytes:
		if op == opcode.AddOp {
			out := append(append([]byte(nil), value.Bytes.Bytes(p.Heap, a)...), value.Bytes.Bytes(p.Heap, b)...)
			return value.Bytes.NewVal(p.Heap, out), false
		}
	case value.KindArray:
		if op == opcode.AddOp {
			elem := value.Array.Elem(p.Heap, a)
			av, bv := value.Array.Values(p.Heap, a), value.Array.Values(p.Heap, b)
			out := make([]value.Value, 0, len(av)+len(bv))
			out = append(out, av...)
			out = append(out, bv...)
			for _, e := range out {
				if e.IsPtr() {
					p.Heap.Retain(e.Handle())
				}
			}
			return value.Array.NewValFrom(p.Heap, elem, out), false
		}
	}
	p.Heap.SetTrap("unsupported arithmetic operand kind")
	p.SetUndef("unsupported arithmetic operand kind")
	return value.Undef, true
}

func intOp(op opcode.Opcode, x, y int64) int64 {
	switch op {
	case opcode.AddOp:
		return x + y
	case opcode.SubOp:
		return x - y
	case opcode.MulOp:
		return x * y
	case opcode.DivOp:
		return x / y
	case opcode.ModOp:
		return x % y
	case opcode.AndOp:
		return x & y
	case opcode.OrOp:
		return x | y
	case opcode.XorOp:
		return x ^ y
	case opcode.ShlOp:
		return x << uint(y)
	case opcode.ShrOp:
		return x >> uint(y)
	default:
		return 0
	}
}

func uintOp(op opcode.Opcode, x, y uint64) uint64 {
	switch op {
	case opcode.AddOp:
		return x + y
	case opcode.SubOp:
		return x - y
	case opcode.MulOp:
		return x * y
	case opcode.DivOp:
		return x / y
	case opcode.ModOp:
		return x % y
	case opcode.AndOp:
		return x & y
	case opcode.OrOp:
		return x | y
	case opcode.XorOp:
		return x ^ y
	case opcode.ShlOp:
		return x << y
	case opcode.ShrOp:
		return x >> y
	default:
		return 0
	}
}

func floatOp(op opcode.Opcode, x, y float64) float64 {
	switch op {
	case opcode.AddOp:
		return x + y
	case opcode.SubOp:
		return x - y
	case opcode.MulOp:
		return x * y
	case opcode.DivOp:
		return x / y
	default:
		return 0
	}
}

func negate(p *proc.Process, k value.Kind, a value.Value) value.Value {
	switch k {
	case value.KindInt:
		return value.Int.NewVal(p.Heap, -value.Int.AsInt(p.Heap, a))
	case value.KindFloat:
		return value.Float.NewVal(p.Heap, -value.Float.AsFloat(p.Heap, a))
	default:
		return a
	}
}

package interp

import (
	"github.com/google/szl-sub000/convert"
	"github.com/google/szl-sub000/emit"
	"github.com/google/szl-sub000/opcode"
	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
)

// Emitters maps an output-table index (opcode.Program.Outputs) to the
// concrete Emitter the driver wired up for it.
type Emitters []emit.Emitter

// Execute runs prog starting at pc until completion, a trap with no
// handler, the step limit, or an external Terminate request, per the
// read-decode-dispatch-count loop used throughout the runtime. Roots for a
// heap compaction driven mid-run are the live operand stack range
// [0, p.StackLen()), which the caller can obtain via p.StackSlice(0).
func Execute(p *proc.Process, prog *opcode.Program, pc int, ems Emitters) (Status, int64) {
	fp := 0
	bp := 0
	var cond bool
	steps := p.StepCount

	for {
		if p.Terminated() {
			p.StepCount = steps
			return Terminated, steps
		}
		if p.StepLimit > 0 && steps >= p.StepLimit {
			p.StepCount = steps
			return StepLimit, steps
		}
		p.MaybeSweep(proc.DefaultSweepThreshold)

		op, imm, next := opcode.Decode(prog.Code, pc)
		steps++

		switch op {
		case opcode.Nop:

		case opcode.PushSmi:
			p.Push(value.Smi(int64(imm)))

		case opcode.PushLit:
			v := prog.Literals[imm]
			if v.IsPtr() {
				p.Heap.Retain(v.Handle())
			}
			p.Push(v)

		case opcode.Dup:
			p.Push(p.Top())

		case opcode.Pop:
			v := p.Pop()
			if v.IsPtr() {
				p.Heap.Release(v.Handle())
			}

		case opcode.SetBP:
			bp = fp
			for i := 0; i < int(imm); i++ {
				bp = readFrame(p.StackSlice(0), bp).StaticLink
			}

		case opcode.LoadLocal:
			p.Push(p.StackAt(localAddr(bp, int(imm))))

		case opcode.StoreLocal:
			v := p.Pop()
			idx := localAddr(bp, int(imm))
			old := p.StackAt(idx)
			if old.IsPtr() {
				p.Heap.Release(old.Handle())
			}
			p.SetStackAt(idx, v)

		case opcode.LoadField:
			container := p.Pop()
			v := loadField(p, container, int(imm))
			if container.IsPtr() {
				p.Heap.Release(container.Handle())
			}
			p.Push(v)

		case opcode.StoreField:
			val := p.Pop()
			container := p.Pop()
			storeField(p, container, int(imm), val)
			p.Push(container)

		case opcode.LoadIndex:
			index := p.Pop()
			container := p.Pop()
			v := loadIndex(p, container, index)
			if container.IsPtr() {
				p.Heap.Release(container.Handle())
			}
			p.Push(v)

		case opcode.StoreIndex:
			val := p.Pop()
			index := p.Pop()
			container := p.Pop()
			p.Push(storeIndex(p, container, index, val))

		case opcode.IncIndex:
			delta := p.Pop()
			index := p.Pop()
			container := p.Pop()
			p.Push(incIndex(p, container, index, delta))

		case opcode.LoadMap:
			key := p.Pop()
			m := p.Pop()
			v := loadMap(p, m, key)
			if m.IsPtr() {
				p.Heap.Release(m.Handle())
			}
			p.Push(v)

		case opcode.StoreMap:
			val := p.Pop()
			key := p.Pop()
			m := p.Pop()
			storeMap(p, m, key, val)
			p.Push(m)

		case opcode.AddOp, opcode.SubOp, opcode.MulOp, opcode.DivOp, opcode.ModOp,
			opcode.AndOp, opcode.OrOp, opcode.XorOp, opcode.ShlOp, opcode.ShrOp:
			b := p.Pop()
			a := p.Pop()
			res, trapped := arith(p, op, value.Kind(imm), a, b)
			if trapped {
				if !unwind(p, prog, &pc, &fp) {
					p.StepCount = steps
					return Failed, steps
				}
				continue
			}
			p.Push(res)

		case opcode.NegOp:
			a := p.Pop()
			p.Push(negate(p, value.Kind(imm), a))

		case opcode.NotOp:
			a := p.Pop()
			p.Push(value.Bool.NewVal(p.Heap, !value.Bool.AsBool(p.Heap, a)))

		case opcode.CmpEQ, opcode.CmpNE, opcode.CmpLT, opcode.CmpLE, opcode.CmpGT, opcode.CmpGE:
			b := p.Pop()
			a := p.Pop()
			form := value.FormOfValue(p.Heap, a)
			sign, ok := form.Cmp(p.Heap, a, b)
			if !ok {
				cond = false
			} else {
				cond = compareSign(op, sign)
			}

		case opcode.Branch:
			next = int(imm)

		case opcode.BranchCond:
			if cond {
				next = int(imm)
			}

		case opcode.TrapCond:
			if !cond {
				msg := ""
				if imm >= 0 && int(imm) < len(prog.Literals) {
					lit := prog.Literals[imm]
					if lit.IsPtr() {
						msg = value.String.Str(p.Heap, lit)
					}
				}
				p.Heap.SetTrap(msg)
				p.SetUndef(msg)
				if !unwind(p, prog, &pc, &fp) {
					p.StepCount = steps
					return Failed, steps
				}
				continue
			}

		case opcode.Enter:
			p.Grow(int(imm))

		case opcode.Ret, opcode.RetU:
			fh := readFrame(p.StackSlice(0), fp)
			base := fp - frameHeaderSize - fh.ArgCount
			p.Truncate(base)
			pc = fh.ReturnPC
			fp = fh.DynamicLink
			bp = fp
			continue

		case opcode.RetV:
			v := p.Pop()
			fh := readFrame(p.StackSlice(0), fp)
			base := fp - frameHeaderSize - fh.ArgCount
			p.Truncate(base)
			p.Push(v)
			pc = fh.ReturnPC
			fp = fh.DynamicLink
			bp = fp
			continue

		case opcode.Terminate:
			p.Terminate()

		case opcode.Stop:
			p.StepCount = steps
			return Completed, steps

		case opcode.VerifySP:
			// debug-only; a mismatch is a host bug, not a trap.
			if p.StackLen() != int(imm) {
				panic("interp: stack depth verification failed")
			}

		case opcode.ConvertBasic:
			v := p.Pop()
			out := convert.Basic(p, convert.ConversionOp(imm), v, convert.Extra{})
			p.Push(out)

		case opcode.ConvertArray:
			v := p.Pop()
			d := prog.ConvertArrays[imm]
			out := convert.Array(p, d.Op, d.Elem, v, d.Extra)
			p.Push(out)

		case opcode.ConvertMap:
			v := p.Pop()
			d := prog.ConvertMaps[imm]
			out := convert.ArrayToMap(p, d.KeyOp, d.ValOp, d.KeyForm, d.ValForm, v, d.KeyExtra, d.ValExtra)
			p.Push(out)

		case opcode.NewBytes:
			p.Push(newBytes(p))

		case opcode.NewString:
			p.Push(newString(p))

		case opcode.NewArray:
			length := p.Pop()
			p.Push(newArray(p, prog.Forms[imm], length))

		case opcode.NewMap:
			p.Push(newMap(p, prog.MapTypes[imm]))

		case opcode.NewTuple:
			p.Push(newTuple(p, prog.TupleTypes[imm]))

		case opcode.CallClosure:
			closure := p.Pop()
			entryPC, newFP := call(p, closure, next, fp, int(imm))
			pc, fp = entryPC, newFP
			bp = fp
			continue

		case opcode.CallIndirect:
			// No compile-time-known arity at the call site; look up the
			// callee's own declared parameter count by its entry point.
			closure := p.Pop()
			argCount := 0
			if fd, ok := prog.FuncAt(value.Closure.EntryPC(p.Heap, closure)); ok {
				argCount = fd.ParamCount
			}
			entryPC, newFP := call(p, closure, next, fp, argCount)
			pc, fp = entryPC, newFP
			bp = fp
			continue

		case opcode.Emit:
			v := p.Pop()
			idx := int(imm)
			if idx >= 0 && idx < len(ems) {
				emitOne(ems[idx], p, v)
			}
			if v.IsPtr() {
				p.Heap.Release(v.Handle())
			}
		}

		pc = next
	}
}

func compareSign(op opcode.Opcode, sign int) bool {
	switch op {
	case opcode.CmpEQ:
		return sign == 0
	case opcode.CmpNE:
		return sign != 0
	case opcode.CmpLT:
		return sign < 0
	case opcode.CmpLE:
		return sign <= 0
	case opcode.CmpGT:
		return sign > 0
	case opcode.CmpGE:
		return sign >= 0
	default:
		return false
	}
}

// unwind walks prog's trap-range table for the pc at which a trap was
// raised and, if a handler covers it, resumes there with the operand
// stack and frame state undisturbed (the compiler emits trap ranges only
// around expressions whose failure degrades to undefined in place).
// Returns false if no handler covers pc, meaning the record fails.
func unwind(p *proc.Process, prog *opcode.Program, pc *int, fp *int) bool {
	r, ok := prog.TrapRangeFor(*pc)
	if !ok {
		return false
	}
	*pc = r.Target
	return true
}

func emitOne(e emit.Emitter, p *proc.Process, v value.Value) {
	switch {
	case v.IsSmi():
		emit.EmitInt(e, v.AsSmi())
		return
	case v.IsUndef():
		return
	}
	form := value.FormOfValue(p.Heap, v)
	switch form.Kind() {
	case value.KindBool:
		e.Begin(emit.KindEmit, 1)
		e.PutBool(value.Bool.AsBool(p.Heap, v))
		e.End(emit.KindEmit, 1)
	case value.KindFloat:
		emit.EmitFloat(e, value.Float.AsFloat(p.Heap, v))
	case value.KindUint:
		e.Begin(emit.KindEmit, 1)
		e.PutInt(int64(value.Uint.AsUint(p.Heap, v)))
		e.End(emit.KindEmit, 1)
	case value.KindTime:
		e.Begin(emit.KindEmit, 1)
		e.PutTime(value.Time.AsTime(p.Heap, v))
		e.End(emit.KindEmit, 1)
	case value.KindFingerprint:
		e.Begin(emit.KindEmit, 1)
		e.PutFingerprint(value.Fingerprint.AsFingerprint(p.Heap, v))
		e.End(emit.KindEmit, 1)
	case value.KindString:
		e.Begin(emit.KindEmit, 1)
		e.PutString(value.String.Str(p.Heap, v))
		e.End(emit.KindEmit, 1)
	case value.KindBytes:
		e.Begin(emit.KindEmit, 1)
		e.PutBytes(value.Bytes.Bytes(p.Heap, v))
		e.End(emit.KindEmit, 1)
	}
}

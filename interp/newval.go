package interp

import (
	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
)

func newBytes(p *proc.Process) value.Value {
	return value.Bytes.NewVal(p.Heap, nil)
}

func newString(p *proc.Process) value.Value {
	return value.String.NewVal(p.Heap, "")
}

func newArray(p *proc.Process, elem value.Form, length value.Value) value.Value {
	return value.Array.NewVal(p.Heap, elem, int(value.Int.AsInt(p.Heap, length)))
}

func newMap(p *proc.Process, mt *value.MapType) value.Value {
	return mt.NewVal(p.Heap)
}

func newTuple(p *proc.Process, tt *value.TupleType) value.Value {
	return tt.NewVal(p.Heap)
}

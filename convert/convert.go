// Package convert implements the cross-type conversion table: the
// ConversionOp enum, its dispatch table (function, array/map legality,
// can-fail flag, result-array-type factory, error description), and the
// basic/array-to-array/array-to-map dispatch entry points the interpreter
// calls from its Convert* opcodes.
package convert

import (
	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
)

// ConversionOp identifies one table-driven conversion.
type ConversionOp int

const (
	IntToFloat ConversionOp = iota
	FloatToInt
	IntToString
	StringToInt
	IntToBytes
	BytesToInt
	StringToBytes
	BytesToString
	IntToTime
	TimeToInt
	IntToUint
	UintToInt
	AnyToFingerprint
	BoolToString
)

// Func performs one conversion, consuming any extra scalar arguments
// (base, encoding, timezone, target type) already resolved by the caller,
// and returns the result plus an error describing why the conversion
// failed.
type Func func(p *proc.Process, in value.Value, extra Extra) (value.Value, error)

// Extra bundles the scalar extra-arguments a conversion may consume: an
// integer base (for string<->int), an encoding name (for bytes<->string),
// and a target tuple type (for proto-tuple conversions). Not every
// conversion reads every field.
type Extra struct {
	Base     int
	Encoding string
	TZOffset int
	Target   *value.TupleType
}

// Entry is one row of the conversion table.
type Entry struct {
	Op          ConversionOp
	Name        string
	Fn          Func
	ArrayLegal  bool // usable element-wise within an array-to-array conversion
	MapLegal    bool // usable element-wise within an array-to-map conversion
	CanFail     bool
	ResultArray func(elem value.Form) ArrayType
	Describe    string // short phrase used in trap messages, e.g. "int to string"
}

// ArrayType is a minimal factory result: just the element Form, since
// value.ArrayObj carries its element Form per-instance rather than via a
// separate type descriptor.
type ArrayType = value.Form

var table = map[ConversionOp]Entry{
	IntToFloat: {
		Op: IntToFloat, Name: "int_to_float", CanFail: false, ArrayLegal: true, MapLegal: true,
		Describe: "int to float",
		Fn: func(p *proc.Process, in value.Value, _ Extra) (value.Value, error) {
			return value.Float.NewVal(p.Heap, float64(value.Int.AsInt(p.Heap, in))), nil
		},
	},
	FloatToInt: {
		Op: FloatToInt, Name: "float_to_int", CanFail: false, ArrayLegal: true, MapLegal: true,
		Describe: "float to int",
		Fn: func(p *proc.Process, in value.Value, _ Extra) (value.Value, error) {
			return value.Int.NewVal(p.Heap, int64(value.Float.AsFloat(p.Heap, in))), nil
		},
	},
	IntToUint: {
		Op: IntToUint, Name: "int_to_uint", CanFail: false, ArrayLegal: true, MapLegal: true,
		Describe: "int to uint",
		Fn: func(p *proc.Process, in value.Value, _ Extra) (value.Value, error) {
			return value.Uint.NewVal(p.Heap, uint64(value.Int.AsInt(p.Heap, in))), nil
		},
	},
	UintToInt: {
		Op: UintToInt, Name: "uint_to_int", CanFail: false, ArrayLegal: true, MapLegal: true,
		Describe: "uint to int",
		Fn: func(p *proc.Process, in value.Value, _ Extra) (value.Value, error) {
			return value.Int.NewVal(p.Heap, int64(value.Uint.AsUint(p.Heap, in))), nil
		},
	},
	IntToTime: {
		Op: IntToTime, Name: "int_to_time", CanFail: false, ArrayLegal: true, MapLegal: true,
		Describe: "int to time",
		Fn: func(p *proc.Process, in value.Value, _ Extra) (value.Value, error) {
			return value.Time.NewVal(p.Heap, value.Int.AsInt(p.Heap, in)), nil
		},
	},
	TimeToInt: {
		Op: TimeToInt, Name: "time_to_int", CanFail: false, ArrayLegal: true, MapLegal: true,
		Describe: "time to int",
		Fn: func(p *proc.Process, in value.Value, _ Extra) (value.Value, error) {
			return value.Int.NewVal(p.Heap, value.Time.AsTime(p.Heap, in)), nil
		},
	},
	IntToString: {
		Op: IntToString, Name: "int_to_string", CanFail: false, ArrayLegal: true, MapLegal: true,
		Describe: "int to string",
		Fn: func(p *proc.Process, in value.Value, extra Extra) (value.Value, error) {
			base := extra.Base
			if base == 0 {
				base = 10
			}
			return value.String.NewVal(p.Heap, formatIntBase(value.Int.AsInt(p.Heap, in), base)), nil
		},
	},
	StringToInt: {
		Op: StringToInt, Name: "string_to_int", CanFail: true, ArrayLegal: true, MapLegal: true,
		Describe: "string to int",
		Fn: func(p *proc.Process, in value.Value, extra Extra) (value.Value, error) {
			base := extra.Base
			if base == 0 {
				base = 10
			}
			x, err := parseIntBase(value.String.Str(p.Heap, in), base)
			if err != nil {
				return value.Undef, err
			}
			return value.Int.NewVal(p.Heap, x), nil
		},
	},
	BoolToString: {
		Op: BoolToString, Name: "bool_to_string", CanFail: false, ArrayLegal: true, MapLegal: true,
		Describe: "bool to string",
		Fn: func(p *proc.Process, in value.Value, _ Extra) (value.Value, error) {
			if value.Bool.AsBool(p.Heap, in) {
				return value.String.NewVal(p.Heap, "true"), nil
			}
			return value.String.NewVal(p.Heap, "false"), nil
		},
	},
	AnyToFingerprint: {
		Op: AnyToFingerprint, Name: "any_to_fingerprint", CanFail: false, ArrayLegal: false, MapLegal: false,
		Describe: "value to fingerprint",
		Fn: func(p *proc.Process, in value.Value, _ Extra) (value.Value, error) {
			form := value.FormOfValue(p.Heap, in)
			fp := form.Fingerprint(p.Heap, in)
			return value.Fingerprint.NewVal(p.Heap, fp), nil
		},
	},
}

// Lookup returns the table row for op.
func Lookup(op ConversionOp) (Entry, bool) {
	e, ok := table[op]
	return e, ok
}

// Basic performs a single scalar conversion, setting a trap (via
// p.Heap.SetTrap and p.SetUndef) and returning value.Undef on failure,
// matching the "sets trap if the function reports an error" dispatch rule.
func Basic(p *proc.Process, op ConversionOp, in value.Value, extra Extra) value.Value {
	e, ok := table[op]
	if !ok {
		p.Heap.SetTrap("unknown conversion")
		p.SetUndef("unknown conversion")
		return value.Undef
	}
	out, err := e.Fn(p, in, extra)
	if err != nil {
		msg := e.Describe + ": " + err.Error()
		p.Heap.SetTrap(msg)
		p.SetUndef(msg)
		return value.Undef
	}
	return out
}

// Array applies op element-wise to every element of an array value,
// continuing past the first failure (filling remaining slots with Undef
// so the heap sees a consistent array) and reporting the first error, if
// any, via the same trap as Basic.
func Array(p *proc.Process, op ConversionOp, elemForm value.Form, in value.Value, extra Extra) value.Value {
	e, ok := table[op]
	if !ok || !e.ArrayLegal {
		p.Heap.SetTrap("conversion not legal element-wise in array")
		p.SetUndef("conversion not legal element-wise in array")
		return value.Undef
	}
	src := value.Array.Values(p.Heap, in)
	out := make([]value.Value, len(src))
	var firstErr error
	for i, s := range src {
		v, err := e.Fn(p, s, extra)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			out[i] = value.Undef
			continue
		}
		out[i] = v
	}
	result := value.Array.NewValFrom(p.Heap, elemForm, out)
	if firstErr != nil {
		msg := e.Describe + ": " + firstErr.Error()
		p.Heap.SetTrap(msg)
		p.SetUndef(msg)
	}
	return result
}

// ArrayToMap interprets src as a flat key,value,key,value,... sequence and
// builds a map by applying keyOp to even-indexed elements and valOp to
// odd-indexed ones. Length must be even.
func ArrayToMap(p *proc.Process, keyOp, valOp ConversionOp, keyForm, valForm value.Form, src value.Value, keyExtra, valExtra Extra) value.Value {
	vals := value.Array.Values(p.Heap, src)
	if len(vals)%2 != 0 {
		p.Heap.SetTrap("array-to-map conversion needs an even-length array")
		p.SetUndef("array-to-map conversion needs an even-length array")
		return value.Undef
	}
	ke, ok := table[keyOp]
	if !ok || !ke.MapLegal {
		p.Heap.SetTrap("key conversion not legal in array-to-map")
		return value.Undef
	}
	ve, ok := table[valOp]
	if !ok || !ve.MapLegal {
		p.Heap.SetTrap("value conversion not legal in array-to-map")
		return value.Undef
	}
	mt := value.NewMapType(keyForm, valForm)
	m := mt.NewVal(p.Heap)
	for i := 0; i < len(vals); i += 2 {
		k, err := ke.Fn(p, vals[i], keyExtra)
		if err != nil {
			p.Heap.SetTrap(ke.Describe + ": " + err.Error())
			continue
		}
		v, err := ve.Fn(p, vals[i+1], valExtra)
		if err != nil {
			p.Heap.SetTrap(ve.Describe + ": " + err.Error())
			continue
		}
		mt.Set(p.Heap, m, k, v)
	}
	return m
}

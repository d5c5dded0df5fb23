// Package wire implements the protocol-buffer tuple codec: decoding a wire
// message into a value.TupleObj with in-proto bit tracking and
// default-value filling, and encoding one back out. Low-level varint,
// zigzag, and tag parsing is delegated to protowire rather than
// hand-rolled.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
)

// ReadTuple decodes data as a proto message of typ into a fresh tuple
// value, filling every field not present on the wire with its declared
// default. p.BytesRead and p.BytesSkipped accumulate decode telemetry
// across calls. In strict mode (p.StrictProto) an unrecognized tag is a
// decode error; otherwise it is skipped and counted in BytesSkipped.
func ReadTuple(p *proc.Process, typ *value.TupleType, data []byte) (value.Value, error) {
	v := typ.NewVal(p.Heap)
	if err := decodeInto(p, typ, v, data); err != nil {
		return value.Undef, err
	}
	return v, nil
}

func decodeInto(p *proc.Process, typ *value.TupleType, v value.Value, data []byte) error {
	offset := 0
	for len(data) > 0 {
		num, wt, n := protowire.ConsumeTag(data)
		if n < 0 {
			return &DecodeError{code: errCodeFieldNumber, offset: offset}
		}
		data = data[n:]
		offset += n

		idx, known := typ.FieldIndex(int(num))
		if !known {
			n2 := protowire.ConsumeFieldValue(protowire.Number(num), wt, data)
			if n2 < 0 {
				return &DecodeError{code: errCodeWireType, offset: offset}
			}
			if p.StrictProto {
				return &DecodeError{code: errCodeUnknownField, offset: offset, field: fmt.Sprintf("#%d", num)}
			}
			data = data[n2:]
			offset += n2
			p.BytesSkipped += int64(n2)
			continue
		}

		fd := typ.Fields[idx]
		consumed, err := decodeField(p, v, typ, idx, fd, wt, data)
		if err != nil {
			return err
		}
		data = data[consumed:]
		offset += consumed
		p.BytesRead += int64(consumed)
	}
	return nil
}

func decodeField(p *proc.Process, v value.Value, typ *value.TupleType, idx int, fd value.FieldDesc, wt protowire.Type, data []byte) (int, error) {
	if wt == protowire.StartGroupType {
		if fd.Kind != value.KindTuple || fd.IsMessage {
			return 0, &DecodeError{code: errCodeWireType, field: fd.Name}
		}
		val, n, err := decodeGroupField(p, fd, data)
		if err != nil {
			return 0, err
		}
		if fd.Repeated {
			appendRepeated(p, v, typ, idx, fd, val)
			return n, nil
		}
		typ.Set(p.Heap, v, idx, val)
		return n, nil
	}
	if fd.Repeated && wt == protowire.BytesType && fd.Wire != value.WireBytes {
		return decodeRepeatedPacked(p, v, typ, idx, fd, data)
	}
	val, n, err := decodeScalar(p, fd, data)
	if err != nil {
		return 0, err
	}
	if fd.Repeated {
		appendRepeated(p, v, typ, idx, fd, val)
		return n, nil
	}
	typ.Set(p.Heap, v, idx, val)
	return n, nil
}

// decodeGroupField decodes a start/end-tagged nested tuple (a field whose
// IsMessage is false): the content between the start tag already consumed
// by decodeInto's ConsumeTag and the matching end tag for the same field
// number, recursively decoded as a tuple message in its own right.
func decodeGroupField(p *proc.Process, fd value.FieldDesc, data []byte) (value.Value, int, error) {
	raw, n := protowire.ConsumeGroup(protowire.Number(fd.Tag), data)
	if n < 0 {
		return value.Undef, 0, &DecodeError{code: errCodeTruncated, field: fd.Name}
	}
	nested, ok := fd.Form.(interface{ TupleType() *value.TupleType })
	if !ok {
		return value.Undef, 0, fmt.Errorf("wire: field %q has no nested tuple type", fd.Name)
	}
	nv, err := ReadTuple(p, nested.TupleType(), raw)
	if err != nil {
		return value.Undef, 0, err
	}
	return nv, n, nil
}

func appendRepeated(p *proc.Process, v value.Value, typ *value.TupleType, idx int, fd value.FieldDesc, elem value.Value) {
	cur := typ.Get(p.Heap, v, idx)
	var next value.Value
	if cur.IsUndef() {
		next = value.Array.NewValFrom(p.Heap, fd.Form, []value.Value{elem})
	} else {
		n := value.Array.Len(p.Heap, cur)
		next = value.Array.SetSlice(p.Heap, cur, n, n, []value.Value{elem})
	}
	typ.Set(p.Heap, v, idx, next)
}

func decodeRepeatedPacked(p *proc.Process, v value.Value, typ *value.TupleType, idx int, fd value.FieldDesc, data []byte) (int, error) {
	payload, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return 0, &DecodeError{code: errCodeTruncated}
	}
	elems := make([]value.Value, 0, 8)
	for len(payload) > 0 {
		val, consumed, err := decodePackedScalar(p, fd, payload)
		if err != nil {
			return 0, err
		}
		elems = append(elems, val)
		payload = payload[consumed:]
	}
	cur := typ.Get(p.Heap, v, idx)
	var next value.Value
	if cur.IsUndef() {
		next = value.Array.NewValFrom(p.Heap, fd.Form, elems)
	} else {
		ln := value.Array.Len(p.Heap, cur)
		next = value.Array.SetSlice(p.Heap, cur, ln, ln, elems)
	}
	typ.Set(p.Heap, v, idx, next)
	return n, nil
}

func decodePackedScalar(p *proc.Process, fd value.FieldDesc, data []byte) (value.Value, int, error) {
	switch fd.Wire {
	case value.WireVarint:
		x, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return value.Undef, 0, &DecodeError{code: errCodeOverflow}
		}
		return scalarFromVarint(p, fd, x), n, nil
	case value.WireFixed32:
		x, n := protowire.ConsumeFixed32(data)
		if n < 0 {
			return value.Undef, 0, &DecodeError{code: errCodeTruncated}
		}
		return scalarFromFixed32(p, fd, x), n, nil
	case value.WireFixed64:
		x, n := protowire.ConsumeFixed64(data)
		if n < 0 {
			return value.Undef, 0, &DecodeError{code: errCodeTruncated}
		}
		return scalarFromFixed64(p, fd, x), n, nil
	default:
		return value.Undef, 0, fmt.Errorf("wire: field %q cannot be packed", fd.Name)
	}
}

func decodeScalar(p *proc.Process, fd value.FieldDesc, data []byte) (value.Value, int, error) {
	switch fd.Wire {
	case value.WireVarint:
		x, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return value.Undef, 0, &DecodeError{code: errCodeOverflow}
		}
		return scalarFromVarint(p, fd, x), n, nil
	case value.WireFixed32:
		x, n := protowire.ConsumeFixed32(data)
		if n < 0 {
			return value.Undef, 0, &DecodeError{code: errCodeTruncated}
		}
		return scalarFromFixed32(p, fd, x), n, nil
	case value.WireFixed64:
		x, n := protowire.ConsumeFixed64(data)
		if n < 0 {
			return value.Undef, 0, &DecodeError{code: errCodeTruncated}
		}
		return scalarFromFixed64(p, fd, x), n, nil
	case value.WireBytes:
		if fd.IsMessage || fd.Kind == value.KindTuple {
			return decodeMessageField(p, fd, data)
		}
		raw, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return value.Undef, 0, &DecodeError{code: errCodeTruncated}
		}
		if fd.Kind == value.KindString {
			return value.String.NewVal(p.Heap, string(raw)), n, nil
		}
		return value.Bytes.NewVal(p.Heap, raw), n, nil
	default:
		return value.Undef, 0, fmt.Errorf("wire: unhandled wire kind for field %q", fd.Name)
	}
}

func decodeMessageField(p *proc.Process, fd value.FieldDesc, data []byte) (value.Value, int, error) {
	raw, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return value.Undef, 0, &DecodeError{code: errCodeTruncated}
	}
	nested, ok := fd.Form.(interface{ TupleType() *value.TupleType })
	if !ok {
		return value.Undef, 0, fmt.Errorf("wire: field %q has no nested tuple type", fd.Name)
	}
	nv, err := ReadTuple(p, nested.TupleType(), raw)
	if err != nil {
		return value.Undef, 0, err
	}
	return nv, n, nil
}

func scalarFromVarint(p *proc.Process, fd value.FieldDesc, x uint64) value.Value {
	switch fd.Kind {
	case value.KindBool:
		return value.Bool.NewVal(p.Heap, x != 0)
	case value.KindInt, value.KindTime:
		return value.Int.NewVal(p.Heap, int64(x))
	case value.KindUint, value.KindFingerprint:
		return value.Uint.NewVal(p.Heap, x)
	default:
		return value.Int.NewVal(p.Heap, int64(x))
	}
}

func scalarFromFixed32(p *proc.Process, fd value.FieldDesc, x uint32) value.Value {
	if fd.Kind == value.KindFloat {
		return value.Float.NewVal(p.Heap, float64(math32FromBits(x)))
	}
	return value.Uint.NewVal(p.Heap, uint64(x))
}

func scalarFromFixed64(p *proc.Process, fd value.FieldDesc, x uint64) value.Value {
	switch fd.Kind {
	case value.KindFloat:
		return value.Float.NewVal(p.Heap, math64FromBits(x))
	case value.KindFingerprint:
		return value.Fingerprint.NewVal(p.Heap, x)
	default:
		return value.Uint.NewVal(p.Heap, x)
	}
}

package wire

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
)

// WriteTuple appends the wire encoding of v (a tuple of type typ) to buf,
// emitting only fields whose in-proto bit is set, and returns the extended
// buffer. Repeated scalar fields are emitted packed; repeated message
// fields are emitted as one length-delimited entry per element; repeated
// group fields are emitted as one start/end-tagged entry per element.
func WriteTuple(p *proc.Process, typ *value.TupleType, v value.Value, buf []byte) []byte {
	for i, fd := range typ.Fields {
		if fd.Tag == 0 || !typ.InProto(p.Heap, v, i) {
			continue
		}
		buf = appendField(p, fd, typ.Get(p.Heap, v, i), buf)
	}
	return buf
}

// isGroupField reports whether fd is a nested tuple field encoded with
// start/end group tags rather than as a length-delimited submessage.
func isGroupField(fd value.FieldDesc) bool {
	return fd.Kind == value.KindTuple && !fd.IsMessage
}

func appendField(p *proc.Process, fd value.FieldDesc, val value.Value, buf []byte) []byte {
	num := protowire.Number(fd.Tag)
	if fd.Repeated {
		elems := value.Array.Values(p.Heap, val)
		if isGroupField(fd) {
			for _, e := range elems {
				buf = protowire.AppendTag(buf, num, protowire.StartGroupType)
				buf = protowire.AppendGroup(buf, num, encodeMessage(p, fd, e))
			}
			return buf
		}
		if fd.Wire == value.WireBytes && (fd.IsMessage || fd.Kind == value.KindTuple) {
			for _, e := range elems {
				buf = protowire.AppendTag(buf, num, protowire.BytesType)
				buf = protowire.AppendBytes(buf, encodeMessage(p, fd, e))
			}
			return buf
		}
		buf = protowire.AppendTag(buf, num, protowire.BytesType)
		var packed []byte
		for _, e := range elems {
			packed = appendScalar(p, fd, e, packed)
		}
		return protowire.AppendBytes(buf, packed)
	}
	if isGroupField(fd) {
		// AppendGroup writes only the body and the end-group tag.
		buf = protowire.AppendTag(buf, num, protowire.StartGroupType)
		return protowire.AppendGroup(buf, num, encodeMessage(p, fd, val))
	}
	wt := wireTypeFor(fd)
	buf = protowire.AppendTag(buf, num, wt)
	if wt == protowire.BytesType && (fd.IsMessage || fd.Kind == value.KindTuple) {
		return protowire.AppendBytes(buf, encodeMessage(p, fd, val))
	}
	return appendScalar(p, fd, val, buf)
}

func encodeMessage(p *proc.Process, fd value.FieldDesc, val value.Value) []byte {
	nested, ok := fd.Form.(interface{ TupleType() *value.TupleType })
	if !ok {
		return nil
	}
	return WriteTuple(p, nested.TupleType(), val, nil)
}

func wireTypeFor(fd value.FieldDesc) protowire.Type {
	switch fd.Wire {
	case value.WireVarint:
		return protowire.VarintType
	case value.WireFixed32:
		return protowire.Fixed32Type
	case value.WireFixed64:
		return protowire.Fixed64Type
	default:
		return protowire.BytesType
	}
}

func appendScalar(p *proc.Process, fd value.FieldDesc, val value.Value, buf []byte) []byte {
	switch fd.Wire {
	case value.WireVarint:
		return protowire.AppendVarint(buf, varintBitsFor(p, fd, val))
	case value.WireFixed32:
		return protowire.AppendFixed32(buf, fixed32BitsFor(p, fd, val))
	case value.WireFixed64:
		return protowire.AppendFixed64(buf, fixed64BitsFor(p, fd, val))
	case value.WireBytes:
		return protowire.AppendBytes(buf, bytesFor(p, fd, val))
	default:
		return buf
	}
}

func varintBitsFor(p *proc.Process, fd value.FieldDesc, val value.Value) uint64 {
	switch fd.Kind {
	case value.KindBool:
		if value.Bool.AsBool(p.Heap, val) {
			return 1
		}
		return 0
	case value.KindInt:
		return uint64(value.Int.AsInt(p.Heap, val))
	case value.KindTime:
		return uint64(value.Time.AsTime(p.Heap, val))
	case value.KindUint:
		return value.Uint.AsUint(p.Heap, val)
	case value.KindFingerprint:
		return value.Fingerprint.AsFingerprint(p.Heap, val)
	default:
		return 0
	}
}

func fixed32BitsFor(p *proc.Process, fd value.FieldDesc, val value.Value) uint32 {
	if fd.Kind == value.KindFloat {
		return math.Float32bits(float32(value.Float.AsFloat(p.Heap, val)))
	}
	return uint32(value.Uint.AsUint(p.Heap, val))
}

func fixed64BitsFor(p *proc.Process, fd value.FieldDesc, val value.Value) uint64 {
	switch fd.Kind {
	case value.KindFloat:
		return math.Float64bits(value.Float.AsFloat(p.Heap, val))
	case value.KindFingerprint:
		return value.Fingerprint.AsFingerprint(p.Heap, val)
	default:
		return value.Uint.AsUint(p.Heap, val)
	}
}

func bytesFor(p *proc.Process, fd value.FieldDesc, val value.Value) []byte {
	if fd.Kind == value.KindString {
		return []byte(value.String.Str(p.Heap, val))
	}
	return value.Bytes.Bytes(p.Heap, val)
}

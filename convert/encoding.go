package convert

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/google/szl-sub000/internal/zigzag"
	"github.com/google/szl-sub000/proc"
	"github.com/google/szl-sub000/value"
)

// decodeBytes converts raw bytes to a string according to the named
// encoding option: UTF-8 (also the empty string), latin-1, hex,
// array-literal and unicode. Any other name, including the integer
// packings, returns an "unknown encoding" error.
func decodeBytes(encoding string, raw []byte) (string, error) {
	switch encoding {
	case "", "UTF-8":
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("invalid UTF-8 input")
		}
		return string(raw), nil
	case "latin-1":
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("latin-1 decode: %w", err)
		}
		return string(out), nil
	case "hex":
		out := make([]byte, hex.EncodedLen(len(raw)))
		hex.Encode(out, raw)
		return string(out), nil
	case "array-literal":
		return arrayLiteral(raw), nil
	case "unicode":
		return decodeUnicode(raw)
	default:
		return "", fmt.Errorf("unknown encoding %q", encoding)
	}
}

// encodeString converts a string to bytes according to the named encoding
// option.
func encodeString(encoding string, s string) ([]byte, error) {
	switch encoding {
	case "", "UTF-8":
		return []byte(s), nil
	case "latin-1":
		out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("latin-1 encode: %w", err)
		}
		return out, nil
	case "hex":
		out := make([]byte, hex.DecodedLen(len(s)))
		n, err := hex.Decode(out, []byte(s))
		if err != nil {
			return nil, fmt.Errorf("hex decode: %w", err)
		}
		return out[:n], nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}
}

func arrayLiteral(raw []byte) string {
	out := make([]byte, 0, len(raw)*4)
	out = append(out, '{')
	for i, b := range raw {
		if i > 0 {
			out = append(out, ',', ' ')
		}
		out = append(out, []byte(fmt.Sprintf("%d", b))...)
	}
	out = append(out, '}')
	return string(out)
}

func decodeUnicode(raw []byte) (string, error) {
	if len(raw)%4 != 0 {
		return "", fmt.Errorf("unicode encoding requires a multiple of 4 bytes")
	}
	runes := make([]rune, 0, len(raw)/4)
	for i := 0; i < len(raw); i += 4 {
		runes = append(runes, rune(binary.BigEndian.Uint32(raw[i:i+4])))
	}
	return string(runes), nil
}

// packFixed32 / packFixed64 / packVarint implement the integer-packing
// encoding options via encoding/binary and the shared zigzag helper.
func packFixed32(little bool, x int64) []byte {
	buf := make([]byte, 4)
	if little {
		binary.LittleEndian.PutUint32(buf, uint32(x))
	} else {
		binary.BigEndian.PutUint32(buf, uint32(x))
	}
	return buf
}

func packFixed64(little bool, x int64) []byte {
	buf := make([]byte, 8)
	if little {
		binary.LittleEndian.PutUint64(buf, uint64(x))
	} else {
		binary.BigEndian.PutUint64(buf, uint64(x))
	}
	return buf
}

func packVarint(x int64) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, uint64(x))
	return buf[:n]
}

func packZigzag(x int64) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, zigzag.Encode(x))
	return buf[:n]
}

func init() {
	table[BytesToString] = Entry{
		Op: BytesToString, Name: "bytes_to_string", CanFail: true, ArrayLegal: true, MapLegal: true,
		Describe: "bytes to string",
		Fn: func(p *proc.Process, in value.Value, extra Extra) (value.Value, error) {
			s, err := decodeBytes(extra.Encoding, value.Bytes.Bytes(p.Heap, in))
			if err != nil {
				return value.Undef, err
			}
			return value.String.NewVal(p.Heap, s), nil
		},
	}
	table[StringToBytes] = Entry{
		Op: StringToBytes, Name: "string_to_bytes", CanFail: true, ArrayLegal: true, MapLegal: true,
		Describe: "string to bytes",
		Fn: func(p *proc.Process, in value.Value, extra Extra) (value.Value, error) {
			b, err := encodeString(extra.Encoding, value.String.Str(p.Heap, in))
			if err != nil {
				return value.Undef, err
			}
			return value.Bytes.NewVal(p.Heap, b), nil
		},
	}
	table[IntToBytes] = Entry{
		Op: IntToBytes, Name: "int_to_bytes", CanFail: true, ArrayLegal: true, MapLegal: true,
		Describe: "int to bytes",
		Fn: func(p *proc.Process, in value.Value, extra Extra) (value.Value, error) {
			x := value.Int.AsInt(p.Heap, in)
			var b []byte
			switch extra.Encoding {
			case "fixed32-little":
				b = packFixed32(true, x)
			case "fixed32-big":
				b = packFixed32(false, x)
			case "fixed64-little":
				b = packFixed64(true, x)
			case "fixed64-big":
				b = packFixed64(false, x)
			case "varint":
				b = packVarint(x)
			case "zigzag":
				b = packZigzag(x)
			default:
				return value.Undef, fmt.Errorf("unknown encoding %q", extra.Encoding)
			}
			return value.Bytes.NewVal(p.Heap, b), nil
		},
	}
	table[BytesToInt] = Entry{
		Op: BytesToInt, Name: "bytes_to_int", CanFail: true, ArrayLegal: true, MapLegal: true,
		Describe: "bytes to int",
		Fn: func(p *proc.Process, in value.Value, extra Extra) (value.Value, error) {
			raw := value.Bytes.Bytes(p.Heap, in)
			x, err := unpackInt(extra.Encoding, raw)
			if err != nil {
				return value.Undef, err
			}
			return value.Int.NewVal(p.Heap, x), nil
		},
	}
}

func unpackInt(encoding string, raw []byte) (int64, error) {
	switch encoding {
	case "fixed32-little":
		if len(raw) != 4 {
			return 0, fmt.Errorf("fixed32 requires 4 bytes, got %d", len(raw))
		}
		return int64(int32(binary.LittleEndian.Uint32(raw))), nil
	case "fixed32-big":
		if len(raw) != 4 {
			return 0, fmt.Errorf("fixed32 requires 4 bytes, got %d", len(raw))
		}
		return int64(int32(binary.BigEndian.Uint32(raw))), nil
	case "fixed64-little":
		if len(raw) != 8 {
			return 0, fmt.Errorf("fixed64 requires 8 bytes, got %d", len(raw))
		}
		return int64(binary.LittleEndian.Uint64(raw)), nil
	case "fixed64-big":
		if len(raw) != 8 {
			return 0, fmt.Errorf("fixed64 requires 8 bytes, got %d", len(raw))
		}
		return int64(binary.BigEndian.Uint64(raw)), nil
	case "varint":
		x, n := binary.Uvarint(raw)
		if n <= 0 {
			return 0, fmt.Errorf("malformed varint")
		}
		return int64(x), nil
	case "zigzag":
		x, n := binary.Uvarint(raw)
		if n <= 0 {
			return 0, fmt.Errorf("malformed zigzag varint")
		}
		return zigzag.Decode(x), nil
	case "", "native":
		if len(raw) != 8 {
			return 0, fmt.Errorf("native int packing requires 8 bytes, got %d", len(raw))
		}
		return int64(binary.LittleEndian.Uint64(raw)), nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", encoding)
	}
}

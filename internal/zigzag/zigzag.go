// Package zigzag provides zigzag encode/decode for the proto wire codec and
// the sint32/sint64 conversion-table encodings: a thin wrapper over
// protowire's zigzag primitives operating on plain integers.
package zigzag

import "google.golang.org/protobuf/encoding/protowire"

// Encode zigzag-encodes a signed 64-bit value.
func Encode(v int64) uint64 {
	return protowire.EncodeZigZag(v)
}

// Decode zigzag-decodes a 64-bit value.
func Decode(v uint64) int64 {
	return protowire.DecodeZigZag(v)
}

// Encode32 zigzag-encodes a signed 32-bit value into the low 32 bits of a
// uint32.
func Encode32(v int32) uint32 {
	return uint32(protowire.EncodeZigZag(int64(v)))
}

// Decode32 zigzag-decodes a 32-bit value.
func Decode32(v uint32) int32 {
	return int32(protowire.DecodeZigZag(uint64(v)))
}

// Package encoding provides the little-endian fixed-width and varint
// primitives used by the filter block and filter file formats.
//
// All multi-byte integers are encoded in little-endian format.
// Variable-length integers (varints) use 7-bit encoding with MSB continuation.
//
// Reference: LevelDB util/coding.h, util/coding.cc
package encoding

import (
	"encoding/binary"
	"errors"
)

// MaxVarint32Length is the maximum number of bytes a varint32 can occupy.
const MaxVarint32Length = 5

// MaxVarint64Length is the maximum number of bytes a varint64 can occupy.
const MaxVarint64Length = 10

var (
	// ErrBufferTooSmall is returned when the buffer doesn't have enough space.
	ErrBufferTooSmall = errors.New("encoding: buffer too small")

	// ErrVarintOverflow is returned when a varint exceeds the maximum value.
	ErrVarintOverflow = errors.New("encoding: varint overflow")

	// ErrVarintTermination is returned when varint doesn't terminate properly.
	ErrVarintTermination = errors.New("encoding: varint not terminated")
)

// -----------------------------------------------------------------------------
// Fixed-width encoding (little-endian)
// -----------------------------------------------------------------------------

// EncodeFixed32 encodes a uint32 into a 4-byte little-endian buffer.
// REQUIRES: dst has at least 4 bytes.
func EncodeFixed32(dst []byte, value uint32) {
	binary.LittleEndian.PutUint32(dst, value)
}

// DecodeFixed32 decodes a uint32 from a 4-byte little-endian buffer.
// REQUIRES: src has at least 4 bytes.
func DecodeFixed32(src []byte) uint32 {
	return binary.LittleEndian.Uint32(src)
}

// EncodeFixed64 encodes a uint64 into an 8-byte little-endian buffer.
// REQUIRES: dst has at least 8 bytes.
func EncodeFixed64(dst []byte, value uint64) {
	binary.LittleEndian.PutUint64(dst, value)
}

// DecodeFixed64 decodes a uint64 from an 8-byte little-endian buffer.
// REQUIRES: src has at least 8 bytes.
func DecodeFixed64(src []byte) uint64 {
	return binary.LittleEndian.Uint64(src)
}

// AppendFixed32 appends a little-endian uint32 to dst and returns the extended slice.
func AppendFixed32(dst []byte, value uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, value)
}

// AppendFixed64 appends a little-endian uint64 to dst and returns the extended slice.
func AppendFixed64(dst []byte, value uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, value)
}

// -----------------------------------------------------------------------------
// Variable-length encoding (7-bit with MSB continuation)
// -----------------------------------------------------------------------------

// AppendVarint32 appends a uint32 as a varint to dst and returns the extended slice.
func AppendVarint32(dst []byte, value uint32) []byte {
	return AppendVarint64(dst, uint64(value))
}

// DecodeVarint32 decodes a varint32 from src.
// Returns the decoded value and the number of bytes consumed.
// Returns (0, 0, error) on error.
func DecodeVarint32(src []byte) (value uint32, bytesRead int, err error) {
	var result uint32
	for shift := uint(0); shift < 32; shift += 7 {
		if bytesRead >= len(src) {
			return 0, 0, ErrVarintTermination
		}
		b := src[bytesRead]
		bytesRead++
		if b < 128 {
			result |= uint32(b) << shift
			return result, bytesRead, nil
		}
		result |= uint32(b&0x7f) << shift
	}
	return 0, 0, ErrVarintOverflow
}

// AppendVarint64 appends a uint64 as a varint to dst and returns the extended slice.
func AppendVarint64(dst []byte, value uint64) []byte {
	const B = 128
	for value >= B {
		dst = append(dst, byte(value&(B-1))|B)
		value >>= 7
	}
	return append(dst, byte(value))
}

// DecodeVarint64 decodes a varint64 from src.
// Returns the decoded value and the number of bytes consumed.
// Returns (0, 0, error) on error.
func DecodeVarint64(src []byte) (value uint64, bytesRead int, err error) {
	var result uint64
	for shift := uint(0); shift < 64; shift += 7 {
		if bytesRead >= len(src) {
			return 0, 0, ErrVarintTermination
		}
		b := src[bytesRead]
		bytesRead++
		if b < 128 {
			result |= uint64(b) << shift
			return result, bytesRead, nil
		}
		result |= uint64(b&0x7f) << shift
	}
	return 0, 0, ErrVarintOverflow
}

// VarintLength returns the number of bytes needed to encode v as a varint.
func VarintLength(v uint64) int {
	length := 1
	for v >= 128 {
		v >>= 7
		length++
	}
	return length
}

// -----------------------------------------------------------------------------
// Length-prefixed slices
// -----------------------------------------------------------------------------

// AppendLengthPrefixedSlice appends a length-prefixed slice to dst.
// Format: [varint32 length][bytes]
func AppendLengthPrefixedSlice(dst []byte, value []byte) []byte {
	dst = AppendVarint32(dst, uint32(len(value)))
	return append(dst, value...)
}

// DecodeLengthPrefixedSlice decodes a length-prefixed slice from src.
// Returns the slice (pointing into src), bytes consumed, and any error.
func DecodeLengthPrefixedSlice(src []byte) (value []byte, bytesRead int, err error) {
	length, n, err := DecodeVarint32(src)
	if err != nil {
		return nil, 0, err
	}
	bytesRead = n
	if uint64(bytesRead)+uint64(length) > uint64(len(src)) {
		return nil, 0, ErrBufferTooSmall
	}
	value = src[bytesRead : bytesRead+int(length)]
	bytesRead += int(length)
	return value, bytesRead, nil
}

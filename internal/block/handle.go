// Package block implements the block-level framing of filter files.
//
// Every block in a filter file is followed by a 5-byte trailer:
//
//	compression_type: uint8
//	checksum:         fixed32 over (block contents, compression_type)
//
// Blocks are located through Handles (varint offset + varint size, size not
// including the trailer), and the file ends with a fixed-size Footer.
//
// Reference: RocksDB v10.7.5
//   - table/format.h (BlockHandle, Footer)
//   - table/block_based/block_based_table_builder.cc (WriteMaybeCompressedBlock)
package block

import (
	"errors"

	"github.com/aalhour/rockyardfilter/internal/encoding"
)

var (
	// ErrBadBlockHandle is returned when a block handle is corrupted.
	ErrBadBlockHandle = errors.New("block: bad block handle")

	// ErrBadBlockFooter is returned when a footer is corrupted.
	ErrBadBlockFooter = errors.New("block: bad block footer")

	// ErrBadBlock is returned when a block is corrupted.
	ErrBadBlock = errors.New("block: corrupted block")

	// ErrChecksumMismatch is returned when a block trailer checksum does not match.
	ErrChecksumMismatch = errors.New("block: checksum mismatch")
)

// Handle is a pointer to the extent of a file that stores a block.
type Handle struct {
	Offset uint64
	Size   uint64
}

// MaxEncodedLength is the maximum encoding length of a Handle.
// Two varint64s, each up to 10 bytes.
const MaxEncodedLength = 2 * encoding.MaxVarint64Length

// EncodeTo appends the encoding of h to dst.
func (h Handle) EncodeTo(dst []byte) []byte {
	dst = encoding.AppendVarint64(dst, h.Offset)
	return encoding.AppendVarint64(dst, h.Size)
}

// DecodeHandle decodes a block handle from data and returns the remaining bytes.
func DecodeHandle(data []byte) (Handle, []byte, error) {
	offset, n, err := encoding.DecodeVarint64(data)
	if err != nil {
		return Handle{}, nil, ErrBadBlockHandle
	}
	data = data[n:]

	size, n, err := encoding.DecodeVarint64(data)
	if err != nil {
		return Handle{}, nil, ErrBadBlockHandle
	}
	return Handle{Offset: offset, Size: size}, data[n:], nil
}

package block

import (
	"fmt"

	"github.com/aalhour/rockyardfilter/internal/checksum"
	"github.com/aalhour/rockyardfilter/internal/compression"
	"github.com/aalhour/rockyardfilter/internal/encoding"
)

// TrailerSize is the size of the trailer that follows every block.
const TrailerSize = 5

// Encode frames contents as a block: the possibly compressed payload
// followed by the trailer. Compression is only kept when it saves at least
// 12.5% of the raw size. Formats that do not embed the uncompressed size
// are prefixed with it as a varint32.
//
// It returns the encoded block and the compression type actually used.
func Encode(contents []byte, ct compression.Type, cs checksum.Type) ([]byte, compression.Type, error) {
	if !cs.IsSupported() {
		return nil, 0, fmt.Errorf("block: unsupported checksum type %s", cs)
	}

	payload := contents
	used := compression.NoCompression
	if ct != compression.NoCompression {
		compressed, err := compression.Compress(ct, contents)
		if err != nil {
			return nil, 0, err
		}
		if !ct.HasEmbeddedSize() {
			compressed = append(encoding.AppendVarint32(nil, uint32(len(contents))), compressed...)
		}
		if len(compressed) < len(contents)-len(contents)/8 {
			payload = compressed
			used = ct
		}
	}

	out := make([]byte, 0, len(payload)+TrailerSize)
	out = append(out, payload...)
	out = append(out, byte(used))
	out = encoding.AppendFixed32(out, checksum.ComputeChecksum(cs, payload, byte(used)))
	return out, used, nil
}

// Decode verifies and unframes a block read from disk. raw must hold the
// payload followed by the trailer. When verify is false the checksum is not
// checked. The result aliases raw when the block is not compressed.
func Decode(raw []byte, cs checksum.Type, verify bool) ([]byte, error) {
	if len(raw) < TrailerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the trailer", ErrBadBlock, len(raw))
	}
	n := len(raw) - TrailerSize
	payload := raw[:n]
	ct := compression.Type(raw[n])

	if verify && cs != checksum.TypeNoChecksum {
		stored := encoding.DecodeFixed32(raw[n+1:])
		actual := checksum.ComputeChecksum(cs, payload, byte(ct))
		if stored != actual {
			return nil, fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrChecksumMismatch, stored, actual)
		}
	}

	if ct == compression.NoCompression {
		return payload, nil
	}
	if !ct.IsSupported() {
		return nil, fmt.Errorf("%w: unknown compression type %d", ErrBadBlock, uint8(ct))
	}

	var want uint32
	hasPrefix := !ct.HasEmbeddedSize()
	if hasPrefix {
		size, m, err := encoding.DecodeVarint32(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: bad uncompressed size: %v", ErrBadBlock, err)
		}
		want = size
		payload = payload[m:]
	}

	contents, err := compression.Decompress(ct, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBlock, err)
	}
	if hasPrefix && uint32(len(contents)) != want {
		return nil, fmt.Errorf("%w: uncompressed size %d, expected %d", ErrBadBlock, len(contents), want)
	}
	return contents, nil
}

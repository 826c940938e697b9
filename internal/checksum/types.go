package checksum

import (
	"fmt"
)

// Type represents the type of checksum algorithm.
// Values match RocksDB's ChecksumType enum.
type Type uint8

const (
	// TypeNoChecksum means no checksum is used.
	TypeNoChecksum Type = 0
	// TypeCRC32C is CRC32C (Castagnoli) checksum.
	TypeCRC32C Type = 1
	// TypeXXH3 is XXH3 checksum.
	TypeXXH3 Type = 4
)

// String returns a human-readable name for the checksum type.
func (t Type) String() string {
	switch t {
	case TypeNoChecksum:
		return "NoChecksum"
	case TypeCRC32C:
		return "CRC32C"
	case TypeXXH3:
		return "XXH3"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// IsSupported returns true if blocks can be written and verified with t.
func (t Type) IsSupported() bool {
	switch t {
	case TypeNoChecksum, TypeCRC32C, TypeXXH3:
		return true
	default:
		return false
	}
}

// ParseType maps the names accepted in OPTIONS files to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "kNoChecksum", "none", "NoChecksum":
		return TypeNoChecksum, nil
	case "kCRC32c", "crc32c", "CRC32C":
		return TypeCRC32C, nil
	case "kXXH3", "xxh3", "XXH3":
		return TypeXXH3, nil
	default:
		return 0, fmt.Errorf("checksum: unknown checksum type %q", s)
	}
}

// ComputeCRC32CChecksumWithLastByte computes the masked CRC32C of data
// followed by lastByte.
func ComputeCRC32CChecksumWithLastByte(data []byte, lastByte byte) uint32 {
	crc := Value(data)
	crc = Extend(crc, []byte{lastByte})
	return Mask(crc)
}

// ComputeChecksum computes a checksum of the given type.
// For block checksums, data is the block content and lastByte is the compression type.
func ComputeChecksum(t Type, data []byte, lastByte byte) uint32 {
	switch t {
	case TypeCRC32C:
		return ComputeCRC32CChecksumWithLastByte(data, lastByte)
	case TypeXXH3:
		return XXH3ChecksumWithLastByte(data, lastByte)
	default:
		return 0
	}
}

// Package checksum provides the block checksums used by filter files.
//
// This package implements:
//   - CRC32C (Castagnoli) with RocksDB-compatible masking
//   - XXH3 (lower 32 bits of XXH3_64bits) via github.com/zeebo/xxh3
//
// Reference: RocksDB v10.7.5
//   - util/crc32c.h
//   - table/format.cc (ComputeBuiltinChecksumWithLastByte)
package checksum

import (
	"hash/crc32"
)

// crc32cTable is the Castagnoli polynomial table used for CRC32C.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// maskDelta is the constant added during masking.
const maskDelta = 0xa282ead8

// Value computes the CRC32C checksum of data.
func Value(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// Extend computes the CRC32C of concat(A, data) where initCRC is the CRC32C of A.
func Extend(initCRC uint32, data []byte) uint32 {
	return crc32.Update(initCRC, crc32cTable, data)
}

// Mask returns a masked representation of crc.
//
// It is problematic to compute the CRC of a string that contains embedded
// CRCs, so CRCs stored in files are masked first.
func Mask(crc uint32) uint32 {
	// Rotate right by 15 bits and add a constant.
	return ((crc >> 15) | (crc << 17)) + maskDelta
}

// Unmask returns the crc whose masked representation is maskedCRC.
func Unmask(maskedCRC uint32) uint32 {
	rot := maskedCRC - maskDelta
	return (rot >> 17) | (rot << 15)
}

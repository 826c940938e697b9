package checksum

import (
	"github.com/zeebo/xxh3"
)

// lastByteRandomPrime mixes the trailer's last byte into an XXH3 checksum.
// From RocksDB table/format.h ModifyChecksumForLastByte.
const lastByteRandomPrime = 0x6b9083d9

// XXH3ChecksumWithLastByte computes the XXH3 block checksum of data
// followed by lastByte, without requiring lastByte to be in the buffer.
func XXH3ChecksumWithLastByte(data []byte, lastByte byte) uint32 {
	v := uint32(xxh3.Hash(data)) // Lower 32 bits
	return v ^ (uint32(lastByte) * lastByteRandomPrime)
}

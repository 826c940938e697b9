// Package hash implements the 32-bit seeded hash used by the builtin Bloom
// filter policy.
//
// The function is similar to Murmur hash. Its output is part of the on-disk
// filter format: a filter built with one hash can only be probed with the
// same hash, so the word decoding (little-endian) and the treatment of tail
// bytes (unsigned) must not change.
//
// Reference: LevelDB util/hash.cc
package hash

import (
	"github.com/aalhour/rockyardfilter/internal/encoding"
)

const (
	m = 0xc6a4a793
	r = 24
)

// Hash computes the seeded 32-bit hash of data.
func Hash(data []byte, seed uint32) uint32 {
	h := seed ^ (uint32(len(data)) * m)

	// Pick up four bytes at a time
	for len(data) >= 4 {
		w := encoding.DecodeFixed32(data)
		data = data[4:]
		h += w
		h *= m
		h ^= h >> 16
	}

	// Pick up remaining bytes
	switch len(data) {
	case 3:
		h += uint32(data[2]) << 16
		fallthrough
	case 2:
		h += uint32(data[1]) << 8
		fallthrough
	case 1:
		h += uint32(data[0])
		h *= m
		h ^= h >> r
	}
	return h
}

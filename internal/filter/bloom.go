package filter

import (
	"math/bits"

	"github.com/aalhour/rockyardfilter/internal/hash"
)

const (
	// BloomPolicyName is the persisted name of the builtin Bloom policy.
	BloomPolicyName = "leveldb.BuiltinBloomFilter2"

	// DefaultBitsPerKey yields roughly a 1% false positive rate.
	DefaultBitsPerKey = 10

	// MaxProbes is the largest probe count a Bloom filter may carry.
	// Larger values in the trailing byte are reserved for other encodings.
	MaxProbes = 30

	// minFilterBits keeps filters over very few keys from having a very
	// high false positive rate.
	minFilterBits = 64

	bloomHashSeed = 0xbc9f1d34
)

// BloomPolicy is the builtin Bloom filter policy.
//
// Filter format:
//
//	data[0:len-1] = bit array
//	data[len-1]   = k (number of probes)
//
// The k probe positions for a key are derived from a single 32-bit hash by
// double hashing: the hash rotated right by 17 bits is added after each
// probe. See Kirsch and Mitzenmacher, "Less Hashing, Same Performance".
//
// Reference: LevelDB util/bloom.cc
type BloomPolicy struct {
	bitsPerKey int
	k          int
}

// NewBloomPolicy returns a Bloom policy using bitsPerKey bits of filter per key.
func NewBloomPolicy(bitsPerKey int) *BloomPolicy {
	if bitsPerKey < 0 {
		bitsPerKey = 0
	}
	// Round down to reduce probing cost a little bit. 0.69 =~ ln(2).
	k := int(float64(bitsPerKey) * 0.69)
	k = max(k, 1)
	k = min(k, MaxProbes)
	return &BloomPolicy{bitsPerKey: bitsPerKey, k: k}
}

// Name implements Policy.
func (p *BloomPolicy) Name() string {
	return BloomPolicyName
}

// BitsPerKey returns the configured bits per key.
func (p *BloomPolicy) BitsPerKey() int {
	return p.bitsPerKey
}

// NumProbes returns the number of probes written into new filters.
func (p *BloomPolicy) NumProbes() int {
	return p.k
}

// CreateFilter implements Policy.
func (p *BloomPolicy) CreateFilter(keys [][]byte, dst []byte) []byte {
	numBits := max(len(keys)*p.bitsPerKey, minFilterBits)
	numBytes := (numBits + 7) / 8
	numBits = numBytes * 8

	initLen := len(dst)
	dst = append(dst, make([]byte, numBytes)...)
	dst = append(dst, byte(p.k)) // Remember # of probes in filter
	array := dst[initLen : initLen+numBytes]

	for _, key := range keys {
		h := bloomHash(key)
		delta := bits.RotateLeft32(h, -17)
		for i := 0; i < p.k; i++ {
			bitpos := uint64(h) % uint64(numBits)
			array[bitpos/8] |= 1 << (bitpos % 8)
			h += delta
		}
	}
	return dst
}

// KeyMayMatch implements Policy.
func (p *BloomPolicy) KeyMayMatch(key, filter []byte) bool {
	n := len(filter)
	if n < 2 {
		return false
	}

	// Use the encoded k so that filters built with different parameters
	// can still be read.
	k := int(filter[n-1])
	if k > MaxProbes {
		// Reserved for potentially new encodings for short Bloom filters.
		// Consider it a match.
		return true
	}

	array := filter[:n-1]
	numBits := uint64(len(array)) * 8
	h := bloomHash(key)
	delta := bits.RotateLeft32(h, -17)
	for i := 0; i < k; i++ {
		bitpos := uint64(h) % numBits
		if array[bitpos/8]&(1<<(bitpos%8)) == 0 {
			return false
		}
		h += delta
	}
	return true
}

func bloomHash(key []byte) uint32 {
	return hash.Hash(key, bloomHashSeed)
}

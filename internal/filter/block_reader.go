package filter

import (
	"github.com/aalhour/rockyardfilter/internal/encoding"
)

// BlockReader answers point queries against a filter block.
//
// The reader does not copy contents: it keeps sub-slices of the buffer passed
// to NewBlockReader, which must stay valid and unmodified for the lifetime of
// the reader. A BlockReader is immutable and safe for concurrent use.
//
// Malformed input never fails: any part of the block that cannot be
// interpreted makes the affected queries report a possible match, so the
// caller falls back to reading the data block.
type BlockReader struct {
	policy  Policy
	data    []byte // Filter data (at block-start)
	offsets []byte // Offset array (including the trailing array offset)
	num     int    // Number of entries in offset array
	baseLg  uint8  // Encoding parameter (see DefaultBaseLg)
}

// NewBlockReader parses contents, the output of BlockBuilder.Finish.
func NewBlockReader(policy Policy, contents []byte) *BlockReader {
	r := &BlockReader{policy: policy}
	n := len(contents)
	if n < blockTrailerLen {
		// 1 byte for base_lg and 4 for start of offset array
		return r
	}
	baseLg := contents[n-1]
	lastWord := uint64(encoding.DecodeFixed32(contents[n-blockTrailerLen:]))
	if lastWord > uint64(n-blockTrailerLen) || baseLg > MaxBaseLg {
		return r
	}
	r.baseLg = baseLg
	r.data = contents[:lastWord]
	r.offsets = contents[lastWord : n-1]
	r.num = (n - blockTrailerLen - int(lastWord)) / 4
	return r
}

// KeyMayMatch reports whether key may be present in the data block that
// starts at blockOffset.
func (r *BlockReader) KeyMayMatch(blockOffset uint64, key []byte) bool {
	index := blockOffset >> r.baseLg
	if index >= uint64(r.num) {
		return true // Errors are treated as potential matches
	}
	start, limit := r.bounds(int(index))
	switch {
	case start == limit:
		// Empty filters do not match any keys
		return false
	case start < limit && limit <= uint64(len(r.data)):
		return r.policy.KeyMayMatch(key, r.data[start:limit])
	default:
		return true
	}
}

// NumFilters returns the number of filters in the block. A malformed or
// too short block has none.
func (r *BlockReader) NumFilters() int {
	return r.num
}

// BaseLg returns the persisted filter base exponent.
func (r *BlockReader) BaseLg() uint8 {
	return r.baseLg
}

// Empty reports whether the block holds no usable filters. Every query
// against an empty reader returns true.
func (r *BlockReader) Empty() bool {
	return r.num == 0
}

// FilterAt returns the encoded filter at index i. ok is false when i is out
// of range or the offsets of filter i are corrupt.
func (r *BlockReader) FilterAt(i int) (filter []byte, ok bool) {
	if i < 0 || i >= r.num {
		return nil, false
	}
	start, limit := r.bounds(i)
	if start > limit || limit > uint64(len(r.data)) {
		return nil, false
	}
	return r.data[start:limit], true
}

func (r *BlockReader) bounds(i int) (start, limit uint64) {
	start = uint64(encoding.DecodeFixed32(r.offsets[i*4:]))
	limit = uint64(encoding.DecodeFixed32(r.offsets[i*4+4:]))
	return start, limit
}

package filter

import (
	"errors"
	"fmt"

	"github.com/aalhour/rockyardfilter/internal/encoding"
)

const (
	// DefaultBaseLg generates a new filter for every 2KB of data.
	DefaultBaseLg = 11

	// DefaultBase is the number of block-offset bytes covered by one filter.
	DefaultBase = 1 << DefaultBaseLg

	// MaxBaseLg is the largest supported base exponent.
	MaxBaseLg = 63

	// blockTrailerLen is the offset-array offset plus the base_lg byte.
	blockTrailerLen = 5
)

// ErrInvalidBaseLg is returned for a base exponent above MaxBaseLg.
var ErrInvalidBaseLg = errors.New("filter: invalid filter base exponent")

// BlockBuilder constructs all of the filters for a particular table.
//
// The sequence of calls must match the regexp:
//
//	(StartBlock AddKey*)* Finish
//
// A BlockBuilder is single-use and not safe for concurrent use.
type BlockBuilder struct {
	policy Policy
	baseLg uint8

	keys  []byte // Flattened key contents
	start []int  // Starting index in keys of each key
	// tmpKeys is reused across filters when handing keys to the policy.
	tmpKeys [][]byte

	result        []byte   // Filter data computed so far
	filterOffsets []uint32 // Start of each filter in result
}

// NewBlockBuilder returns a builder with the default 2KB filter base.
func NewBlockBuilder(policy Policy) *BlockBuilder {
	return &BlockBuilder{policy: policy, baseLg: DefaultBaseLg}
}

// NewBlockBuilderWithBaseLg returns a builder that starts a new filter every
// 1<<baseLg bytes of block offsets.
func NewBlockBuilderWithBaseLg(policy Policy, baseLg uint8) (*BlockBuilder, error) {
	if baseLg > MaxBaseLg {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBaseLg, baseLg)
	}
	return &BlockBuilder{policy: policy, baseLg: baseLg}, nil
}

// StartBlock announces that the following keys belong to the data block
// starting at blockOffset. Offsets must not decrease across calls.
func (b *BlockBuilder) StartBlock(blockOffset uint64) {
	filterIndex := blockOffset >> b.baseLg
	if filterIndex < uint64(len(b.filterOffsets)) {
		panic(fmt.Sprintf("filter: StartBlock(%d) maps to filter %d, but %d filters are already generated",
			blockOffset, filterIndex, len(b.filterOffsets)))
	}
	for filterIndex > uint64(len(b.filterOffsets)) {
		b.generateFilter()
	}
}

// AddKey adds key to the filter of the current block.
// The key is copied; the caller may reuse it.
func (b *BlockBuilder) AddKey(key []byte) {
	b.start = append(b.start, len(b.keys))
	b.keys = append(b.keys, key...)
}

// NumFilters returns the number of filters generated so far.
func (b *BlockBuilder) NumFilters() int {
	return len(b.filterOffsets)
}

// Finish generates the filter for any pending keys and returns the encoded
// filter block. The returned slice remains owned by the builder.
func (b *BlockBuilder) Finish() []byte {
	if len(b.start) > 0 {
		b.generateFilter()
	}

	// Append array of per-filter offsets
	arrayOffset := uint32(len(b.result))
	for _, off := range b.filterOffsets {
		b.result = encoding.AppendFixed32(b.result, off)
	}

	b.result = encoding.AppendFixed32(b.result, arrayOffset)
	b.result = append(b.result, b.baseLg) // Save encoding parameter in result
	return b.result
}

func (b *BlockBuilder) generateFilter() {
	numKeys := len(b.start)
	if numKeys == 0 {
		// Fast path if there are no keys for this filter
		b.filterOffsets = append(b.filterOffsets, uint32(len(b.result)))
		return
	}

	// Make list of keys from flattened key structure
	b.start = append(b.start, len(b.keys)) // Simplify length computation
	b.tmpKeys = b.tmpKeys[:0]
	for i := 0; i < numKeys; i++ {
		b.tmpKeys = append(b.tmpKeys, b.keys[b.start[i]:b.start[i+1]])
	}

	// Generate filter for current set of keys and append to result.
	b.filterOffsets = append(b.filterOffsets, uint32(len(b.result)))
	b.result = b.policy.CreateFilter(b.tmpKeys, b.result)

	clear(b.tmpKeys)
	b.tmpKeys = b.tmpKeys[:0]
	b.keys = b.keys[:0]
	b.start = b.start[:0]
}

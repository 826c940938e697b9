// Package filter implements the per-block filter layer of a table file.
//
// A Policy turns a set of keys into an opaque filter and later answers
// whether a key may be in that set. BloomPolicy is the builtin policy.
//
// BlockBuilder groups keys by the data block they belong to and emits one
// filter per filter-base-sized range of block offsets. BlockReader parses
// the result and answers point queries.
//
// Filter Block Format:
//
//	[filter 0]
//	[filter 1]
//	...
//	[filter N-1]
//	[offset of filter 0]      : fixed32
//	[offset of filter 1]      : fixed32
//	...
//	[offset of filter N-1]    : fixed32
//	[offset of offset array]  : fixed32
//	lg(base)                  : 1 byte
//
// Filter i covers every data block whose starting offset lies in
// [i*base, (i+1)*base). The offset of the offset array doubles as the end
// offset of the last filter.
//
// Reference: LevelDB table/filter_block.cc, doc/table_format.md
package filter

import (
	"errors"
	"sync"
)

// ErrDuplicatePolicy is returned when registering a second policy under an
// already registered name.
var ErrDuplicatePolicy = errors.New("filter: policy already registered")

// Policy creates and probes filters.
//
// The name is persisted next to the filters it produced. If the encoding of
// a policy changes in an incompatible way, its name must change too,
// otherwise old filters may be handed to the new implementation.
//
// Implementations must be safe for concurrent use.
type Policy interface {
	// Name returns the name of this policy.
	Name() string

	// CreateFilter appends a filter that summarizes keys to dst and returns
	// the extended slice. keys may contain duplicates. Bytes already in dst
	// are left untouched.
	CreateFilter(keys [][]byte, dst []byte) []byte

	// KeyMayMatch reports whether key may be in the set summarized by
	// filter. It must return true for every key passed to the CreateFilter
	// call that produced filter. It may return true for other keys, but
	// should return false with high probability.
	KeyMayMatch(key, filter []byte) bool
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Policy{}
)

func init() {
	// Bits per key only affects building. Probing reads k from the filter.
	_ = Register(NewBloomPolicy(DefaultBitsPerKey))
}

// Register makes a policy available to Lookup under its name.
func Register(p Policy) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	name := p.Name()
	if _, ok := registry[name]; ok {
		return ErrDuplicatePolicy
	}
	registry[name] = p
	return nil
}

// Lookup returns the policy registered under name.
func Lookup(name string) (Policy, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	return p, ok
}

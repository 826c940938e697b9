package rockyardfilter

import (
	"github.com/aalhour/rockyardfilter/internal/filter"
)

// FilterPolicy creates and queries filters. See the filter package for the
// contract implementations must follow.
type FilterPolicy = filter.Policy

// FilterBlockBuilder builds the filter block of one table.
type FilterBlockBuilder = filter.BlockBuilder

// FilterBlockReader answers queries against a filter block.
type FilterBlockReader = filter.BlockReader

// BloomFilterPolicyName is the name filters of NewBloomFilterPolicy are
// stored under.
const BloomFilterPolicyName = filter.BloomPolicyName

// ErrDuplicateFilterPolicy is returned when registering a policy name twice.
var ErrDuplicateFilterPolicy = filter.ErrDuplicatePolicy

// NewBloomFilterPolicy returns a Bloom filter policy that uses about
// bitsPerKey bits per key. A good value is 10, which yields a filter with
// a false positive rate of about 1%.
func NewBloomFilterPolicy(bitsPerKey int) FilterPolicy {
	return filter.NewBloomPolicy(bitsPerKey)
}

// RegisterFilterPolicy makes p available to filter files that name it.
func RegisterFilterPolicy(p FilterPolicy) error {
	return filter.Register(p)
}

// LookupFilterPolicy returns the registered policy called name.
func LookupFilterPolicy(name string) (FilterPolicy, bool) {
	return filter.Lookup(name)
}

// NewFilterBlockBuilder returns a builder that starts a new filter for
// every 2KB of data block offsets.
func NewFilterBlockBuilder(policy FilterPolicy) *FilterBlockBuilder {
	return filter.NewBlockBuilder(policy)
}

// NewFilterBlockBuilderWithOptions returns a builder using the policy and
// filter base of opts.
func NewFilterBlockBuilderWithOptions(opts *Options) (*FilterBlockBuilder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	baseLg := opts.FilterBaseLg
	if baseLg == 0 {
		baseLg = filter.DefaultBaseLg
	}
	return filter.NewBlockBuilderWithBaseLg(opts.policy(), baseLg)
}

// NewFilterBlockReader returns a reader over contents, the output of
// FilterBlockBuilder.Finish. contents must not be modified while the
// reader is in use. Malformed contents never fail: queries that cannot be
// answered report a possible match.
func NewFilterBlockReader(policy FilterPolicy, contents []byte) *FilterBlockReader {
	return filter.NewBlockReader(policy, contents)
}

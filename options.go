package rockyardfilter

// options.go implements filter configuration options.

import (
	"errors"
	"fmt"

	"github.com/aalhour/rockyardfilter/internal/checksum"
	"github.com/aalhour/rockyardfilter/internal/compression"
	"github.com/aalhour/rockyardfilter/internal/filter"
	"github.com/aalhour/rockyardfilter/internal/logging"
	"github.com/aalhour/rockyardfilter/internal/options"
	"github.com/aalhour/rockyardfilter/internal/vfs"
)

// Logger is an alias for the logging.Logger interface.
// This allows users to pass their own logger implementation.
type Logger = logging.Logger

// FS is an alias for the filesystem used to store filter files.
type FS = vfs.FS

// CompressionType is an alias for the compression type.
type CompressionType = compression.Type

// Compression type constants
const (
	NoCompression     = compression.NoCompression
	SnappyCompression = compression.SnappyCompression
	ZlibCompression   = compression.ZlibCompression
	LZ4Compression    = compression.LZ4Compression
	LZ4HCCompression  = compression.LZ4HCCompression
	ZstdCompression   = compression.ZstdCompression
)

// ChecksumType is an alias for the checksum type.
type ChecksumType = checksum.Type

// Checksum type constants
const (
	ChecksumTypeNoChecksum = checksum.TypeNoChecksum
	ChecksumTypeCRC32C     = checksum.TypeCRC32C
	ChecksumTypeXXH3       = checksum.TypeXXH3
)

// ErrInvalidOptions is returned by Validate for unusable options.
var ErrInvalidOptions = errors.New("rockyardfilter: invalid options")

// MaxBitsPerKey is the largest accepted BitsPerKey.
const MaxBitsPerKey = 64

// Options configures filter construction and filter files.
type Options struct {
	// BitsPerKey sets the Bloom filter size when FilterPolicy is nil.
	// 10 bits per key yield a false positive rate of about 1%.
	// Default: 10
	BitsPerKey int

	// FilterPolicy overrides the built-in Bloom filter.
	FilterPolicy FilterPolicy

	// FilterBaseLg is log2 of the data block offset range covered by one
	// filter. Zero selects the default.
	// Default: 11 (2KB)
	FilterBaseLg uint8

	// Compression is applied to the filter block of a filter file when it
	// saves space.
	// Default: NoCompression
	Compression CompressionType

	// ChecksumType protects the blocks of a filter file.
	// Default: CRC32C
	ChecksumType ChecksumType

	// VerifyChecksums verifies block checksums when opening a filter file.
	// Default: true
	VerifyChecksums bool

	// FS is the filesystem implementation to use.
	// If nil, the OS filesystem is used.
	FS FS

	// Logger receives diagnostics. If nil, warnings and errors go to stderr.
	Logger Logger
}

// DefaultOptions returns the default options.
func DefaultOptions() *Options {
	return &Options{
		BitsPerKey:      filter.DefaultBitsPerKey,
		FilterBaseLg:    filter.DefaultBaseLg,
		Compression:     NoCompression,
		ChecksumType:    ChecksumTypeCRC32C,
		VerifyChecksums: true,
	}
}

// Validate reports whether o can be used to build and read filters.
func (o *Options) Validate() error {
	if o.FilterPolicy == nil && (o.BitsPerKey < 1 || o.BitsPerKey > MaxBitsPerKey) {
		return fmt.Errorf("%w: bits per key %d outside [1, %d]", ErrInvalidOptions, o.BitsPerKey, MaxBitsPerKey)
	}
	if o.FilterBaseLg > filter.MaxBaseLg {
		return fmt.Errorf("%w: filter base lg %d exceeds %d", ErrInvalidOptions, o.FilterBaseLg, filter.MaxBaseLg)
	}
	if !o.Compression.IsSupported() {
		return fmt.Errorf("%w: unsupported compression %s", ErrInvalidOptions, o.Compression)
	}
	if !o.ChecksumType.IsSupported() {
		return fmt.Errorf("%w: unsupported checksum %s", ErrInvalidOptions, o.ChecksumType)
	}
	return nil
}

// policy returns the configured policy, building the Bloom policy on demand.
func (o *Options) policy() FilterPolicy {
	if o.FilterPolicy != nil {
		return o.FilterPolicy
	}
	return NewBloomFilterPolicy(o.BitsPerKey)
}

func (o *Options) fs() FS {
	if o.FS != nil {
		return o.FS
	}
	return vfs.Default()
}

// LoadOptionsFile reads the [FilterOptions] section of an OPTIONS file on
// top of DefaultOptions.
//
// A filter_policy other than the built-in Bloom policy must have been
// registered with RegisterFilterPolicy.
func LoadOptionsFile(path string) (*Options, error) {
	parsed, err := options.ReadOptionsFile(path)
	if err != nil {
		return nil, err
	}

	opts := DefaultOptions()
	opts.BitsPerKey = parsed.BitsPerKey
	opts.FilterBaseLg = parsed.FilterBaseLg
	opts.Compression = parsed.Compression
	opts.ChecksumType = parsed.ChecksumType
	opts.VerifyChecksums = parsed.VerifyChecksums
	if parsed.FilterPolicy != filter.BloomPolicyName {
		p, ok := LookupFilterPolicy(parsed.FilterPolicy)
		if !ok {
			return nil, fmt.Errorf("%w: unknown filter policy %q", ErrInvalidOptions, parsed.FilterPolicy)
		}
		opts.FilterPolicy = p
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

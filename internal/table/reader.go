package table

import (
	"errors"
	"fmt"

	"github.com/aalhour/rockyardfilter/internal/block"
	"github.com/aalhour/rockyardfilter/internal/checksum"
	"github.com/aalhour/rockyardfilter/internal/compression"
	"github.com/aalhour/rockyardfilter/internal/encoding"
	"github.com/aalhour/rockyardfilter/internal/filter"
	"github.com/aalhour/rockyardfilter/internal/logging"
	"github.com/aalhour/rockyardfilter/internal/vfs"
)

var (
	// ErrBadMagic indicates the file does not end with a filter file footer.
	ErrBadMagic = errors.New("table: bad magic number")

	// ErrCorruption indicates a structurally invalid filter file.
	ErrCorruption = errors.New("table: corruption")
)

// ReaderOptions controls the behavior of the filter file reader.
type ReaderOptions struct {
	// Policy interprets the filters. When nil, the policy is looked up in
	// the filter registry by the name stored in the file.
	Policy filter.Policy

	// VerifyChecksums enables checksum verification of the file's blocks.
	VerifyChecksums bool

	// Logger receives warnings about unusable filters (default: discard).
	Logger logging.Logger
}

// Stats describes an opened filter file.
type Stats struct {
	PolicyName     string
	PolicyResolved bool
	BaseLg         uint8
	NumFilters     int
	FilterSizes    []int
	BlockSize      uint64 // Stored size of the filter block, excluding its trailer
	ContentsSize   int    // Size of the filter block after decompression
	Compression    compression.Type
	ChecksumType   checksum.Type
	FileSize       int64
}

// Reader answers point queries against a filter file.
//
// The whole filter block is loaded by Open and owned by the Reader, so
// queries never touch the file. A Reader is safe for concurrent use.
type Reader struct {
	file        vfs.RandomAccessFile
	footer      *block.Footer
	policyName  string
	policy      filter.Policy // nil when the stored policy cannot be used
	contents    []byte
	filters     *filter.BlockReader
	compression compression.Type
}

// Open reads the footer, meta block and filter block of f.
// The Reader takes ownership of f and closes it on Close.
func Open(f vfs.RandomAccessFile, opts ReaderOptions) (*Reader, error) {
	logger := opts.Logger
	if logging.IsNil(logger) {
		logger = logging.Discard
	}

	size := f.Size()
	if size < block.FooterSize {
		return nil, fmt.Errorf("%w: file is %d bytes, too short for a footer", ErrCorruption, size)
	}

	footerData := make([]byte, block.FooterSize)
	if _, err := f.ReadAt(footerData, size-block.FooterSize); err != nil {
		return nil, fmt.Errorf("table: read footer: %w", err)
	}
	if magic := encoding.DecodeFixed64(footerData[block.FooterSize-8:]); magic != block.FilterFileMagicNumber {
		return nil, fmt.Errorf("%w: 0x%016x", ErrBadMagic, magic)
	}
	footer, err := block.DecodeFooter(footerData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruption, err)
	}

	r := &Reader{file: f, footer: footer}
	limit := uint64(size - block.FooterSize)

	metaRaw, err := readRawBlock(f, footer.MetaHandle, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: meta block: %w", ErrCorruption, err)
	}
	meta, err := block.Decode(metaRaw, footer.ChecksumType, opts.VerifyChecksums)
	if err != nil {
		return nil, fmt.Errorf("%w: meta block: %w", ErrCorruption, err)
	}
	name, _, err := encoding.DecodeLengthPrefixedSlice(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: policy name: %w", ErrCorruption, err)
	}
	r.policyName = string(name)

	filterRaw, err := readRawBlock(f, footer.FilterHandle, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: filter block: %w", ErrCorruption, err)
	}
	r.compression = compression.Type(filterRaw[len(filterRaw)-block.TrailerSize])
	r.contents, err = block.Decode(filterRaw, footer.ChecksumType, opts.VerifyChecksums)
	if err != nil {
		return nil, fmt.Errorf("%w: filter block: %w", ErrCorruption, err)
	}

	r.policy = resolvePolicy(r.policyName, opts.Policy, logger)
	if r.policy != nil {
		r.filters = filter.NewBlockReader(r.policy, r.contents)
	}
	return r, nil
}

// resolvePolicy picks the policy that can read filters written by name.
// It returns nil when none can, which disables filtering.
func resolvePolicy(name string, explicit filter.Policy, logger logging.Logger) filter.Policy {
	if explicit != nil {
		if explicit.Name() != name {
			logger.Warnf(logging.NSTable+"filter policy mismatch: file has %q, reader has %q; filtering disabled",
				name, explicit.Name())
			return nil
		}
		return explicit
	}
	p, ok := filter.Lookup(name)
	if !ok {
		logger.Warnf(logging.NSTable+"unknown filter policy %q; filtering disabled", name)
		return nil
	}
	return p
}

// readRawBlock reads the block at h together with its trailer. The block
// must end at or before limit.
func readRawBlock(f vfs.RandomAccessFile, h block.Handle, limit uint64) ([]byte, error) {
	if h.Size > limit || h.Offset > limit-h.Size || limit-h.Size-h.Offset < block.TrailerSize {
		return nil, fmt.Errorf("%w: handle {%d, %d} exceeds file bounds", block.ErrBadBlockHandle, h.Offset, h.Size)
	}
	raw := make([]byte, h.Size+block.TrailerSize)
	if _, err := f.ReadAt(raw, int64(h.Offset)); err != nil {
		return nil, err
	}
	return raw, nil
}

// KeyMayMatch reports whether key may be present in the data block that
// starts at blockOffset. It returns true whenever the file's filters
// cannot be used.
func (r *Reader) KeyMayMatch(blockOffset uint64, key []byte) bool {
	if r.filters == nil {
		return true
	}
	return r.filters.KeyMayMatch(blockOffset, key)
}

// PolicyName returns the filter policy name stored in the file.
func (r *Reader) PolicyName() string {
	return r.policyName
}

// Stats returns a summary of the file's filter block.
func (r *Reader) Stats() Stats {
	s := Stats{
		PolicyName:     r.policyName,
		PolicyResolved: r.policy != nil,
		BlockSize:      r.footer.FilterHandle.Size,
		ContentsSize:   len(r.contents),
		Compression:    r.compression,
		ChecksumType:   r.footer.ChecksumType,
		FileSize:       r.file.Size(),
	}
	// Layout does not depend on the policy, so stats are available even
	// when filtering is disabled.
	br := r.filters
	if br == nil {
		br = filter.NewBlockReader(nil, r.contents)
	}
	s.BaseLg = br.BaseLg()
	s.NumFilters = br.NumFilters()
	s.FilterSizes = make([]int, 0, s.NumFilters)
	for i := 0; i < s.NumFilters; i++ {
		f, _ := br.FilterAt(i)
		s.FilterSizes = append(s.FilterSizes, len(f))
	}
	return s
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

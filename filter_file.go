package rockyardfilter

// filter_file.go implements standalone filter files.

import (
	"errors"

	"github.com/aalhour/rockyardfilter/internal/logging"
	"github.com/aalhour/rockyardfilter/internal/table"
	"github.com/aalhour/rockyardfilter/internal/vfs"
)

var (
	// ErrBadMagic indicates a file that is not a filter file.
	ErrBadMagic = table.ErrBadMagic

	// ErrCorruption indicates a damaged filter file.
	ErrCorruption = table.ErrCorruption

	// ErrBlockOutOfOrder is returned when data block offsets go backwards
	// across filter ranges.
	ErrBlockOutOfOrder = table.ErrBlockOutOfOrder
)

// FilterFileStats describes an opened filter file.
type FilterFileStats = table.Stats

// BlockKeys lists the keys of one data block.
type BlockKeys struct {
	Offset uint64
	Keys   [][]byte
}

// FilterFileWriter streams a filter file to disk.
type FilterFileWriter struct {
	file vfs.WritableFile
	w    *table.Writer
	done bool
}

// NewFilterFileWriter creates the filter file at path.
func NewFilterFileWriter(path string, opts *Options) (*FilterFileWriter, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	f, err := opts.fs().Create(path)
	if err != nil {
		return nil, err
	}
	w, err := table.NewWriter(f, table.WriterOptions{
		Policy:       opts.policy(),
		BaseLg:       opts.FilterBaseLg,
		Compression:  opts.Compression,
		ChecksumType: opts.ChecksumType,
		Logger:       logging.OrDefault(opts.Logger),
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FilterFileWriter{file: f, w: w}, nil
}

// StartBlock announces that the following keys belong to the data block
// starting at offset.
func (fw *FilterFileWriter) StartBlock(offset uint64) error {
	return fw.w.StartBlock(offset)
}

// AddKey adds key to the current data block.
func (fw *FilterFileWriter) AddKey(key []byte) error {
	return fw.w.AddKey(key)
}

// Finish writes out the filter file and closes it.
func (fw *FilterFileWriter) Finish() error {
	if fw.done {
		return table.ErrWriterFinished
	}
	fw.done = true
	err := fw.w.Finish()
	return errors.Join(err, fw.file.Close())
}

// Abandon closes the file without completing it. The partial file is left
// in place.
func (fw *FilterFileWriter) Abandon() error {
	if fw.done {
		return nil
	}
	fw.done = true
	return fw.file.Close()
}

// WriteFilterFile writes a complete filter file for blocks, which must be
// ordered by offset.
func WriteFilterFile(path string, opts *Options, blocks []BlockKeys) error {
	fw, err := NewFilterFileWriter(path, opts)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if err := fw.StartBlock(b.Offset); err != nil {
			return errors.Join(err, fw.Abandon())
		}
		for _, k := range b.Keys {
			if err := fw.AddKey(k); err != nil {
				return errors.Join(err, fw.Abandon())
			}
		}
	}
	return fw.Finish()
}

// FilterFile is an opened filter file. It is safe for concurrent use.
type FilterFile struct {
	r *table.Reader
}

// OpenFilterFile opens the filter file at path and loads its filter block.
//
// The stored policy name selects the policy: opts.FilterPolicy when it has
// the same name, otherwise a registered policy. When neither matches, the
// file opens with filtering disabled and every key may match.
func OpenFilterFile(path string, opts *Options) (*FilterFile, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	f, err := opts.fs().OpenRandomAccess(path)
	if err != nil {
		return nil, err
	}
	r, err := table.Open(f, table.ReaderOptions{
		Policy:          opts.FilterPolicy,
		VerifyChecksums: opts.VerifyChecksums,
		Logger:          logging.OrDefault(opts.Logger),
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FilterFile{r: r}, nil
}

// KeyMayMatch reports whether key may be present in the data block that
// starts at blockOffset.
func (ff *FilterFile) KeyMayMatch(blockOffset uint64, key []byte) bool {
	return ff.r.KeyMayMatch(blockOffset, key)
}

// PolicyName returns the name of the policy the file was written with.
func (ff *FilterFile) PolicyName() string {
	return ff.r.PolicyName()
}

// Stats returns a summary of the file.
func (ff *FilterFile) Stats() FilterFileStats {
	return ff.r.Stats()
}

// Close releases the file.
func (ff *FilterFile) Close() error {
	return ff.r.Close()
}

// FilterFileCache keeps recently used filter files open, charging each by
// the size of its filter block. It is safe for concurrent use.
type FilterFileCache struct {
	c *table.Cache
}

// NewFilterFileCache returns a cache holding at most capacity bytes of
// filter blocks. Files are opened with opts.
func NewFilterFileCache(opts *Options, capacity uint64) *FilterFileCache {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &FilterFileCache{c: table.NewCache(opts.fs(), table.ReaderOptions{
		Policy:          opts.FilterPolicy,
		VerifyChecksums: opts.VerifyChecksums,
		Logger:          logging.OrDefault(opts.Logger),
	}, capacity)}
}

// KeyMayMatch reports whether key may be present in the data block at
// blockOffset of the filter file at path. When the file cannot be opened
// it returns true along with the error.
func (fc *FilterFileCache) KeyMayMatch(path string, blockOffset uint64, key []byte) (bool, error) {
	return fc.c.KeyMayMatch(path, blockOffset, key)
}

// Evict closes path if it is cached.
func (fc *FilterFileCache) Evict(path string) {
	fc.c.Evict(path)
}

// Usage returns the total size of the cached filter blocks.
func (fc *FilterFileCache) Usage() uint64 {
	return fc.c.Usage()
}

// Close closes every cached file.
func (fc *FilterFileCache) Close() {
	fc.c.Close()
}

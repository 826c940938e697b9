// Package table reads and writes filter files: a single filter block
// stored on its own, next to the data file it describes.
//
// File layout:
//
//	[filter block]   (possibly compressed, followed by a block trailer)
//	[meta block]     (length-prefixed policy name, followed by a block trailer)
//	[Footer]         (fixed size, at end of file)
//
// The filter block is byte-for-byte what filter.BlockBuilder produces, so
// a filter file can be generated for data blocks laid out by any writer
// that reports its block offsets.
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
	// ErrWriterFinished is returned when a finished Writer is used again.
	ErrWriterFinished = errors.New("table: writer already finished")

	// ErrBlockOutOfOrder is returned when a block offset falls into a
	// filter range that has already been generated.
	ErrBlockOutOfOrder = errors.New("table: block offset out of order")
)

// WriterOptions controls the behavior of the filter file writer.
type WriterOptions struct {
	// Policy builds the filters (default: Bloom filter with 10 bits per key).
	Policy filter.Policy

	// BaseLg is log2 of the block offset range covered by one filter.
	// Zero selects filter.DefaultBaseLg.
	BaseLg uint8

	// Compression is applied to the filter block when it saves space.
	Compression compression.Type

	// ChecksumType protects every block (default: CRC32C).
	ChecksumType checksum.Type

	// Logger receives progress messages (default: discard).
	Logger logging.Logger
}

// Writer writes one filter file.
//
//	(StartBlock AddKey*)* Finish
type Writer struct {
	file    vfs.WritableFile
	options WriterOptions
	builder *filter.BlockBuilder
	logger  logging.Logger

	offset   uint64 // Bytes written so far
	numKeys  uint64
	finished bool
	err      error
}

// NewWriter returns a Writer that writes to f. f is not closed by the Writer.
func NewWriter(f vfs.WritableFile, opts WriterOptions) (*Writer, error) {
	if opts.Policy == nil {
		opts.Policy = filter.NewBloomPolicy(filter.DefaultBitsPerKey)
	}
	if opts.BaseLg == 0 {
		opts.BaseLg = filter.DefaultBaseLg
	}
	if opts.ChecksumType == checksum.TypeNoChecksum {
		opts.ChecksumType = checksum.TypeCRC32C
	}
	if !opts.ChecksumType.IsSupported() {
		return nil, fmt.Errorf("table: unsupported checksum type %s", opts.ChecksumType)
	}
	if !opts.Compression.IsSupported() {
		return nil, fmt.Errorf("table: unsupported compression type %s", opts.Compression)
	}
	if logging.IsNil(opts.Logger) {
		opts.Logger = logging.Discard
	}

	builder, err := filter.NewBlockBuilderWithBaseLg(opts.Policy, opts.BaseLg)
	if err != nil {
		return nil, err
	}
	return &Writer{
		file:    f,
		options: opts,
		builder: builder,
		logger:  opts.Logger,
	}, nil
}

// StartBlock announces that the following keys belong to the data block
// starting at blockOffset.
func (w *Writer) StartBlock(blockOffset uint64) error {
	if w.finished {
		return ErrWriterFinished
	}
	if blockOffset>>w.options.BaseLg < uint64(w.builder.NumFilters()) {
		return fmt.Errorf("%w: offset %d, %d filters already generated",
			ErrBlockOutOfOrder, blockOffset, w.builder.NumFilters())
	}
	w.builder.StartBlock(blockOffset)
	return nil
}

// AddKey adds key to the filter of the current data block.
func (w *Writer) AddKey(key []byte) error {
	if w.finished {
		return ErrWriterFinished
	}
	w.builder.AddKey(key)
	w.numKeys++
	return nil
}

// NumKeys returns the number of keys added so far.
func (w *Writer) NumKeys() uint64 {
	return w.numKeys
}

// FileSize returns the number of bytes written so far.
func (w *Writer) FileSize() uint64 {
	return w.offset
}

// Finish writes the filter block, the meta block and the footer, then
// syncs the file.
func (w *Writer) Finish() error {
	if w.finished {
		return ErrWriterFinished
	}
	if w.err != nil {
		return w.err
	}
	w.finished = true

	contents := w.builder.Finish()
	filterHandle, used, err := w.writeBlock(contents, w.options.Compression)
	if err != nil {
		return w.fail(err)
	}

	meta := encoding.AppendLengthPrefixedSlice(nil, []byte(w.options.Policy.Name()))
	metaHandle, _, err := w.writeBlock(meta, compression.NoCompression)
	if err != nil {
		return w.fail(err)
	}

	footer := block.Footer{
		MetaHandle:   metaHandle,
		FilterHandle: filterHandle,
		ChecksumType: w.options.ChecksumType,
	}
	if err := w.write(footer.EncodeTo(nil)); err != nil {
		return w.fail(err)
	}
	if err := w.file.Sync(); err != nil {
		return w.fail(err)
	}

	w.logger.Debugf(logging.NSTable+"wrote filter file: policy=%s keys=%d filters=%d block=%d bytes (%s) file=%d bytes",
		w.options.Policy.Name(), w.numKeys, w.builder.NumFilters(), len(contents), used, w.offset)
	return nil
}

func (w *Writer) writeBlock(contents []byte, ct compression.Type) (block.Handle, compression.Type, error) {
	raw, used, err := block.Encode(contents, ct, w.options.ChecksumType)
	if err != nil {
		return block.Handle{}, 0, err
	}
	h := block.Handle{Offset: w.offset, Size: uint64(len(raw) - block.TrailerSize)}
	if err := w.write(raw); err != nil {
		return block.Handle{}, 0, err
	}
	return h, used, nil
}

func (w *Writer) write(p []byte) error {
	n, err := w.file.Write(p)
	w.offset += uint64(n)
	return err
}

func (w *Writer) fail(err error) error {
	w.err = err
	w.logger.Errorf(logging.NSTable+"filter file write failed: %v", err)
	return err
}

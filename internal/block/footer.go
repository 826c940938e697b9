package block

import (
	"fmt"

	"github.com/aalhour/rockyardfilter/internal/checksum"
	"github.com/aalhour/rockyardfilter/internal/encoding"
)

// FilterFileMagicNumber identifies a filter file ("FILTERB1", little-endian).
const FilterFileMagicNumber uint64 = 0x31425245544c4946

// FooterSize is the encoded length of a Footer:
// two padded handles, the checksum type and the magic number.
const FooterSize = 2*MaxEncodedLength + 1 + 8

// Footer is the fixed-size tail of a filter file.
//
//	meta_handle:   Handle  (policy name block)
//	filter_handle: Handle  (filter block)
//	padding:       zeros up to 2*MaxEncodedLength bytes
//	checksum_type: uint8
//	magic:         fixed64
type Footer struct {
	MetaHandle   Handle
	FilterHandle Handle
	ChecksumType checksum.Type
}

// EncodeTo appends the encoding of f to dst.
func (f *Footer) EncodeTo(dst []byte) []byte {
	start := len(dst)
	dst = f.MetaHandle.EncodeTo(dst)
	dst = f.FilterHandle.EncodeTo(dst)
	dst = append(dst, make([]byte, 2*MaxEncodedLength-(len(dst)-start))...)
	dst = append(dst, byte(f.ChecksumType))
	return encoding.AppendFixed64(dst, FilterFileMagicNumber)
}

// DecodeFooter decodes a footer from the last FooterSize bytes of a file.
func DecodeFooter(data []byte) (*Footer, error) {
	if len(data) != FooterSize {
		return nil, fmt.Errorf("%w: footer is %d bytes, want %d", ErrBadBlockFooter, len(data), FooterSize)
	}
	if magic := encoding.DecodeFixed64(data[FooterSize-8:]); magic != FilterFileMagicNumber {
		return nil, fmt.Errorf("%w: bad magic number 0x%016x", ErrBadBlockFooter, magic)
	}

	f := &Footer{ChecksumType: checksum.Type(data[2*MaxEncodedLength])}
	if !f.ChecksumType.IsSupported() {
		return nil, fmt.Errorf("%w: unsupported checksum type %s", ErrBadBlockFooter, f.ChecksumType)
	}

	handles := data[:2*MaxEncodedLength]
	var err error
	if f.MetaHandle, handles, err = DecodeHandle(handles); err != nil {
		return nil, fmt.Errorf("%w: meta handle: %v", ErrBadBlockFooter, err)
	}
	if f.FilterHandle, _, err = DecodeHandle(handles); err != nil {
		return nil, fmt.Errorf("%w: filter handle: %v", ErrBadBlockFooter, err)
	}
	return f, nil
}

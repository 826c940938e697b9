// Package options implements OPTIONS file parsing for filter file tools.
//
// An OPTIONS file is INI-style. Only the [FilterOptions] section is read:
//
//	[FilterOptions]
//	  bits_per_key=10
//	  filter_policy=leveldb.BuiltinBloomFilter2
//	  filter_base_lg=11
//	  compression=kSnappyCompression
//	  checksum=kCRC32c
//	  verify_checksums=true
//
// This package is internal and not part of the public API.
package options

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aalhour/rockyardfilter/internal/checksum"
	"github.com/aalhour/rockyardfilter/internal/compression"
	"github.com/aalhour/rockyardfilter/internal/filter"
)

// SectionFilterOptions is the section holding filter settings.
const SectionFilterOptions = "FilterOptions"

// ParsedOptions represents options parsed from an OPTIONS file.
type ParsedOptions struct {
	BitsPerKey      int
	FilterPolicy    string
	FilterBaseLg    uint8
	Compression     compression.Type
	ChecksumType    checksum.Type
	VerifyChecksums bool
}

// Defaults returns the values used for keys an OPTIONS file leaves out.
func Defaults() *ParsedOptions {
	return &ParsedOptions{
		BitsPerKey:      filter.DefaultBitsPerKey,
		FilterPolicy:    filter.BloomPolicyName,
		FilterBaseLg:    filter.DefaultBaseLg,
		Compression:     compression.NoCompression,
		ChecksumType:    checksum.TypeCRC32C,
		VerifyChecksums: true,
	}
}

// ReadOptionsFile reads and parses an OPTIONS file.
func ReadOptionsFile(path string) (*ParsedOptions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return ParseOptionsFile(file)
}

// ParseOptionsFile parses options from a reader. Unknown sections and keys
// are ignored; malformed values are errors.
func ParseOptionsFile(r io.Reader) (*ParsedOptions, error) {
	opts := Defaults()

	scanner := bufio.NewScanner(r)
	currentSection := ""
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		if currentSection != SectionFilterOptions {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := opts.set(key, value); err != nil {
			return nil, fmt.Errorf("options: line %d: %w", lineNo, err)
		}
	}

	return opts, scanner.Err()
}

func (o *ParsedOptions) set(key, value string) error {
	var err error
	switch key {
	case "bits_per_key":
		o.BitsPerKey, err = strconv.Atoi(value)
	case "filter_policy":
		o.FilterPolicy = value
	case "filter_base_lg":
		var v uint64
		v, err = strconv.ParseUint(value, 10, 8)
		o.FilterBaseLg = uint8(v)
	case "compression":
		o.Compression, err = compression.ParseType(value)
	case "checksum":
		o.ChecksumType, err = checksum.ParseType(value)
	case "verify_checksums":
		o.VerifyChecksums, err = strconv.ParseBool(value)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Package main provides the filterdump CLI tool for building and inspecting
// filter files.
//
// Usage:
//
//	filterdump --file=<path> --command=<cmd> [options]
//
// Commands:
//
//	build   Build a filter file from "offset<TAB>key" lines
//	query   Check whether a key may be present in a data block
//	stats   Show the layout of a filter file
package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aalhour/rockyardfilter"
	"github.com/aalhour/rockyardfilter/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type config struct {
	filePath    string
	command     string
	input       string
	optionsPath string
	offset      uint64
	key         string
	hexKeys     bool
	bitsPerKey  int
	logLevel    string
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("filterdump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var cfg config
	fs.StringVar(&cfg.filePath, "file", "", "Path to the filter file (required)")
	fs.StringVar(&cfg.command, "command", "stats", "Command: build, query, stats")
	fs.StringVar(&cfg.input, "input", "-", "Key listing for build (- = stdin)")
	fs.StringVar(&cfg.optionsPath, "options", "", "OPTIONS file with a [FilterOptions] section")
	fs.Uint64Var(&cfg.offset, "offset", 0, "Data block offset for query")
	fs.StringVar(&cfg.key, "key", "", "Key for query")
	fs.BoolVar(&cfg.hexKeys, "hex", false, "Keys are hex encoded")
	fs.IntVar(&cfg.bitsPerKey, "bits_per_key", 0, "Override bits per key for build (0 = from options)")
	fs.StringVar(&cfg.logLevel, "log_level", "warn", "Log level: error, warn, info, debug")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if cfg.filePath == "" {
		fmt.Fprintln(stderr, "Error: --file flag is required")
		printUsage(fs)
		return 1
	}

	opts, err := loadOptions(&cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	switch cfg.command {
	case "build":
		err = cmdBuild(&cfg, opts, stdin, stdout)
	case "query":
		err = cmdQuery(&cfg, opts, stdout)
	case "stats":
		err = cmdStats(&cfg, opts, stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cfg.command)
		printUsage(fs)
		return 1
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintln(w, "filterdump - filter file build and inspection tool")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: filterdump --file=<path> [--command=<cmd>] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands (--command):")
	fmt.Fprintln(w, "  build   Build a filter file from \"offset<TAB>key\" lines")
	fmt.Fprintln(w, "  query   Check --key against the filter for --offset")
	fmt.Fprintln(w, "  stats   Show filter file layout (default)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.PrintDefaults()
}

func loadOptions(cfg *config, stderr io.Writer) (*rockyardfilter.Options, error) {
	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		return nil, err
	}

	opts := rockyardfilter.DefaultOptions()
	if cfg.optionsPath != "" {
		opts, err = rockyardfilter.LoadOptionsFile(cfg.optionsPath)
		if err != nil {
			return nil, fmt.Errorf("load options: %w", err)
		}
	}
	if cfg.bitsPerKey != 0 {
		opts.BitsPerKey = cfg.bitsPerKey
	}
	opts.Logger = logging.NewLogger(stderr, level)
	return opts, opts.Validate()
}

func cmdBuild(cfg *config, opts *rockyardfilter.Options, stdin io.Reader, stdout io.Writer) error {
	in := stdin
	if cfg.input != "-" {
		f, err := os.Open(cfg.input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	fw, err := rockyardfilter.NewFilterFileWriter(cfg.filePath, opts)
	if err != nil {
		return err
	}

	numBlocks, numKeys, err := feedKeys(fw, in, cfg.hexKeys)
	if err != nil {
		return errors.Join(err, fw.Abandon())
	}
	if err := fw.Finish(); err != nil {
		return err
	}

	opts.Logger.Infof(logging.NSCLI+"built %s from %d keys", cfg.filePath, numKeys)
	fmt.Fprintf(stdout, "Wrote %s: %d data blocks, %d keys\n", cfg.filePath, numBlocks, numKeys)
	return nil
}

// feedKeys reads "offset<TAB>key" lines. Blank lines and lines starting
// with '#' are skipped. Offsets must be non-decreasing.
func feedKeys(fw *rockyardfilter.FilterFileWriter, r io.Reader, hexKeys bool) (numBlocks, numKeys int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lastOffset uint64
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		offsetStr, keyStr, ok := strings.Cut(line, "\t")
		if !ok {
			return 0, 0, fmt.Errorf("line %d: missing tab separator", lineNo)
		}
		offset, err := strconv.ParseUint(strings.TrimSpace(offsetStr), 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("line %d: bad offset: %w", lineNo, err)
		}
		key, err := decodeKey(keyStr, hexKeys)
		if err != nil {
			return 0, 0, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if numBlocks == 0 || offset != lastOffset {
			if numBlocks > 0 && offset < lastOffset {
				return 0, 0, fmt.Errorf("line %d: offset %d precedes %d", lineNo, offset, lastOffset)
			}
			if err := fw.StartBlock(offset); err != nil {
				return 0, 0, fmt.Errorf("line %d: %w", lineNo, err)
			}
			lastOffset = offset
			numBlocks++
		}
		if err := fw.AddKey(key); err != nil {
			return 0, 0, err
		}
		numKeys++
	}
	return numBlocks, numKeys, scanner.Err()
}

func decodeKey(s string, hexKeys bool) ([]byte, error) {
	if !hexKeys {
		return []byte(s), nil
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("bad hex key: %w", err)
	}
	return key, nil
}

func cmdQuery(cfg *config, opts *rockyardfilter.Options, stdout io.Writer) error {
	key, err := decodeKey(cfg.key, cfg.hexKeys)
	if err != nil {
		return err
	}

	ff, err := rockyardfilter.OpenFilterFile(cfg.filePath, opts)
	if err != nil {
		return fmt.Errorf("failed to open filter file: %w", err)
	}
	defer ff.Close()

	if ff.KeyMayMatch(cfg.offset, key) {
		fmt.Fprintln(stdout, "may-match")
	} else {
		fmt.Fprintln(stdout, "absent")
	}
	return nil
}

func cmdStats(cfg *config, opts *rockyardfilter.Options, stdout io.Writer) error {
	ff, err := rockyardfilter.OpenFilterFile(cfg.filePath, opts)
	if err != nil {
		return fmt.Errorf("failed to open filter file: %w", err)
	}
	defer ff.Close()

	s := ff.Stats()
	resolved := "yes"
	if !s.PolicyResolved {
		resolved = "no (filtering disabled)"
	}

	fmt.Fprintf(stdout, "File:            %s\n", cfg.filePath)
	fmt.Fprintf(stdout, "File size:       %d\n", s.FileSize)
	fmt.Fprintf(stdout, "Policy:          %s\n", s.PolicyName)
	fmt.Fprintf(stdout, "Policy resolved: %s\n", resolved)
	fmt.Fprintf(stdout, "Checksum:        %s\n", s.ChecksumType)
	fmt.Fprintf(stdout, "Compression:     %s\n", s.Compression)
	fmt.Fprintf(stdout, "Block size:      %d (%d uncompressed)\n", s.BlockSize, s.ContentsSize)
	fmt.Fprintf(stdout, "Filter base:     %d (lg %d)\n", uint64(1)<<s.BaseLg, s.BaseLg)
	fmt.Fprintf(stdout, "Filters:         %d\n", s.NumFilters)

	empty := 0
	for i, n := range s.FilterSizes {
		if n == 0 {
			empty++
			continue
		}
		fmt.Fprintf(stdout, "  filter %d [%d, %d): %d bytes\n",
			i, uint64(i)<<s.BaseLg, uint64(i+1)<<s.BaseLg, n)
	}
	if empty > 0 {
		fmt.Fprintf(stdout, "  (%d empty filters)\n", empty)
	}
	return nil
}

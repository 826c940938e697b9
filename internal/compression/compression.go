// Package compression compresses and decompresses filter file blocks.
//
// Each block is stored with a 1-byte compression type in its trailer.
// Type values match RocksDB's CompressionType enum so that the trailer
// byte has the same meaning as in a block-based table.
//
// Reference: RocksDB v10.7.5 util/compression.h
package compression

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type represents a compression algorithm.
type Type uint8

const (
	// NoCompression indicates no compression.
	NoCompression Type = 0x0

	// SnappyCompression uses Google Snappy compression.
	SnappyCompression Type = 0x1

	// ZlibCompression uses raw DEFLATE (no zlib header), as RocksDB does.
	ZlibCompression Type = 0x2

	// LZ4Compression uses LZ4 compression.
	LZ4Compression Type = 0x4

	// LZ4HCCompression uses LZ4 High Compression mode.
	LZ4HCCompression Type = 0x5

	// ZstdCompression uses Zstandard compression.
	ZstdCompression Type = 0x7
)

// String returns the human-readable name of the compression type.
func (t Type) String() string {
	switch t {
	case NoCompression:
		return "NoCompression"
	case SnappyCompression:
		return "Snappy"
	case ZlibCompression:
		return "Zlib"
	case LZ4Compression:
		return "LZ4"
	case LZ4HCCompression:
		return "LZ4HC"
	case ZstdCompression:
		return "ZSTD"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// IsSupported returns true if the compression type is supported.
func (t Type) IsSupported() bool {
	switch t {
	case NoCompression, SnappyCompression, ZlibCompression, LZ4Compression, LZ4HCCompression, ZstdCompression:
		return true
	default:
		return false
	}
}

// HasEmbeddedSize reports whether the compressed format records the
// uncompressed size itself. Other formats get a varint32 size prefix.
func (t Type) HasEmbeddedSize() bool {
	return t == SnappyCompression
}

// ParseType maps the names accepted in OPTIONS files to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "kNoCompression", "none":
		return NoCompression, nil
	case "kSnappyCompression", "snappy":
		return SnappyCompression, nil
	case "kZlibCompression", "zlib":
		return ZlibCompression, nil
	case "kLZ4Compression", "lz4":
		return LZ4Compression, nil
	case "kLZ4HCCompression", "lz4hc":
		return LZ4HCCompression, nil
	case "kZSTD", "zstd":
		return ZstdCompression, nil
	default:
		return 0, fmt.Errorf("compression: unknown compression type %q", s)
	}
}

// Compress compresses data using the specified compression type.
func Compress(t Type, data []byte) ([]byte, error) {
	switch t {
	case NoCompression:
		return data, nil
	case SnappyCompression:
		return snappy.Encode(nil, data), nil
	case ZlibCompression:
		return compressDeflate(data)
	case LZ4Compression:
		return compressLZ4(data, lz4.Fast)
	case LZ4HCCompression:
		return compressLZ4(data, lz4.Level9)
	case ZstdCompression:
		enc, err := zstdEncoder()
		if err != nil {
			return nil, err
		}
		return enc.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("compression: unsupported compression type: %s", t)
	}
}

// Decompress decompresses data using the specified compression type.
func Decompress(t Type, data []byte) ([]byte, error) {
	switch t {
	case NoCompression:
		return data, nil
	case SnappyCompression:
		return snappy.Decode(nil, data)
	case ZlibCompression:
		r := flate.NewReader(bytes.NewReader(data))
		defer func() { _ = r.Close() }()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("compression: zlib decompress: %w", err)
		}
		return out, nil
	case LZ4Compression, LZ4HCCompression:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("compression: lz4 decompress: %w", err)
		}
		return out, nil
	case ZstdCompression:
		dec, err := zstdDecoder()
		if err != nil {
			return nil, err
		}
		return dec.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("compression: unsupported compression type: %s", t)
	}
}

func compressDeflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("compression: zlib writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compression: zlib write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compression: zlib close: %w", err)
	}
	return buf.Bytes(), nil
}

func compressLZ4(data []byte, level lz4.CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if err := w.Apply(lz4.CompressionLevelOption(level)); err != nil {
		return nil, fmt.Errorf("compression: lz4 apply level: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compression: lz4 write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compression: lz4 close: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeAll and DecodeAll are safe for concurrent use, so one encoder and
// one decoder serve the whole process.
var (
	zstdEncOnce sync.Once
	zstdEnc     *zstd.Encoder
	zstdEncErr  error

	zstdDecOnce sync.Once
	zstdDec     *zstd.Decoder
	zstdDecErr  error
)

func zstdEncoder() (*zstd.Encoder, error) {
	zstdEncOnce.Do(func() {
		zstdEnc, zstdEncErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdEncErr != nil {
			zstdEncErr = fmt.Errorf("compression: zstd encoder: %w", zstdEncErr)
		}
	})
	return zstdEnc, zstdEncErr
}

func zstdDecoder() (*zstd.Decoder, error) {
	zstdDecOnce.Do(func() {
		zstdDec, zstdDecErr = zstd.NewReader(nil)
		if zstdDecErr != nil {
			zstdDecErr = fmt.Errorf("compression: zstd decoder: %w", zstdDecErr)
		}
	})
	return zstdDec, zstdDecErr
}

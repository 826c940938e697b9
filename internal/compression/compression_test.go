package compression

import (
	"bytes"
	"testing"
)

var allTypes = []Type{
	NoCompression,
	SnappyCompression,
	ZlibCompression,
	LZ4Compression,
	LZ4HCCompression,
	ZstdCompression,
}

func TestCompressRoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"empty":      {},
		"short":      []byte("hello world"),
		"repetitive": bytes.Repeat([]byte("filter block "), 1000),
		"zeros":      make([]byte, 64*1024),
	}

	for _, typ := range allTypes {
		for name, data := range inputs {
			t.Run(typ.String()+"/"+name, func(t *testing.T) {
				compressed, err := Compress(typ, data)
				if err != nil {
					t.Fatalf("Compress failed: %v", err)
				}
				decompressed, err := Decompress(typ, compressed)
				if err != nil {
					t.Fatalf("Decompress failed: %v", err)
				}
				if !bytes.Equal(decompressed, data) {
					t.Errorf("round trip mismatch: got %d bytes, want %d", len(decompressed), len(data))
				}
			})
		}
	}
}

func TestCompressShrinksRepetitiveData(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 4096)
	for _, typ := range allTypes[1:] {
		compressed, err := Compress(typ, data)
		if err != nil {
			t.Fatalf("%s: Compress failed: %v", typ, err)
		}
		if len(compressed) >= len(data) {
			t.Errorf("%s: compressed %d bytes into %d", typ, len(data), len(compressed))
		}
	}
}

func TestNoCompressionReturnsInput(t *testing.T) {
	data := []byte("unchanged")
	got, err := Compress(NoCompression, data)
	if err != nil {
		t.Fatal(err)
	}
	if &got[0] != &data[0] {
		t.Error("NoCompression should return the input slice")
	}
}

func TestUnsupportedType(t *testing.T) {
	for _, typ := range []Type{0x3, 0x6, 0x8, 0xFF} {
		if typ.IsSupported() {
			t.Errorf("%s should be unsupported", typ)
		}
		if _, err := Compress(typ, []byte("x")); err == nil {
			t.Errorf("Compress(%s) should fail", typ)
		}
		if _, err := Decompress(typ, []byte("x")); err == nil {
			t.Errorf("Decompress(%s) should fail", typ)
		}
	}
}

func TestDecompressGarbage(t *testing.T) {
	garbage := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03}
	for _, typ := range []Type{SnappyCompression, LZ4Compression, ZstdCompression} {
		if _, err := Decompress(typ, garbage); err == nil {
			t.Errorf("%s: decompressing garbage should fail", typ)
		}
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"kNoCompression", NoCompression},
		{"snappy", SnappyCompression},
		{"kZlibCompression", ZlibCompression},
		{"lz4", LZ4Compression},
		{"kLZ4HCCompression", LZ4HCCompression},
		{"kZSTD", ZstdCompression},
	}
	for _, tc := range tests {
		got, err := ParseType(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseType(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
	if _, err := ParseType("bzip2"); err == nil {
		t.Error("ParseType(bzip2) should fail")
	}
}

func TestTypeString(t *testing.T) {
	tests := map[Type]string{
		NoCompression:     "NoCompression",
		SnappyCompression: "Snappy",
		ZstdCompression:   "ZSTD",
		Type(0x42):        "Unknown(66)",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

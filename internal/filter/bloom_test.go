package filter

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/aalhour/rockyardfilter/internal/encoding"
)

// fixedKey returns the 4-byte little-endian encoding of i.
func fixedKey(i int) []byte {
	return encoding.AppendFixed32(nil, uint32(i))
}

// nextLength walks 1..10, 20..100, 200..1000, 2000..10000.
func nextLength(length int) int {
	switch {
	case length < 10:
		return length + 1
	case length < 100:
		return length + 10
	case length < 1000:
		return length + 100
	default:
		return length + 1000
	}
}

func TestBloomPolicyName(t *testing.T) {
	p := NewBloomPolicy(10)
	if p.Name() != "leveldb.BuiltinBloomFilter2" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestBloomEmptyFilter(t *testing.T) {
	p := NewBloomPolicy(10)
	f := p.CreateFilter(nil, nil)

	// 64-bit floor: 8 zero bytes plus the probe count.
	want := []byte{0, 0, 0, 0, 0, 0, 0, 0, 6}
	if !bytes.Equal(f, want) {
		t.Fatalf("empty filter = %x, want %x", f, want)
	}
	for _, key := range []string{"hello", "world", ""} {
		if p.KeyMayMatch([]byte(key), f) {
			t.Errorf("empty filter matched %q", key)
		}
	}
}

func TestBloomSmall(t *testing.T) {
	p := NewBloomPolicy(10)
	f := p.CreateFilter([][]byte{[]byte("hello"), []byte("world")}, nil)

	if !p.KeyMayMatch([]byte("hello"), f) {
		t.Error("hello should match")
	}
	if !p.KeyMayMatch([]byte("world"), f) {
		t.Error("world should match")
	}
	if p.KeyMayMatch([]byte("x"), f) {
		t.Error("x should not match")
	}
	if p.KeyMayMatch([]byte("foo"), f) {
		t.Error("foo should not match")
	}
}

func TestBloomVaryingLengths(t *testing.T) {
	p := NewBloomPolicy(10)

	mediocre, good := 0, 0
	for length := 1; length <= 10000; length = nextLength(length) {
		keys := make([][]byte, length)
		for i := range keys {
			keys[i] = fixedKey(i)
		}
		f := p.CreateFilter(keys, nil)

		if maxLen := length*10/8 + 40; len(f) > maxLen {
			t.Errorf("length %d: filter size %d exceeds %d", length, len(f), maxLen)
		}

		// All added keys must match
		for i := 0; i < length; i++ {
			if !p.KeyMayMatch(fixedKey(i), f) {
				t.Fatalf("length %d: false negative for key %d", length, i)
			}
		}

		rate := falsePositiveRate(p, f)
		if rate > 0.02 {
			t.Errorf("length %d: false positive rate %.2f%% exceeds 2%%", length, rate*100)
		}
		if rate > 0.0125 {
			mediocre++
		} else {
			good++
		}
	}
	if mediocre > good/5 {
		t.Errorf("%d mediocre filters vs %d good filters", mediocre, good)
	}
}

func falsePositiveRate(p Policy, f []byte) float64 {
	result := 0
	for i := 0; i < 10000; i++ {
		if p.KeyMayMatch(fixedKey(i+1000000000), f) {
			result++
		}
	}
	return float64(result) / 10000.0
}

func TestBloomFalsePositiveRate(t *testing.T) {
	testCases := []struct {
		bitsPerKey int
		maxFPRate  float64
	}{
		{10, 0.02},  // ~1% expected, allow 2%
		{15, 0.005}, // ~0.1% expected, allow 0.5%
		{5, 0.15},   // ~10% expected, allow 15%
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("bits=%d", tc.bitsPerKey), func(t *testing.T) {
			p := NewBloomPolicy(tc.bitsPerKey)

			keys := make([][]byte, 10000)
			for i := range keys {
				keys[i] = fmt.Appendf(nil, "key%08d", i)
			}
			f := p.CreateFilter(keys, nil)

			falsePositives := 0
			numTests := 10000
			for i := 0; i < numTests; i++ {
				if p.KeyMayMatch(fmt.Appendf(nil, "miss%08d", i), f) {
					falsePositives++
				}
			}
			rate := float64(falsePositives) / float64(numTests)
			t.Logf("bits=%d: FP rate %.4f (%d/%d)", tc.bitsPerKey, rate, falsePositives, numTests)
			if rate > tc.maxFPRate {
				t.Errorf("FP rate %.4f exceeds %.4f", rate, tc.maxFPRate)
			}
		})
	}
}

func TestBloomNoFalseNegatives(t *testing.T) {
	for bitsPerKey := 1; bitsPerKey <= 32; bitsPerKey++ {
		p := NewBloomPolicy(bitsPerKey)
		for _, n := range []int{0, 1, 7, 100, 1000} {
			keys := make([][]byte, n)
			for i := range keys {
				keys[i] = fmt.Appendf(nil, "k%d-%d", bitsPerKey, i)
			}
			f := p.CreateFilter(keys, nil)
			for _, key := range keys {
				if !p.KeyMayMatch(key, f) {
					t.Fatalf("bits=%d n=%d: false negative for %q", bitsPerKey, n, key)
				}
			}
		}
	}
}

func TestBloomNumProbes(t *testing.T) {
	tests := []struct {
		bitsPerKey int
		want       int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{2, 1},
		{3, 2},
		{10, 6},
		{20, 13},
		{43, 29},
		{44, 30},
		{100, 30},
	}
	for _, tc := range tests {
		p := NewBloomPolicy(tc.bitsPerKey)
		if got := p.NumProbes(); got != tc.want {
			t.Errorf("NewBloomPolicy(%d).NumProbes() = %d, want %d", tc.bitsPerKey, got, tc.want)
		}
		f := p.CreateFilter([][]byte{[]byte("a")}, nil)
		if int(f[len(f)-1]) != tc.want {
			t.Errorf("bits=%d: trailing probe byte = %d, want %d", tc.bitsPerKey, f[len(f)-1], tc.want)
		}
	}
}

func TestBloomCreateFilterAppends(t *testing.T) {
	p := NewBloomPolicy(10)
	prefix := []byte("existing")
	dst := append([]byte(nil), prefix...)

	dst = p.CreateFilter([][]byte{[]byte("a"), []byte("b")}, dst)
	if !bytes.Equal(dst[:len(prefix)], prefix) {
		t.Fatalf("prefix modified: %q", dst[:len(prefix)])
	}

	second := p.CreateFilter([][]byte{[]byte("c")}, dst)
	first := second[len(prefix):len(dst)]
	last := second[len(dst):]
	if !p.KeyMayMatch([]byte("a"), first) || !p.KeyMayMatch([]byte("b"), first) {
		t.Error("first filter lost its keys")
	}
	if !p.KeyMayMatch([]byte("c"), last) {
		t.Error("second filter lost its key")
	}
}

func TestBloomReadsForeignParameters(t *testing.T) {
	writer := NewBloomPolicy(20)
	reader := NewBloomPolicy(4)

	keys := make([][]byte, 500)
	for i := range keys {
		keys[i] = fmt.Appendf(nil, "user%04d", i)
	}
	f := writer.CreateFilter(keys, nil)
	for _, key := range keys {
		if !reader.KeyMayMatch(key, f) {
			t.Fatalf("filter built with 20 bits/key rejected %q when probed by a 4 bits/key policy", key)
		}
	}
}

func TestBloomFilterSize(t *testing.T) {
	p := NewBloomPolicy(10)
	tests := []struct {
		numKeys int
		want    int
	}{
		{0, 9},  // 64-bit floor + k
		{6, 9},  // 60 bits rounds up to the floor
		{7, 10}, // 70 bits -> 9 bytes
		{100, 126},
	}
	for _, tc := range tests {
		keys := make([][]byte, tc.numKeys)
		for i := range keys {
			keys[i] = fixedKey(i)
		}
		if got := len(p.CreateFilter(keys, nil)); got != tc.want {
			t.Errorf("%d keys: filter size %d, want %d", tc.numKeys, got, tc.want)
		}
	}
}

func BenchmarkBloomCreateFilter(b *testing.B) {
	p := NewBloomPolicy(10)
	keys := make([][]byte, 1000)
	for i := range keys {
		keys[i] = fmt.Appendf(nil, "key%08d", i)
	}
	var dst []byte
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dst = p.CreateFilter(keys, dst[:0])
	}
}

func BenchmarkBloomKeyMayMatch(b *testing.B) {
	p := NewBloomPolicy(10)
	keys := make([][]byte, 1000)
	for i := range keys {
		keys[i] = fmt.Appendf(nil, "key%08d", i)
	}
	f := p.CreateFilter(keys, nil)
	key := []byte("key00000500")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.KeyMayMatch(key, f)
	}
}

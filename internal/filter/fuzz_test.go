package filter

import (
	"testing"
)

// FuzzBlockReader checks that arbitrary bytes never panic and that an
// uninterpretable block never denies a key.
func FuzzBlockReader(f *testing.F) {
	p := NewBloomPolicy(10)
	f.Add([]byte{}, uint64(0), []byte("foo"))
	f.Add([]byte{0, 0, 0, 0, 0x0b}, uint64(100000), []byte("foo"))
	f.Add(buildTwoFilterBlock(p), uint64(2048), []byte("bar"))
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0x0b}, uint64(0), []byte("x"))

	f.Fuzz(func(t *testing.T, contents []byte, offset uint64, key []byte) {
		r := NewBlockReader(p, contents)
		got := r.KeyMayMatch(offset, key)
		if r.Empty() && !got {
			t.Fatalf("empty reader denied key %q at offset %d", key, offset)
		}
	})
}

// FuzzBlockRoundTrip checks that every added key matches after a round trip.
func FuzzBlockRoundTrip(f *testing.F) {
	f.Add([]byte("alpha"), []byte("beta"), uint16(0), uint16(4000))
	f.Add([]byte{}, []byte{0xff}, uint16(2047), uint16(2048))

	f.Fuzz(func(t *testing.T, k1, k2 []byte, off1, off2 uint16) {
		first, second := uint64(off1), uint64(off2)
		if second < first {
			first, second = second, first
		}
		p := NewBloomPolicy(10)
		b := NewBlockBuilder(p)
		b.StartBlock(first)
		b.AddKey(k1)
		b.StartBlock(second)
		b.AddKey(k2)
		r := NewBlockReader(p, b.Finish())

		if !r.KeyMayMatch(first, k1) {
			t.Fatalf("false negative for %q at %d", k1, first)
		}
		if !r.KeyMayMatch(second, k2) {
			t.Fatalf("false negative for %q at %d", k2, second)
		}
	})
}

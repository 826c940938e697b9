package table

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aalhour/rockyardfilter/internal/vfs"
)

func TestCacheKeyMayMatch(t *testing.T) {
	fs := vfs.Default()
	dir := t.TempDir()

	var paths []string
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%06d.filter", i))
		writeFile(t, fs, path, WriterOptions{}, []blockKeys{
			{0, []string{fmt.Sprintf("key-%d", i)}},
		})
		paths = append(paths, path)
	}

	c := NewCache(fs, ReaderOptions{VerifyChecksums: true}, 1<<20)
	defer c.Close()

	for round := 0; round < 2; round++ {
		for i, path := range paths {
			ok, err := c.KeyMayMatch(path, 0, []byte(fmt.Sprintf("key-%d", i)))
			if err != nil {
				t.Fatalf("round %d: KeyMayMatch(%s) failed: %v", round, path, err)
			}
			if !ok {
				t.Errorf("round %d: false negative in %s", round, path)
			}
		}
	}
	// Three misses, then three hits.
	if r := c.HitRate(); r != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", r)
	}

	s, err := c.Stats(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if c.Usage() != 3*uint64(s.ContentsSize) {
		t.Errorf("Usage = %d, want %d", c.Usage(), 3*s.ContentsSize)
	}
}

func TestCacheEvictsOverCapacity(t *testing.T) {
	fs := vfs.Default()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.filter")
	b := filepath.Join(dir, "b.filter")
	writeFile(t, fs, a, WriterOptions{}, testBlocks)
	writeFile(t, fs, b, WriterOptions{}, testBlocks)

	probe := NewCache(fs, ReaderOptions{}, 1<<20)
	s, err := probe.Stats(a)
	if err != nil {
		t.Fatal(err)
	}
	probe.Close()

	// Room for one file only.
	c := NewCache(fs, ReaderOptions{}, uint64(s.ContentsSize))
	defer c.Close()
	if _, err := c.KeyMayMatch(a, 100, []byte("foo")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.KeyMayMatch(b, 100, []byte("foo")); err != nil {
		t.Fatal(err)
	}
	if c.Usage() != uint64(s.ContentsSize) {
		t.Errorf("Usage = %d, want %d", c.Usage(), s.ContentsSize)
	}
}

func TestCacheEvictAfterRewrite(t *testing.T) {
	fs := vfs.Default()
	path := filepath.Join(t.TempDir(), "rewrite.filter")
	writeFile(t, fs, path, WriterOptions{}, []blockKeys{{0, []string{"hello", "world"}}})

	c := NewCache(fs, ReaderOptions{}, 1<<20)
	defer c.Close()
	if ok, _ := c.KeyMayMatch(path, 0, []byte("x")); ok {
		t.Fatal("KeyMayMatch(x) = true")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	// Still served from the open reader.
	if ok, err := c.KeyMayMatch(path, 0, []byte("hello")); err != nil || !ok {
		t.Errorf("cached KeyMayMatch = %v, %v", ok, err)
	}

	c.Evict(path)
	ok, err := c.KeyMayMatch(path, 0, []byte("hello"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
	if !ok {
		t.Error("errors must report a possible match")
	}
	if c.Usage() != 0 {
		t.Errorf("Usage = %d, want 0", c.Usage())
	}
}

func TestCacheOpenError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.filter")
	if err := os.WriteFile(path, make([]byte, 100), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewCache(vfs.Default(), ReaderOptions{}, 1<<20)
	defer c.Close()
	if _, err := c.KeyMayMatch(path, 0, []byte("k")); !errors.Is(err, ErrBadMagic) {
		t.Errorf("err = %v, want ErrBadMagic", err)
	}
}

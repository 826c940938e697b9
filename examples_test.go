package rockyardfilter_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aalhour/rockyardfilter"
)

func ExampleNewFilterBlockBuilder() {
	policy := rockyardfilter.NewBloomFilterPolicy(10)

	b := rockyardfilter.NewFilterBlockBuilder(policy)
	b.StartBlock(0)
	b.AddKey([]byte("hello"))
	b.AddKey([]byte("world"))
	contents := b.Finish()

	r := rockyardfilter.NewFilterBlockReader(policy, contents)
	fmt.Println(r.KeyMayMatch(0, []byte("hello")))
	fmt.Println(r.KeyMayMatch(0, []byte("x")))
	// Output:
	// true
	// false
}

func ExampleWriteFilterFile() {
	dir, err := os.MkdirTemp("", "rockyardfilter-example-*")
	if err != nil {
		panic(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "000001.filter")
	blocks := []rockyardfilter.BlockKeys{
		{Offset: 0, Keys: [][]byte{[]byte("hello"), []byte("world")}},
	}
	if err := rockyardfilter.WriteFilterFile(path, rockyardfilter.DefaultOptions(), blocks); err != nil {
		panic(err)
	}

	ff, err := rockyardfilter.OpenFilterFile(path, rockyardfilter.DefaultOptions())
	if err != nil {
		panic(err)
	}
	defer func() { _ = ff.Close() }()

	fmt.Println(ff.PolicyName())
	fmt.Println(ff.KeyMayMatch(0, []byte("world")))
	fmt.Println(ff.KeyMayMatch(0, []byte("x")))
	// Output:
	// leveldb.BuiltinBloomFilter2
	// true
	// false
}

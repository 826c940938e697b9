/*
Package rockyardfilter provides LevelDB-compatible Bloom filters and
filter blocks for sorted-table storage engines.

A filter block summarizes the keys of every data block in a table, grouped
by block offset into 2KB ranges, so a point lookup can skip data blocks that
cannot contain the key. Filters answer "definitely absent" or "possibly
present"; they never report a present key as absent.

# Usage

Build a filter block while writing data blocks, then query it by the
offset of the data block a key would live in:

	policy := rockyardfilter.NewBloomFilterPolicy(10)
	b := rockyardfilter.NewFilterBlockBuilder(policy)
	b.StartBlock(0)
	b.AddKey([]byte("apple"))
	contents := b.Finish()

	r := rockyardfilter.NewFilterBlockReader(policy, contents)
	r.KeyMayMatch(0, []byte("apple")) // true

Filter blocks can also be stored on their own in a filter file, see
WriteFilterFile and OpenFilterFile.

# Concurrency

Policies and readers are immutable and safe for concurrent use. A builder
or filter file writer must be used by one goroutine at a time.

# Compatibility

The Bloom filter encoding, the hash it is built on and the filter block
layout are bit-compatible with LevelDB's leveldb.BuiltinBloomFilter2 policy
and table/filter_block.cc.
*/
package rockyardfilter

package c3

import (
	"fmt"
	"sort"
)

// Bucket is one anonymity set: every corpus record whose digest shares the
// bucket's prefix. Its size is the l parameter the attacks exploit; the
// protocol never guarantees a minimum.
type Bucket struct {
	Prefix  string   `json:"prefix"`
	Records []Record `json:"records"`
}

// Size returns the anonymity-set size l.
func (b *Bucket) Size() int { return len(b.Records) }

// Clone returns a deep copy. Query events snapshot buckets rather than
// aliasing index state, so the log stays valid independent of the index.
func (b *Bucket) Clone() *Bucket {
	records := make([]Record, len(b.Records))
	copy(records, b.Records)
	return &Bucket{Prefix: b.Prefix, Records: records}
}

// Contains reports whether the bucket holds a record with the given full hash.
func (b *Bucket) Contains(hash string) bool {
	for _, r := range b.Records {
		if r.Hash == hash {
			return true
		}
	}
	return false
}

// BucketIndex partitions a corpus into anonymity buckets under one scheme.
// It is built once and read-only afterwards; all accessors hand out copies
// or immutable views.
type BucketIndex struct {
	scheme  Scheme
	buckets map[string]*Bucket
	total   int
}

// BuildIndex hashes every corpus credential once and groups the records by
// prefix. Record order within a bucket follows corpus order, which keeps
// index construction deterministic.
func BuildIndex(corpus *Corpus, scheme Scheme) (*BucketIndex, error) {
	if err := scheme.Validate(); err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	ix := &BucketIndex{scheme: scheme, buckets: make(map[string]*Bucket)}
	for _, user := range corpus.Users {
		for _, cred := range user {
			ix.insert(NewRecord(cred, scheme))
		}
	}
	return ix, nil
}

func (ix *BucketIndex) insert(rec Record) {
	b, ok := ix.buckets[rec.Prefix]
	if !ok {
		b = &Bucket{Prefix: rec.Prefix}
		ix.buckets[rec.Prefix] = b
	}
	b.Records = append(b.Records, rec)
	ix.total++
}

// Scheme returns the scheme the index was built with.
func (ix *BucketIndex) Scheme() Scheme { return ix.scheme }

// TotalRecords returns the number of indexed records, which always equals
// the corpus size (the buckets partition the corpus).
func (ix *BucketIndex) TotalRecords() int { return ix.total }

// NumBuckets returns the number of non-empty buckets.
func (ix *BucketIndex) NumBuckets() int { return len(ix.buckets) }

// Lookup returns a copy of the bucket for a prefix. A prefix no record
// shares yields ErrBucketNotFound; protocol callers convert that to a legal
// empty bucket.
func (ix *BucketIndex) Lookup(prefix string) (*Bucket, error) {
	if len(prefix) != ix.scheme.PrefixBits {
		return nil, fmt.Errorf("lookup of %d-bit prefix against %d-bit index: %w",
			len(prefix), ix.scheme.PrefixBits, ErrSchemeMismatch)
	}
	b, ok := ix.buckets[prefix]
	if !ok {
		return nil, fmt.Errorf("prefix %s: %w", prefix, ErrBucketNotFound)
	}
	return b.Clone(), nil
}

// Prefixes returns all non-empty bucket prefixes in sorted order.
func (ix *BucketIndex) Prefixes() []string {
	out := make([]string, 0, len(ix.buckets))
	for p := range ix.buckets {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// SizeDistribution returns a histogram of anonymity-set sizes: bucket size
// to number of buckets with that size.
func (ix *BucketIndex) SizeDistribution() map[int]int {
	hist := make(map[int]int)
	for _, b := range ix.buckets {
		hist[b.Size()]++
	}
	return hist
}

// Rebuild produces a new index with a different prefix length without
// mutating or rehashing the original: prefixes are re-derived from the
// stored full digests. Experiments sweeping the prefix length rely on this
// being a functional operation.
func (ix *BucketIndex) Rebuild(prefixBits int) (*BucketIndex, error) {
	scheme := ix.scheme.WithPrefixBits(prefixBits)
	if err := scheme.Validate(); err != nil {
		return nil, fmt.Errorf("rebuilding index: %w", err)
	}
	out := &BucketIndex{scheme: scheme, buckets: make(map[string]*Bucket)}
	for _, prefix := range ix.Prefixes() {
		for _, rec := range ix.buckets[prefix].Records {
			rec.Prefix = PrefixOfHash(rec.Hash, prefixBits)
			out.insert(rec)
		}
	}
	return out, nil
}

// indexSnapshot is the serialized form of a BucketIndex. Buckets are sorted
// by prefix so serialization is deterministic.
type indexSnapshot struct {
	Scheme  Scheme   `json:"scheme"`
	Buckets []Bucket `json:"buckets"`
}

// Serialize encodes the index for persistence between runs.
func (ix *BucketIndex) Serialize() ([]byte, error) {
	snap := indexSnapshot{Scheme: ix.scheme, Buckets: make([]Bucket, 0, len(ix.buckets))}
	for _, prefix := range ix.Prefixes() {
		snap.Buckets = append(snap.Buckets, *ix.buckets[prefix].Clone())
	}
	return Serialize(&snap)
}

// DeserializeIndex reconstructs an index serialized by Serialize.
func DeserializeIndex(data []byte) (*BucketIndex, error) {
	snap, err := DecodeBytes[indexSnapshot](data)
	if err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}
	ix := &BucketIndex{scheme: snap.Scheme, buckets: make(map[string]*Bucket)}
	for _, b := range snap.Buckets {
		for _, rec := range b.Records {
			ix.insert(rec)
		}
	}
	return ix, nil
}

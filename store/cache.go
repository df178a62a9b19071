package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/c3"
)

// ErrCacheMiss indicates no artifact is cached under the requested key.
var ErrCacheMiss = errors.New("store: cache miss")

// Cache is a Badger-backed store for serialized simulation artifacts.
type Cache struct {
	db *badger.DB
}

// OpenCache opens (or creates) the cache under dir.
func OpenCache(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening cache at %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// QueryLogKey identifies a cached query log by everything its contents
// depend on: corpus, scheme, query source and seed.
func QueryLogKey(corpusDigest string, scheme c3.Scheme, sourceDigest string, seed int64) string {
	return fmt.Sprintf("querylog/%s/%s-%s-%d/%s/%d",
		corpusDigest, scheme.Algorithm, scheme.Basis, scheme.PrefixBits, sourceDigest, seed)
}

// IndexKey identifies a cached bucket index by corpus and scheme.
func IndexKey(corpusDigest string, scheme c3.Scheme) string {
	return fmt.Sprintf("index/%s/%s-%s-%d",
		corpusDigest, scheme.Algorithm, scheme.Basis, scheme.PrefixBits)
}

// Put stores a serialized artifact under key.
func (c *Cache) Put(key string, data []byte) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("caching %s: %w", key, err)
	}
	return nil
}

// Get retrieves a serialized artifact, or ErrCacheMiss.
func (c *Cache) Get(key string) ([]byte, error) {
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", key, ErrCacheMiss)
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache %s: %w", key, err)
	}
	return data, nil
}

// PutQueryLog serializes and caches a query log.
func (c *Cache) PutQueryLog(key string, log *c3.QueryLog) error {
	data, err := log.Serialize()
	if err != nil {
		return fmt.Errorf("serializing query log: %w", err)
	}
	return c.Put(key, data)
}

// GetQueryLog retrieves and deserializes a cached query log.
func (c *Cache) GetQueryLog(key string) (*c3.QueryLog, error) {
	data, err := c.Get(key)
	if err != nil {
		return nil, err
	}
	return c3.DeserializeQueryLog(data)
}

// PutIndex serializes and caches a bucket index.
func (c *Cache) PutIndex(key string, index *c3.BucketIndex) error {
	data, err := index.Serialize()
	if err != nil {
		return fmt.Errorf("serializing index: %w", err)
	}
	return c.Put(key, data)
}

// GetIndex retrieves and deserializes a cached bucket index.
func (c *Cache) GetIndex(key string) (*c3.BucketIndex, error) {
	data, err := c.Get(key)
	if err != nil {
		return nil, err
	}
	return c3.DeserializeIndex(data)
}

// Package storage adapts the teacher's embedded-KV wrapper into a
// durable cache of resolved address -> (region, rack) pairs, so a
// restarted process doesn't have to re-query the injected
// placement.Resolver for every address it already knew about. The
// cache is never authoritative: placement.TopologyIndex is updated
// from live membership on every OnClusterChanged call, and the core
// itself keeps no durable state of its own, per spec.md §1 Non-goals.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// rackRecord is the cached (region, rack) pair for one address.
type rackRecord struct {
	Region string `json:"region"`
	Rack   string `json:"rack"`
}

// TopologyCache is a badger-backed cache of resolved address -> rack
// lookups. It implements placement.Resolver so it can be layered in
// front of a slower resolver (DNS, a coordination-service client):
// callers that want caching construct a TopologyCache wrapping the
// real resolver and pass the cache itself to placement.NewPolicy.
type TopologyCache struct {
	db       *badger.DB
	fallback Resolver
}

// Resolver mirrors placement.Resolver without importing the
// placement package, keeping storage free of a dependency on the
// core it caches for.
type Resolver interface {
	Resolve(addr string) (region, rack string)
}

// NewTopologyCache opens (or creates) a badger database at dataDir
// and wraps fallback, which is queried on a cache miss. fallback may
// be nil, in which case misses resolve to ("", "").
func NewTopologyCache(dataDir string, fallback Resolver) (*TopologyCache, error) {
	opts := badger.DefaultOptions(dataDir).
		WithLogger(nil).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open topology cache: %w", err)
	}

	cache := &TopologyCache{db: db, fallback: fallback}
	go cache.runGC()
	return cache, nil
}

func (c *TopologyCache) runGC() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		_ = c.db.RunValueLogGC(0.7)
	}
}

// Resolve returns the cached (region, rack) for addr if present,
// otherwise queries fallback and caches a non-empty result.
func (c *TopologyCache) Resolve(addr string) (string, string) {
	if region, rack, ok := c.lookup(addr); ok {
		return region, rack
	}

	if c.fallback == nil {
		return "", ""
	}
	region, rack := c.fallback.Resolve(addr)
	if rack != "" {
		_ = c.put(addr, region, rack)
	}
	return region, rack
}

func (c *TopologyCache) lookup(addr string) (region, rack string, ok bool) {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(addr))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var rec rackRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			region, rack, ok = rec.Region, rec.Rack, true
			return nil
		})
	})
	if err != nil {
		return "", "", false
	}
	return region, rack, ok
}

func (c *TopologyCache) put(addr, region, rack string) error {
	data, err := json.Marshal(rackRecord{Region: region, Rack: rack})
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(addr), data)
	})
}

// Invalidate removes addr's cached entry, so the next Resolve queries
// the fallback again (e.g. after a node moved racks).
func (c *TopologyCache) Invalidate(addr string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(cacheKey(addr))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// Close closes the underlying database.
func (c *TopologyCache) Close() error {
	return c.db.Close()
}

// Backup writes a full copy of the cache to path, mirroring the
// teacher's storage.Backup/Restore pairing.
func (c *TopologyCache) Backup(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = c.db.Backup(file, 0)
	return err
}

func cacheKey(addr string) []byte {
	return []byte("rack:" + addr)
}

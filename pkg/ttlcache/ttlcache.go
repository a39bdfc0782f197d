// Package ttlcache provides a bounded cache with time based expiry.
//
// The cache holds at most a fixed number of entries. Reading or writing an entry
// refreshes its expiry time, so the time to live acts as an idle timeout: entries
// fall out only after not being touched for the configured duration, and expired
// entries are purged lazily, when the cache runs out of capacity or when Purge is
// called.
package ttlcache

import (
	"iter"
	"sync"
	"time"

	"github.com/tidwall/btree"
	"go.llib.dev/testcase/clock"

	"github.com/bitwelder/stew/port/ds"
)

// Cache is a capacity bound key-value cache with idle expiry.
// It is safe for concurrent use.
type Cache[K comparable, V any] struct {
	capacity int
	ttl      time.Duration

	mu      sync.Mutex
	entries map[K]*node[V]
	expiry  *btree.BTreeG[expiryKey[K]]
	lastSeq uint64
}

var _ ds.Len = (*Cache[string, any])(nil)

type node[V any] struct {
	value     V
	touchedAt time.Time
	seq       uint64
}

// expiryKey orders the expiry index by touch time;
// the admission sequence breaks the ties between same-instant touches.
type expiryKey[K comparable] struct {
	at  time.Time
	seq uint64
	key K
}

// New creates a Cache that holds at most capacity entries,
// expiring the ones untouched for the given time to live.
func New[K comparable, V any](capacity int, ttl time.Duration) *Cache[K, V] {
	if capacity < 1 {
		panic("ttlcache: capacity must be positive")
	}
	if ttl <= 0 {
		panic("ttlcache: time to live must be positive")
	}
	return &Cache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[K]*node[V]),
		expiry:   newExpiryIndex[K](),
	}
}

func newExpiryIndex[K comparable]() *btree.BTreeG[expiryKey[K]] {
	return btree.NewBTreeG(func(a, b expiryKey[K]) bool {
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		return a.seq < b.seq
	})
}

// Put stores the value under the key, refreshing the entry if the key is already cached.
// When the cache is full, it purges the expired entries once and retries;
// Put reports false if there was still no room for the new entry.
func (c *Cache[K, V]) Put(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		c.expiry.Delete(expiryKey[K]{at: n.touchedAt, seq: n.seq, key: key})
		n.value = value
		c.touch(key, n)
		return true
	}

	if len(c.entries) == c.capacity {
		c.purge()
	}
	if len(c.entries) == c.capacity {
		return false
	}

	n := &node[V]{value: value}
	c.entries[key] = n
	c.touch(key, n)
	return true
}

// Get returns the value cached under the key, and refreshes the entry's expiry.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.expiry.Delete(expiryKey[K]{at: n.touchedAt, seq: n.seq, key: key})
	c.touch(key, n)
	return n.value, true
}

// Purge removes every entry that was not touched within the time to live.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purge()
}

func (c *Cache[K, V]) purge() {
	cutoff := clock.Now().Add(-c.ttl)
	var expired []expiryKey[K]
	c.expiry.Scan(func(item expiryKey[K]) bool {
		if item.at.After(cutoff) {
			return false
		}
		expired = append(expired, item)
		return true
	})
	for _, item := range expired {
		c.expiry.Delete(item)
		delete(c.entries, item.key)
	}
}

// touch registers the entry as used just now.
func (c *Cache[K, V]) touch(key K, n *node[V]) {
	c.lastSeq++
	n.touchedAt = clock.Now()
	n.seq = c.lastSeq
	c.expiry.Set(expiryKey[K]{at: n.touchedAt, seq: n.seq, key: key})
}

// Clear removes every entry from the cache.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*node[V])
	c.expiry = newExpiryIndex[K]()
}

// Len returns the number of cached entries, including the not yet purged expired ones.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// IsEmpty reports whether the cache has no entries.
func (c *Cache[K, V]) IsEmpty() bool {
	return c.Len() == 0
}

// All ranges over the cached entries. The order is unspecified,
// and the traversal works on a snapshot, so the body may mutate the cache.
func (c *Cache[K, V]) All() iter.Seq2[K, V] {
	c.mu.Lock()
	kvs := make(map[K]V, len(c.entries))
	for key, n := range c.entries {
		kvs[key] = n.value
	}
	c.mu.Unlock()
	return func(yield func(K, V) bool) {
		for key, value := range kvs {
			if !yield(key, value) {
				return
			}
		}
	}
}

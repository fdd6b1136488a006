package store

import (
	"fmt"
	"io"
	"sync/atomic"

	ristretto "github.com/dgraph-io/ristretto/v2"
)

var (
	_ Store[any] = (*tinyLFU[any])(nil)
	_ io.Closer  = (*tinyLFU[any])(nil)
)

// entry keeps the key next to the value; ristretto only hands hashed keys to
// its eviction callback.
type entry[V any] struct {
	key   string
	value V
}

type tinyLFU[V any] struct {
	cache   *ristretto.Cache[string, entry[V]]
	quiet   atomic.Bool
	deleted atomic.Int64
}

// NewTinyLFU returns a store of about capacity entries that admits and evicts
// by estimated access frequency. A new key may be rejected in favor of hotter
// ones, in which case the next Load misses.
func NewTinyLFU[V any](capacity int64, onEvict EvictFunc) (Store[V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("create tinylfu store: capacity must be positive, got %d", capacity)
	}
	s := &tinyLFU[V]{}
	cache, err := ristretto.NewCache(&ristretto.Config[string, entry[V]]{
		NumCounters:        capacity * 10, // number of keys to track frequency of.
		MaxCost:            capacity,      // every entry costs 1.
		BufferItems:        64,            // number of keys per Get buffer.
		Metrics:            true,
		IgnoreInternalCost: true,
		OnEvict: func(item *ristretto.Item[entry[V]]) {
			if !s.quiet.Load() {
				onEvict.evicted(item.Value.key)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create tinylfu store: %w", err)
	}
	s.cache = cache
	return s, nil
}

func (s *tinyLFU[V]) Load(key string) (V, bool) {
	e, ok := s.cache.Get(key)
	return e.value, ok
}

// Store waits for the write to be applied, so a following Load sees it unless
// the admission policy dropped it.
func (s *tinyLFU[V]) Store(key string, value V) {
	if s.cache.Set(key, entry[V]{key: key, value: value}, 1) {
		s.cache.Wait()
	}
}

func (s *tinyLFU[V]) Delete(key string) bool {
	if _, ok := s.cache.Get(key); !ok {
		return false
	}
	s.cache.Del(key)
	s.cache.Wait()
	s.deleted.Add(1)
	return true
}

// Len is derived from the admission counters and is approximate.
func (s *tinyLFU[V]) Len() int {
	m := s.cache.Metrics
	n := int64(m.KeysAdded()) - int64(m.KeysEvicted()) - s.deleted.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

func (s *tinyLFU[V]) Purge() {
	s.quiet.Store(true)
	defer s.quiet.Store(false)
	s.cache.Clear()
	s.deleted.Store(0)
}

// Close stops the store's background goroutines.
func (s *tinyLFU[V]) Close() error {
	s.cache.Close()
	return nil
}

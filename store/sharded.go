package store

import (
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

var (
	_ Store[any]    = (*sharded[any])(nil)
	_ PrefixDeleter = (*sharded[any])(nil)
)

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

type sharded[V any] struct {
	shards []*shard[V]
}

// NewSharded returns an unbounded store split into numShards RW-locked maps.
// Keys are assigned to shards by their xxhash, so readers of different keys
// rarely contend. numShards <= 0 means a single shard.
func NewSharded[V any](numShards int) Store[V] {
	if numShards <= 0 {
		numShards = 1
	}
	shards := make([]*shard[V], numShards)
	for i := range shards {
		shards[i] = &shard[V]{items: make(map[string]V)}
	}
	return &sharded[V]{shards: shards}
}

func (s *sharded[V]) shardOf(key string) *shard[V] {
	return s.shards[indexByHash(key, len(s.shards))]
}

func (s *sharded[V]) Load(key string) (V, bool) {
	sh := s.shardOf(key)
	sh.mu.RLock()
	v, ok := sh.items[key]
	sh.mu.RUnlock()
	return v, ok
}

func (s *sharded[V]) Store(key string, value V) {
	sh := s.shardOf(key)
	sh.mu.Lock()
	sh.items[key] = value
	sh.mu.Unlock()
}

func (s *sharded[V]) Delete(key string) bool {
	sh := s.shardOf(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.items[key]; !ok {
		return false
	}
	delete(sh.items, key)
	return true
}

func (s *sharded[V]) DeletePrefix(prefix string) int {
	deleted := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k := range sh.items {
			if strings.HasPrefix(k, prefix) {
				delete(sh.items, k)
				deleted++
			}
		}
		sh.mu.Unlock()
	}
	return deleted
}

func (s *sharded[V]) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.items)
		sh.mu.RUnlock()
	}
	return n
}

func (s *sharded[V]) Purge() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.items = make(map[string]V)
		sh.mu.Unlock()
	}
}

func indexByHash(key string, numShards int) int {
	switch numShards {
	case 0:
		panic("number of shards cannot be 0")
	case 1:
		return 0
	default:
		return int(xxhash.Sum64String(key) % uint64(numShards))
	}
}

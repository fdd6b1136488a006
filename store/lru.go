package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/on-the-ground/memo_ive_go/shared/helper"
)

var (
	_ Store[any]    = (*lruStore[any])(nil)
	_ PrefixDeleter = (*lruStore[any])(nil)
)

type lruStore[V any] struct {
	mu  sync.Mutex
	lru *simplelru.LRU
	// quiet suppresses eviction reports while entries are removed on request.
	quiet bool
}

// NewLRU returns a store holding at most capacity entries. Once full, storing a
// new key evicts the least recently loaded or stored one.
func NewLRU[V any](capacity int, onEvict EvictFunc) (Store[V], error) {
	s := &lruStore[V]{}
	lru, err := simplelru.NewLRU(capacity, func(key, _ interface{}) {
		if !s.quiet {
			onEvict.evicted(key.(string))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create lru store: %w", err)
	}
	s.lru = lru
	return s, nil
}

func (s *lruStore[V]) Load(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return helper.GetTypedValueOf2[V](func() (any, bool) {
		return s.lru.Get(key)
	})
}

func (s *lruStore[V]) Store(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Add(key, value)
}

func (s *lruStore[V]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quiet = true
	defer func() { s.quiet = false }()
	return s.lru.Remove(key)
}

func (s *lruStore[V]) DeletePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quiet = true
	defer func() { s.quiet = false }()
	deleted := 0
	for _, k := range s.lru.Keys() {
		if key := k.(string); strings.HasPrefix(key, prefix) && s.lru.Remove(key) {
			deleted++
		}
	}
	return deleted
}

func (s *lruStore[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

func (s *lruStore[V]) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quiet = true
	defer func() { s.quiet = false }()
	s.lru.Purge()
}

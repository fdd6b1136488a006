package store

import (
	"strings"
	"sync"
	"time"

	"github.com/on-the-ground/memo_ive_go/shared/helper"
	gocache "github.com/patrickmn/go-cache"
)

var (
	_ Store[any]    = (*expiring[any])(nil)
	_ PrefixDeleter = (*expiring[any])(nil)
)

type expiring[V any] struct {
	cache *gocache.Cache
	// deleting holds keys being removed on request, whose removal is not an eviction.
	deleting sync.Map
}

// NewExpiring returns an unbounded store whose entries expire ttl after they
// were stored. Expired entries are never loaded; they are reported as evicted
// when the janitor sweeps them every cleanupInterval (no sweeping if <= 0).
func NewExpiring[V any](ttl, cleanupInterval time.Duration, onEvict EvictFunc) Store[V] {
	s := &expiring[V]{cache: gocache.New(ttl, cleanupInterval)}
	s.cache.OnEvicted(func(key string, _ interface{}) {
		if _, requested := s.deleting.Load(key); !requested {
			onEvict.evicted(key)
		}
	})
	return s
}

func (s *expiring[V]) Load(key string) (V, bool) {
	return helper.GetTypedValueOf2[V](func() (any, bool) {
		return s.cache.Get(key)
	})
}

func (s *expiring[V]) Store(key string, value V) {
	s.cache.Set(key, value, gocache.DefaultExpiration)
}

func (s *expiring[V]) Delete(key string) bool {
	_, present := s.cache.Get(key)
	s.deleting.Store(key, struct{}{})
	defer s.deleting.Delete(key)
	s.cache.Delete(key)
	return present
}

func (s *expiring[V]) DeletePrefix(prefix string) int {
	deleted := 0
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) && s.Delete(key) {
			deleted++
		}
	}
	return deleted
}

// Len may count expired entries the janitor has not swept yet.
// Evictions are reported for swept entries only: an expired entry that is
// overwritten before the janitor reaches it is replaced without an eviction.
func (s *expiring[V]) Len() int {
	return s.cache.ItemCount()
}

func (s *expiring[V]) Purge() {
	s.cache.Flush()
}

package store_test

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/memo_ive_go/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type factory struct {
	name string
	new  func(t *testing.T) store.Store[string]
}

func factories() []factory {
	return []factory{
		{"sharded", func(t *testing.T) store.Store[string] {
			return store.NewSharded[string](4)
		}},
		{"lru", func(t *testing.T) store.Store[string] {
			s, err := store.NewLRU[string](128, nil)
			require.NoError(t, err)
			return s
		}},
		{"generational", func(t *testing.T) store.Store[string] {
			return store.NewGenerational[string](128, nil)
		}},
		{"tinylfu", func(t *testing.T) store.Store[string] {
			s, err := store.NewTinyLFU[string](1024, nil)
			require.NoError(t, err)
			t.Cleanup(func() { s.(io.Closer).Close() })
			return s
		}},
		{"expiring", func(t *testing.T) store.Store[string] {
			return store.NewExpiring[string](time.Hour, 0, nil)
		}},
		{"indexed", func(t *testing.T) store.Store[string] {
			s, err := store.NewIndexed[string]()
			require.NoError(t, err)
			return s
		}},
	}
}

func TestStore_BasicUsage(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			s := f.new(t)

			_, ok := s.Load("a")
			assert.False(t, ok)

			s.Store("a", "first")
			val, ok := s.Load("a")
			assert.True(t, ok)
			assert.Equal(t, "first", val)

			// overwrite existing
			s.Store("a", "updated")
			val, ok = s.Load("a")
			assert.True(t, ok)
			assert.Equal(t, "updated", val)
			assert.Equal(t, 1, s.Len())

			// empty key is a valid key
			s.Store("", "empty")
			val, ok = s.Load("")
			assert.True(t, ok)
			assert.Equal(t, "empty", val)

			assert.True(t, s.Delete("a"))
			assert.False(t, s.Delete("a"))
			_, ok = s.Load("a")
			assert.False(t, ok)

			s.Store("b", "b")
			s.Purge()
			_, ok = s.Load("b")
			assert.False(t, ok)
			_, ok = s.Load("")
			assert.False(t, ok)
			assert.Equal(t, 0, s.Len())
		})
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	for _, f := range factories() {
		s := f.new(t)
		pd, ok := s.(store.PrefixDeleter)
		if !ok {
			continue
		}
		t.Run(f.name, func(t *testing.T) {
			for _, k := range []string{"ab1", "ab2", "abc", "b", "a"} {
				s.Store(k, k)
			}
			assert.Equal(t, 3, pd.DeletePrefix("ab"))
			for _, k := range []string{"ab1", "ab2", "abc"} {
				_, ok := s.Load(k)
				assert.False(t, ok, k)
			}
			for _, k := range []string{"b", "a"} {
				v, ok := s.Load(k)
				assert.True(t, ok, k)
				assert.Equal(t, k, v)
			}
			assert.Equal(t, 2, s.Len())
			assert.Equal(t, 0, pd.DeletePrefix("zz"))
		})
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			s := f.new(t)
			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < 50; i++ {
						k := fmt.Sprintf("%d-%d", g, i)
						s.Store(k, k)
						if v, ok := s.Load(k); ok {
							assert.Equal(t, k, v)
						}
					}
				}(g)
			}
			wg.Wait()
		})
	}
}

type evictions struct {
	mu   sync.Mutex
	keys []string
}

func (e *evictions) record(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = append(e.keys, key)
}

func (e *evictions) sorted() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := append([]string(nil), e.keys...)
	sort.Strings(out)
	return out
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	var ev evictions
	s, err := store.NewLRU[int](2, ev.record)
	require.NoError(t, err)

	s.Store("a", 1)
	s.Store("b", 2)
	s.Load("a") // b is now the oldest
	s.Store("c", 3)

	_, ok := s.Load("b")
	assert.False(t, ok)
	_, ok = s.Load("a")
	assert.True(t, ok)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"b"}, ev.sorted())

	// explicit removals are not evictions
	s.Delete("a")
	s.Purge()
	assert.Equal(t, []string{"b"}, ev.sorted())
}

func TestLRU_InvalidCapacity(t *testing.T) {
	_, err := store.NewLRU[int](0, nil)
	assert.Error(t, err)
}

func TestGenerational_Rotation(t *testing.T) {
	var ev evictions
	s := store.NewGenerational[int](2, ev.record)

	s.Store("a", 1)
	s.Store("b", 2)
	// head is full: "a" and "b" become the tail
	s.Store("c", 3)
	assert.Equal(t, 3, s.Len())
	assert.Empty(t, ev.sorted())

	// loading from the tail still hits
	v, ok := s.Load("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// storing a tail key moves it to the head
	s.Store("a", 10)
	assert.Equal(t, 3, s.Len())

	// head ("c", "a") is full: the tail ("b") is dropped
	s.Store("d", 4)
	assert.Equal(t, []string{"b"}, ev.sorted())
	_, ok = s.Load("b")
	assert.False(t, ok)
	v, ok = s.Load("a")
	assert.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Equal(t, 3, s.Len())
}

func TestGenerational_ZeroSizePanics(t *testing.T) {
	assert.Panics(t, func() { store.NewGenerational[int](0, nil) })
}

func TestExpiring_EntriesExpire(t *testing.T) {
	var ev evictions
	s := store.NewExpiring[int](20*time.Millisecond, 5*time.Millisecond, ev.record)

	s.Store("a", 1)
	v, ok := s.Load("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	assert.Eventually(t, func() bool {
		_, ok := s.Load("a")
		return !ok
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		return len(ev.sorted()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a"}, ev.sorted())

	// explicit deletes are not evictions
	s.Store("b", 2)
	assert.True(t, s.Delete("b"))
	assert.Equal(t, []string{"a"}, ev.sorted())
}

func TestExpiring_OverwriteBeforeSweepIsNotAnEviction(t *testing.T) {
	var ev evictions
	s := store.NewExpiring[int](10*time.Millisecond, 0, ev.record)

	s.Store("a", 1)
	assert.Eventually(t, func() bool {
		_, ok := s.Load("a")
		return !ok
	}, time.Second, 2*time.Millisecond)

	s.Store("a", 2)
	v, ok := s.Load("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, s.Len())
	assert.Empty(t, ev.sorted())
}

func TestTinyLFU_InvalidCapacity(t *testing.T) {
	_, err := store.NewTinyLFU[int](0, nil)
	assert.Error(t, err)
}

func TestTinyLFU_StaysBounded(t *testing.T) {
	var ev evictions
	s, err := store.NewTinyLFU[int](16, ev.record)
	require.NoError(t, err)
	defer s.(io.Closer).Close()

	for i := 0; i < 200; i++ {
		s.Store(fmt.Sprint(i), i)
	}
	assert.LessOrEqual(t, s.Len(), 16)
	hits := 0
	for i := 0; i < 200; i++ {
		if v, ok := s.Load(fmt.Sprint(i)); ok {
			assert.Equal(t, i, v)
			hits++
		}
	}
	assert.LessOrEqual(t, hits, 16)
}

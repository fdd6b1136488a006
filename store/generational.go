package store

import (
	"strings"
	"sync"
	"sync/atomic"
)

var (
	_ Store[any]    = (*generational[any])(nil)
	_ PrefixDeleter = (*generational[any])(nil)
)

// generational keeps two tables. Writes go to the head; once the head holds
// maxSize entries the tail is dropped and the full head becomes the new tail.
// Reads check the head first and then the tail, without locking.
type generational[V any] struct {
	mu      sync.Mutex // serializes writers and rotation
	gens    [2]atomic.Pointer[sync.Map]
	headIdx atomic.Uint32
	sizes   [2]int
	maxSize int
	onEvict EvictFunc
}

// NewGenerational returns a store bounded to 2*maxSize entries.
// It panics if maxSize is 0.
func NewGenerational[V any](maxSize uint32, onEvict EvictFunc) Store[V] {
	if maxSize == 0 {
		panic("maxSize should be greater than 0")
	}
	g := &generational[V]{
		maxSize: int(maxSize),
		onEvict: onEvict,
	}
	g.gens[0].Store(&sync.Map{})
	g.gens[1].Store(&sync.Map{})
	return g
}

func (g *generational[V]) Load(key string) (V, bool) {
	head := g.headIdx.Load()
	for _, idx := range [2]uint32{head, 1 - head} {
		if v, ok := g.gens[idx].Load().Load(key); ok {
			val, _ := v.(V) // a stored nil comes back as the zero V
			return val, true
		}
	}
	var zero V
	return zero, false
}

func (g *generational[V]) Store(key string, value V) {
	if dropped := g.store(key, value); dropped != nil {
		dropped.Range(func(k, _ any) bool {
			g.onEvict.evicted(k.(string))
			return true
		})
	}
}

// store inserts under mu and returns the dropped generation, if any.
func (g *generational[V]) store(key string, value V) *sync.Map {
	g.mu.Lock()
	defer g.mu.Unlock()

	head := g.headIdx.Load()
	if _, ok := g.gens[head].Load().Load(key); ok {
		g.gens[head].Load().Store(key, value)
		return nil
	}
	if _, ok := g.gens[1-head].Load().LoadAndDelete(key); ok {
		g.sizes[1-head]--
	}

	var dropped *sync.Map
	if g.sizes[head] >= g.maxSize {
		tail := 1 - head
		dropped = g.gens[tail].Swap(&sync.Map{})
		g.sizes[tail] = 0
		g.headIdx.Store(tail)
		head = tail
	}
	g.gens[head].Load().Store(key, value)
	g.sizes[head]++
	return dropped
}

func (g *generational[V]) Delete(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	deleted := false
	for idx := range g.gens {
		if _, ok := g.gens[idx].Load().LoadAndDelete(key); ok {
			g.sizes[idx]--
			deleted = true
		}
	}
	return deleted
}

func (g *generational[V]) DeletePrefix(prefix string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	deleted := 0
	for idx := range g.gens {
		gen := g.gens[idx].Load()
		gen.Range(func(k, _ any) bool {
			if strings.HasPrefix(k.(string), prefix) {
				gen.Delete(k)
				g.sizes[idx]--
				deleted++
			}
			return true
		})
	}
	return deleted
}

func (g *generational[V]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sizes[0] + g.sizes[1]
}

func (g *generational[V]) Purge() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gens[0].Store(&sync.Map{})
	g.gens[1].Store(&sync.Map{})
	g.sizes = [2]int{}
}

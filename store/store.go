// Package store provides the tables a memo cache keeps its results in.
//
// A Store maps canonical argument keys to computed values. Implementations differ
// only in how (and whether) they bound their size:
//
//   - NewSharded: unbounded, hash-sharded maps.
//   - NewLRU: least-recently-used eviction.
//   - NewGenerational: two generations, the older one dropped as a whole.
//   - NewTinyLFU: frequency-based admission and eviction.
//   - NewExpiring: per-entry time to live.
//   - NewIndexed: unbounded radix-tree table with cheap prefix deletes.
//
// All implementations are safe for concurrent use.
package store

// Store is a concurrent key/value table.
type Store[V any] interface {
	Load(key string) (V, bool)
	Store(key string, value V)
	// Delete removes key and reports whether it was present.
	Delete(key string) bool
	// Len returns the number of entries. Some policies report an approximation.
	Len() int
	// Purge removes every entry without reporting evictions.
	Purge()
}

// PrefixDeleter is implemented by stores that can drop every key sharing a prefix.
type PrefixDeleter interface {
	DeletePrefix(prefix string) int
}

// EvictFunc is called with the key of every entry the policy removes on its own.
// Explicit deletes and purges are not reported.
type EvictFunc func(key string)

func (f EvictFunc) evicted(key string) {
	if f != nil {
		f(key)
	}
}

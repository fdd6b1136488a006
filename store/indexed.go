package store

import (
	"fmt"
	"sync/atomic"

	memdb "github.com/hashicorp/go-memdb"
)

var (
	_ Store[any]    = (*indexed[any])(nil)
	_ PrefixDeleter = (*indexed[any])(nil)
)

const (
	entriesTable = "entries"
	idIndex      = "id"
	idPrefix     = "id_prefix"

	// rowKeyPrefix keeps row keys non-empty; memdb does not index empty strings.
	rowKeyPrefix = "k"
)

type row[V any] struct {
	Key   string
	Value V
}

type indexed[V any] struct {
	db  *memdb.MemDB
	len atomic.Int64
}

func entriesSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			entriesTable: {
				Name: entriesTable,
				Indexes: map[string]*memdb.IndexSchema{
					idIndex: {
						Name:    idIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
		},
	}
}

// NewIndexed returns an unbounded store backed by an immutable radix tree.
// Readers never block writers, and DeletePrefix walks only the matching subtree.
func NewIndexed[V any]() (Store[V], error) {
	db, err := memdb.NewMemDB(entriesSchema())
	if err != nil {
		return nil, fmt.Errorf("create indexed store: %w", err)
	}
	return &indexed[V]{db: db}, nil
}

func (s *indexed[V]) Load(key string) (V, bool) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	var zero V
	raw, err := txn.First(entriesTable, idIndex, rowKeyPrefix+key)
	if err != nil || raw == nil {
		return zero, false
	}
	return raw.(*row[V]).Value, true
}

func (s *indexed[V]) Store(key string, value V) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	old, err := txn.First(entriesTable, idIndex, rowKeyPrefix+key)
	if err != nil {
		panic(fmt.Sprintf("indexed store: lookup %q: %v", key, err))
	}
	if err := txn.Insert(entriesTable, &row[V]{Key: rowKeyPrefix + key, Value: value}); err != nil {
		panic(fmt.Sprintf("indexed store: insert %q: %v", key, err))
	}
	txn.Commit()
	if old == nil {
		s.len.Add(1)
	}
}

func (s *indexed[V]) Delete(key string) bool {
	txn := s.db.Txn(true)
	defer txn.Abort()

	old, err := txn.First(entriesTable, idIndex, rowKeyPrefix+key)
	if err != nil || old == nil {
		return false
	}
	if err := txn.Delete(entriesTable, old); err != nil {
		return false
	}
	txn.Commit()
	s.len.Add(-1)
	return true
}

func (s *indexed[V]) DeletePrefix(prefix string) int {
	txn := s.db.Txn(true)
	defer txn.Abort()

	n, err := txn.DeleteAll(entriesTable, idPrefix, rowKeyPrefix+prefix)
	if err != nil {
		return 0
	}
	txn.Commit()
	s.len.Add(int64(-n))
	return n
}

func (s *indexed[V]) Len() int {
	return int(s.len.Load())
}

func (s *indexed[V]) Purge() {
	s.DeletePrefix("")
}

package memo

import (
	"context"

	"github.com/google/uuid"
)

// Op names what happened to an entry.
type Op string

const (
	OpHit    Op = "hit"
	OpMiss   Op = "miss"   // the caller computed the value
	OpShared Op = "shared" // the caller waited for another caller's computation
	OpVerify Op = "verify"
	OpEvict  Op = "evict"
	OpForget Op = "forget"
	OpPurge  Op = "purge"
)

// Event describes one cache operation. KeyHash is the xxhash of the entry's key
// and is zero for purges.
type Event struct {
	CacheID uuid.UUID
	Name    string
	Op      Op
	KeyHash uint64
	Span    TimeSpan
	Err     error
}

// Observer receives an event after each cache operation completes. It is
// called synchronously and must not call back into the cache.
type Observer interface {
	OnMemoOp(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, ev Event)

// OnMemoOp implements Observer.
func (f ObserverFunc) OnMemoOp(ctx context.Context, ev Event) {
	if f == nil {
		return
	}
	f(ctx, ev)
}

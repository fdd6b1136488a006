// Package dispatch fans messages out to long-lived worker goroutines.
package dispatch

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Partitionable messages carry the key that selects their worker. Messages with
// equal keys are handled by the same worker, in the order they were sent.
type Partitionable interface {
	PartitionKey() string
}

// --- common interface ---

type WorkerDispatcher[T any] interface {
	GetChannelOf(msg T) chan<- T
	// Send hands msg to its worker, giving up when ctx ends.
	Send(ctx context.Context, msg T) error
}

func send[T any](ctx context.Context, ch chan<- T, msg T) error {
	select {
	case ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runWorker handles messages from ch until ctx ends. The channel is left open:
// only senders may close a channel, and senders stop on ctx as well.
func runWorker[T any](ctx context.Context, ch <-chan T, handleFn func(context.Context, T)) {
	for {
		select {
		case msg := <-ch:
			handleFn(ctx, msg)
		case <-ctx.Done():
			return
		}
	}
}

// --- single queue ---

type singleQueue[T any] struct {
	ch chan T
}

func (q singleQueue[T]) GetChannelOf(_ T) chan<- T {
	return q.ch
}

func (q singleQueue[T]) Send(ctx context.Context, msg T) error {
	return send(ctx, q.ch, msg)
}

func NewSingleQueue[T any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	ch := make(chan T, bufferSize)
	ready := make(chan struct{})

	go func() {
		close(ready)
		runWorker(ctx, ch, handleFn)
	}()

	<-ready

	return singleQueue[T]{ch: ch}
}

// --- partitioned queue ---

type partitionedQueue[T Partitionable] struct {
	chs []chan T
}

func (pq partitionedQueue[T]) GetChannelOf(msg T) chan<- T {
	return pq.chs[indexByHash(msg, len(pq.chs))]
}

func (pq partitionedQueue[T]) Send(ctx context.Context, msg T) error {
	return send(ctx, pq.GetChannelOf(msg), msg)
}

func NewPartitionedQueue[T Partitionable](
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	channels := make([]chan T, numWorkers)
	ready := sync.WaitGroup{}
	for i := 0; i < numWorkers; i++ {
		ready.Add(1)
		ch := make(chan T, bufferSize)
		go func() {
			ready.Done()
			runWorker(ctx, ch, handleFn)
		}()
		channels[i] = ch
	}
	ready.Wait()
	return partitionedQueue[T]{chs: channels}
}

func indexByHash(payload Partitionable, numChs int) int {
	switch numChs {
	case 0:
		panic("number of channels cannot be 0")
	case 1:
		return 0
	default:
		return int(xxhash.Sum64String(payload.PartitionKey()) % uint64(numChs))
	}
}

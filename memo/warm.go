package memo

import (
	"context"
	"fmt"
	"sync"

	"github.com/on-the-ground/memo_ive_go/internal/dispatch"
	"github.com/on-the-ground/memo_ive_go/keyenc"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type warmJob struct {
	ctx   context.Context
	index int
	key   keyenc.Key
	args  []any
}

// PartitionKey sends equal tuples to the same worker.
func (j warmJob) PartitionKey() string { return j.key.PartitionKey() }

// Warm computes the entries for every argument tuple on the cache's worker pool
// and returns once all of them are stored or failed. The errors of failed
// tuples are combined; multierr.Errors splits them again.
func (c *Cache[V]) Warm(ctx context.Context, tuples ...[]any) error {
	if c.closed.Load() {
		return ErrClosed
	}

	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	fail := func(index int, err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = multierr.Append(errs, fmt.Errorf("warm tuple %d: %w", index, err))
	}

	// workers outlive ctx until every queued job is accounted for
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	handle := func(_ context.Context, j warmJob) {
		defer wg.Done()
		if err := c.warmOne(j); err != nil {
			fail(j.index, err)
		}
	}
	var queue dispatch.WorkerDispatcher[warmJob]
	if c.cfg.WarmNumWorkers == 1 {
		queue = dispatch.NewSingleQueue(workerCtx, c.cfg.WarmBufferSize, handle)
	} else {
		queue = dispatch.NewPartitionedQueue(workerCtx, c.cfg.WarmNumWorkers, c.cfg.WarmBufferSize, handle)
	}

	for i, args := range tuples {
		key, err := c.keyOf(args)
		if err != nil {
			fail(i, err)
			continue
		}
		wg.Add(1)
		if err := queue.Send(ctx, warmJob{ctx: ctx, index: i, key: key, args: args}); err != nil {
			wg.Done()
			fail(i, err)
		}
	}
	wg.Wait()

	c.logger.Debug("cache warmed",
		zap.Int("tuples", len(tuples)),
		zap.Int("failed", len(multierr.Errors(errs))),
	)
	return errs
}

func (c *Cache[V]) warmOne(j warmJob) (err error) {
	if err := j.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("function panicked: %v", r)
		}
	}()
	_, err = c.call(j.ctx, j.key, j.args)
	return err
}

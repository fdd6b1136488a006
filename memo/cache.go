package memo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/on-the-ground/memo_ive_go/keyenc"
	"github.com/on-the-ground/memo_ive_go/log"
	"github.com/on-the-ground/memo_ive_go/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Func is a memoizable computation. It receives the arguments of the call
// that triggered it, exactly as given.
type Func[V any] func(ctx context.Context, args ...any) (V, error)

// Cache memoizes a Func. It is safe for concurrent use.
type Cache[V any] struct {
	id       uuid.UUID
	cfg      Config
	fn       Func[V]
	table    store.Store[V]
	flights  singleflight.Group
	logger   *zap.Logger
	observer Observer
	stats    counters
	closed   atomic.Bool
}

// New wraps fn in a cache configured by opts. fn must be pure.
func New[V any](fn Func[V], opts ...Option) (*Cache[V], error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil function", ErrInvalidConfig)
	}
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	cfg := s.cfg.withDefaults()
	if err := cfg.validate(s.store != nil); err != nil {
		return nil, err
	}

	c := &Cache[V]{
		id:       uuid.New(),
		cfg:      cfg,
		fn:       fn,
		observer: s.observer,
	}

	logger, err := newLogger(s.logger, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	c.logger = logger.With(zap.String("cache_id", c.id.String()), zap.String("name", cfg.Name))

	if s.store != nil {
		table, ok := s.store.(store.Store[V])
		if !ok {
			return nil, fmt.Errorf("%w: %T is not a store of %s", ErrInvalidConfig, s.store, reflect.TypeFor[V]())
		}
		c.table = table
	} else if c.table, err = newTable[V](cfg, c.evicted); err != nil {
		return nil, err
	}

	c.logger.Debug("memo cache created",
		zap.String("policy", string(cfg.Policy)),
		zap.Int("capacity", cfg.Capacity),
		zap.Duration("ttl", cfg.TTL),
		zap.Bool("verify", cfg.Verify),
	)
	return c, nil
}

func newLogger(logger *zap.Logger, level log.LogLevel) (*zap.Logger, error) {
	switch {
	case logger != nil:
		return logger, nil
	case level != "":
		l, err := log.New(level)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		return l, nil
	default:
		l, err := zap.NewProduction()
		if err != nil {
			return zap.NewNop(), nil
		}
		return l, nil
	}
}

func (c *Cache[V]) ID() uuid.UUID { return c.id }
func (c *Cache[V]) Name() string  { return c.cfg.Name }

// Config returns the cache's config with defaults applied.
func (c *Cache[V]) Config() Config { return c.cfg }

// Call returns the value for args, computing and storing it on a miss.
// A failing or panicking computation is passed to every caller waiting for
// it and leaves no entry behind.
func (c *Cache[V]) Call(ctx context.Context, args ...any) (V, error) {
	key, err := c.keyOf(args)
	if err != nil {
		var zero V
		return zero, err
	}
	return c.call(ctx, key, args)
}

func (c *Cache[V]) keyOf(args []any) (keyenc.Key, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	key, err := keyenc.Encode(args...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return key, nil
}

func (c *Cache[V]) call(ctx context.Context, key keyenc.Key, args []any) (V, error) {
	start := time.Now()
	if v, ok := c.table.Load(string(key)); ok {
		c.stats.hits.Add(1)
		if c.cfg.Verify {
			return c.verify(ctx, key, args, v, start)
		}
		c.notify(ctx, OpHit, key, start, nil)
		return v, nil
	}
	c.stats.misses.Add(1)
	return c.miss(ctx, key, args, start)
}

// flightResult is what a single flight hands to every caller waiting on it.
type flightResult[V any] struct {
	value V
	// stored is set when the value was found in the store instead of computed.
	stored bool
	// abandoned is set when the flight failed after its leader's context ended.
	abandoned bool
}

// panicked carries a panic out of a flight; singleflight.DoChan cannot.
type panicked struct {
	value any
	stack []byte
}

func (p *panicked) Error() string {
	return fmt.Sprintf("memo: function panicked: %v", p.value)
}

// miss joins or leads the flight for key. A waiter whose flight failed only
// because the leader went away joins the next flight while its own ctx lives.
func (c *Cache[V]) miss(ctx context.Context, key keyenc.Key, args []any, start time.Time) (V, error) {
	for {
		v, retry, err := c.flight(ctx, key, args, start)
		if !retry {
			return v, err
		}
		c.logger.Debug("flight abandoned by its leader, retrying", zap.Uint64("key_hash", key.Hash()))
	}
}

func (c *Cache[V]) flight(ctx context.Context, key keyenc.Key, args []any, start time.Time) (_ V, retry bool, _ error) {
	var (
		zero V
		led  atomic.Bool
	)
	ch := c.flights.DoChan(string(key), func() (res any, err error) {
		led.Store(true)
		defer func() {
			if r := recover(); r != nil {
				c.stats.failures.Add(1)
				err = &panicked{value: r, stack: debug.Stack()}
			}
		}()
		// the entry may have been stored by a flight that ended after our lookup
		if v, ok := c.table.Load(string(key)); ok {
			return flightResult[V]{value: v, stored: true}, nil
		}
		v, err := c.compute(ctx, key, args)
		return flightResult[V]{value: v, abandoned: err != nil && ctx.Err() != nil}, err
	})

	select {
	case res := <-ch:
		var fr flightResult[V]
		if res.Val != nil {
			fr = res.Val.(flightResult[V])
		}
		if fr.abandoned && !led.Load() {
			if err := ctx.Err(); err != nil {
				c.notify(ctx, OpShared, key, start, err)
				return zero, false, err
			}
			return zero, true, nil
		}

		op := OpMiss
		if !led.Load() {
			op = OpShared
			c.stats.shared.Add(1)
		} else if fr.stored {
			op = OpHit
		}

		var p *panicked
		if errors.As(res.Err, &p) {
			if led.Load() {
				c.logger.Error("function panicked",
					zap.Uint64("key_hash", key.Hash()),
					zap.Any("panic", p.value),
					zap.ByteString("stack", p.stack),
				)
			}
			c.notify(ctx, op, key, start, res.Err)
			panic(p.value)
		}
		c.notify(ctx, op, key, start, res.Err)
		if res.Err != nil {
			return zero, false, res.Err
		}
		return fr.value, false, nil

	case <-ctx.Done():
		op := OpShared
		if led.Load() {
			op = OpMiss
		}
		c.notify(ctx, op, key, start, ctx.Err())
		return zero, false, ctx.Err()
	}
}

// compute runs fn and stores its result if it succeeded.
func (c *Cache[V]) compute(ctx context.Context, key keyenc.Key, args []any) (V, error) {
	c.stats.computations.Add(1)
	c.logger.Debug("cache miss", zap.Uint64("key_hash", key.Hash()))

	v, err := c.fn(ctx, args...)
	if err != nil {
		c.stats.failures.Add(1)
		c.logger.Debug("computation failed", zap.Uint64("key_hash", key.Hash()), zap.Error(err))
		var zero V
		return zero, err
	}
	c.table.Store(string(key), v)
	return v, nil
}

// verify recomputes a cached entry and compares the two results.
func (c *Cache[V]) verify(ctx context.Context, key keyenc.Key, args []any, cached V, start time.Time) (V, error) {
	var zero V
	c.stats.verifications.Add(1)

	fresh, err := c.fn(ctx, args...)
	if err == nil && !Equals(cached, fresh) {
		err = fmt.Errorf("%w: cached %v, recomputed %v", ErrImpure, cached, fresh)
	} else if err != nil {
		err = fmt.Errorf("%w: recomputing a cached entry failed: %w", ErrImpure, err)
	}
	c.notify(ctx, OpVerify, key, start, err)
	if err != nil {
		c.logger.Error("purity violation", zap.Uint64("key_hash", key.Hash()), zap.Error(err))
		return zero, err
	}
	return cached, nil
}

// Peek returns the stored value for args without computing it.
func (c *Cache[V]) Peek(args ...any) (V, bool, error) {
	var zero V
	key, err := c.keyOf(args)
	if err != nil {
		return zero, false, err
	}
	v, ok := c.table.Load(string(key))
	return v, ok, nil
}

// Forget removes the entry for args and reports whether there was one.
func (c *Cache[V]) Forget(ctx context.Context, args ...any) (bool, error) {
	key, err := c.keyOf(args)
	if err != nil {
		return false, err
	}
	start := time.Now()
	deleted := c.table.Delete(string(key))
	if deleted {
		c.stats.invalidations.Add(1)
		c.notify(ctx, OpForget, key, start, nil)
	}
	return deleted, nil
}

// ForgetPrefix removes every entry whose leading arguments equal args and
// returns how many it removed. Without args it removes every entry.
// It fails with ErrNotSupported if the store cannot delete by prefix.
func (c *Cache[V]) ForgetPrefix(ctx context.Context, args ...any) (int, error) {
	pd, ok := c.table.(store.PrefixDeleter)
	if !ok {
		return 0, fmt.Errorf("%w: prefix deletes on %T", ErrNotSupported, c.table)
	}
	prefix, err := c.keyOf(args)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	n := pd.DeletePrefix(string(prefix))
	c.stats.invalidations.Add(uint64(n))
	c.notify(ctx, OpForget, prefix, start, nil)
	c.logger.Debug("entries forgotten", zap.Uint64("prefix_hash", prefix.Hash()), zap.Int("count", n))
	return n, nil
}

// Purge removes every entry.
func (c *Cache[V]) Purge(ctx context.Context) {
	start := time.Now()
	c.table.Purge()
	c.emit(ctx, Event{Op: OpPurge, Span: since(start)})
}

// Len returns the number of stored entries; see store.Store.Len.
func (c *Cache[V]) Len() int {
	return c.table.Len()
}

func (c *Cache[V]) Stats() Stats {
	return c.stats.snapshot()
}

// Close drops every entry and releases the store. Calls made after Close fail
// with ErrClosed. Closing twice is a no-op.
func (c *Cache[V]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.table.Purge()
	defer func() {
		c.logger.Debug("memo cache closed", zap.Any("stats", c.Stats()))
		log.Sync(c.logger)
	}()
	if closer, ok := c.table.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}

func (c *Cache[V]) evicted(key string) {
	c.stats.evictions.Add(1)
	k := keyenc.Key(key)
	c.logger.Debug("entry evicted", zap.Uint64("key_hash", k.Hash()))
	c.notify(context.Background(), OpEvict, k, time.Now(), nil)
}

func (c *Cache[V]) notify(ctx context.Context, op Op, key keyenc.Key, start time.Time, err error) {
	if c.observer == nil {
		return
	}
	c.emit(ctx, Event{
		Op:      op,
		KeyHash: key.Hash(),
		Span:    since(start),
		Err:     err,
	})
}

func (c *Cache[V]) emit(ctx context.Context, ev Event) {
	if c.observer == nil {
		return
	}
	ev.CacheID = c.id
	ev.Name = c.cfg.Name
	c.observer.OnMemoOp(ctx, ev)
}

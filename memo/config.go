package memo

import (
	"fmt"
	"math"
	"time"

	"github.com/on-the-ground/memo_ive_go/log"
	"github.com/on-the-ground/memo_ive_go/store"
	"go.uber.org/zap"
)

// Policy selects the store a cache keeps its entries in.
type Policy string

const (
	PolicyUnbounded    Policy = "unbounded"
	PolicyLRU          Policy = "lru"
	PolicyGenerational Policy = "generational"
	PolicyTinyLFU      Policy = "tinylfu"
	PolicyExpiring     Policy = "expiring"
	PolicyIndexed      Policy = "indexed"
)

const (
	defaultShards         = 16
	defaultWarmNumWorkers = 4
	defaultWarmBufferSize = 16
)

// Config describes a cache. The zero value is an unbounded cache.
type Config struct {
	Name string

	// Policy defaults to lru when only Capacity is set, to expiring when only
	// TTL is set and to unbounded otherwise.
	Policy Policy
	// Capacity bounds the number of entries of the lru, generational and
	// tinylfu policies.
	Capacity int
	// TTL is the lifetime of an entry under the expiring policy. Expired entries
	// are swept every CleanupInterval, which defaults to TTL.
	TTL             time.Duration
	CleanupInterval time.Duration
	// Shards splits the unbounded store; default 16.
	Shards int

	Verify bool

	WarmNumWorkers int
	WarmBufferSize int

	// LogLevel builds a production logger at this level when no logger is given.
	LogLevel log.LogLevel
}

func (c Config) withDefaults() Config {
	if c.Policy == "" {
		switch {
		case c.TTL > 0 && c.Capacity == 0:
			c.Policy = PolicyExpiring
		case c.Capacity > 0 && c.TTL == 0:
			c.Policy = PolicyLRU
		default:
			c.Policy = PolicyUnbounded
		}
	}
	if c.Shards <= 0 {
		c.Shards = defaultShards
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = c.TTL
	}
	if c.WarmNumWorkers <= 0 {
		c.WarmNumWorkers = defaultWarmNumWorkers
	}
	if c.WarmBufferSize <= 0 {
		c.WarmBufferSize = defaultWarmBufferSize
	}
	return c
}

// validate checks a defaulted config. With a custom store the policy fields
// are ignored.
func (c Config) validate(customStore bool) error {
	if c.Capacity < 0 {
		return fmt.Errorf("%w: negative capacity %d", ErrInvalidConfig, c.Capacity)
	}
	if c.TTL < 0 {
		return fmt.Errorf("%w: negative ttl %s", ErrInvalidConfig, c.TTL)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if customStore {
		return nil
	}

	switch c.Policy {
	case PolicyLRU, PolicyGenerational, PolicyTinyLFU:
		if c.Capacity == 0 {
			return fmt.Errorf("%w: policy %s needs a capacity", ErrInvalidConfig, c.Policy)
		}
		if c.TTL > 0 {
			return fmt.Errorf("%w: policy %s does not expire entries", ErrInvalidConfig, c.Policy)
		}
		if c.Policy == PolicyGenerational && c.Capacity < 2 {
			return fmt.Errorf("%w: policy %s needs a capacity of at least 2", ErrInvalidConfig, c.Policy)
		}
		if c.Capacity > math.MaxUint32 {
			return fmt.Errorf("%w: capacity %d is too large", ErrInvalidConfig, c.Capacity)
		}
	case PolicyExpiring:
		if c.TTL == 0 {
			return fmt.Errorf("%w: policy %s needs a ttl", ErrInvalidConfig, c.Policy)
		}
		if c.Capacity > 0 {
			return fmt.Errorf("%w: policy %s is not bounded by capacity", ErrInvalidConfig, c.Policy)
		}
	case PolicyUnbounded, PolicyIndexed:
		if c.Capacity > 0 || c.TTL > 0 {
			return fmt.Errorf("%w: policy %s takes neither capacity nor ttl", ErrInvalidConfig, c.Policy)
		}
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, c.Policy)
	}
	return nil
}

// newTable builds the store selected by a validated config.
func newTable[V any](c Config, onEvict store.EvictFunc) (store.Store[V], error) {
	switch c.Policy {
	case PolicyUnbounded:
		return store.NewSharded[V](c.Shards), nil
	case PolicyLRU:
		return store.NewLRU[V](c.Capacity, onEvict)
	case PolicyGenerational:
		// both generations together never exceed the capacity
		return store.NewGenerational[V](uint32(c.Capacity/2), onEvict), nil
	case PolicyTinyLFU:
		return store.NewTinyLFU[V](int64(c.Capacity), onEvict)
	case PolicyExpiring:
		return store.NewExpiring[V](c.TTL, c.CleanupInterval, onEvict), nil
	case PolicyIndexed:
		return store.NewIndexed[V]()
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, c.Policy)
	}
}

type settings struct {
	cfg      Config
	logger   *zap.Logger
	observer Observer
	store    any
}

// Option configures a cache.
type Option func(*settings)

// WithConfig replaces the whole config, e.g. one read by LoadConfig.
// Options after it still apply.
func WithConfig(cfg Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

func WithName(name string) Option {
	return func(s *settings) { s.cfg.Name = name }
}

func WithPolicy(p Policy) Option {
	return func(s *settings) { s.cfg.Policy = p }
}

func WithCapacity(n int) Option {
	return func(s *settings) { s.cfg.Capacity = n }
}

// WithTTL makes entries expire ttl after they were computed.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) { s.cfg.TTL = ttl }
}

func WithCleanupInterval(d time.Duration) Option {
	return func(s *settings) { s.cfg.CleanupInterval = d }
}

func WithShards(n int) Option {
	return func(s *settings) { s.cfg.Shards = n }
}

// WithVerify turns on verify mode: every hit calls the function again and
// fails with ErrImpure when the fresh result differs from the cached one.
func WithVerify(on bool) Option {
	return func(s *settings) { s.cfg.Verify = on }
}

// WithWarmWorkers sets the worker pool used by Warm.
func WithWarmWorkers(numWorkers, bufferSize int) Option {
	return func(s *settings) {
		s.cfg.WarmNumWorkers = numWorkers
		s.cfg.WarmBufferSize = bufferSize
	}
}

func WithLogLevel(level log.LogLevel) Option {
	return func(s *settings) { s.cfg.LogLevel = level }
}

// WithLogger sets the logger; it takes precedence over the configured log level.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(s *settings) { s.observer = o }
}

// WithStore makes the cache keep its entries in st instead of a store built
// from the policy. Evictions made by st are not counted.
// New fails with ErrInvalidConfig if V does not match the cache's value type.
func WithStore[V any](st store.Store[V]) Option {
	return func(s *settings) { s.store = st }
}

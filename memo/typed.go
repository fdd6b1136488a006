package memo

import (
	"context"

	"github.com/on-the-ground/memo_ive_go/shared/helper"
)

// Cache1 memoizes a function of one argument.
type Cache1[I1, V any] struct {
	*Cache[V]
}

func New1[I1, V any](fn func(context.Context, I1) (V, error), opts ...Option) (*Cache1[I1, V], error) {
	c, err := New[V](func(ctx context.Context, args ...any) (V, error) {
		return fn(ctx, helper.As[I1](args[0]))
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Cache1[I1, V]{Cache: c}, nil
}

func (c *Cache1[I1, V]) Call(ctx context.Context, i1 I1) (V, error) {
	return c.Cache.Call(ctx, i1)
}

// Cache2 memoizes a function of two arguments.
type Cache2[I1, I2, V any] struct {
	*Cache[V]
}

func New2[I1, I2, V any](fn func(context.Context, I1, I2) (V, error), opts ...Option) (*Cache2[I1, I2, V], error) {
	c, err := New[V](func(ctx context.Context, args ...any) (V, error) {
		return fn(ctx, helper.As[I1](args[0]), helper.As[I2](args[1]))
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Cache2[I1, I2, V]{Cache: c}, nil
}

func (c *Cache2[I1, I2, V]) Call(ctx context.Context, i1 I1, i2 I2) (V, error) {
	return c.Cache.Call(ctx, i1, i2)
}

// Cache3 memoizes a function of three arguments.
type Cache3[I1, I2, I3, V any] struct {
	*Cache[V]
}

func New3[I1, I2, I3, V any](fn func(context.Context, I1, I2, I3) (V, error), opts ...Option) (*Cache3[I1, I2, I3, V], error) {
	c, err := New[V](func(ctx context.Context, args ...any) (V, error) {
		return fn(ctx, helper.As[I1](args[0]), helper.As[I2](args[1]), helper.As[I3](args[2]))
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Cache3[I1, I2, I3, V]{Cache: c}, nil
}

func (c *Cache3[I1, I2, I3, V]) Call(ctx context.Context, i1 I1, i2 I2, i3 I3) (V, error) {
	return c.Cache.Call(ctx, i1, i2, i3)
}

// Cache4 memoizes a function of four arguments.
type Cache4[I1, I2, I3, I4, V any] struct {
	*Cache[V]
}

func New4[I1, I2, I3, I4, V any](fn func(context.Context, I1, I2, I3, I4) (V, error), opts ...Option) (*Cache4[I1, I2, I3, I4, V], error) {
	c, err := New[V](func(ctx context.Context, args ...any) (V, error) {
		return fn(ctx, helper.As[I1](args[0]), helper.As[I2](args[1]), helper.As[I3](args[2]), helper.As[I4](args[3]))
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Cache4[I1, I2, I3, I4, V]{Cache: c}, nil
}

func (c *Cache4[I1, I2, I3, I4, V]) Call(ctx context.Context, i1 I1, i2 I2, i3 I3, i4 I4) (V, error) {
	return c.Cache.Call(ctx, i1, i2, i3, i4)
}

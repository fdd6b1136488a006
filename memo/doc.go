// Package memo memoizes pure functions.
//
// A Cache wraps a function, derives a canonical key from every argument tuple
// it is called with (see package keyenc) and serves repeated calls with equal
// arguments from a store instead of calling the function again:
//
//	fib, _ := memo.New1(func(ctx context.Context, n int) (int, error) { ... })
//	v, err := fib.Call(ctx, 20)
//
// Guarantees:
//   - A key maps to a value only after the function returned it without error.
//     Failures and panics are passed to the caller and never stored.
//   - Concurrent first calls with equal arguments share one invocation.
//   - Values of different types never share a key: 2, "2" and int64(2) are
//     three different argument tuples.
//
// The store is unbounded by default. WithCapacity, WithTTL and WithPolicy select
// a bounded or expiring one (see package store). Entries leave the store only
// through eviction or Forget, ForgetPrefix, Purge and Close; once an entry is
// gone the next call computes it again.
//
// The wrapped function must be pure: its result may depend on its arguments
// only. WithVerify recomputes on every hit and reports ErrImpure when the fresh
// result differs, which is meant for tests and debugging.
package memo

// Package pure provides typed memoization for pure functions that cannot fail.
//
// Tableize is not just a utility to add memoization.
// Tableize is a tool that *forces the developer to ask*:
//
//	→ "Is this function really pure?"
//	→ "Can this computation be treated as a lazy table?"
//
// The Tableize family memoizes pure function calls by their input values, on
// top of a memo.Cache with a generational table:
//
//   - TableizeI1O1 to TableizeI4O2: typed memoizers for common arities.
//   - Two generations of maxTableSize entries; when the newer one is full the
//     older one is dropped as a whole.
//   - Arguments are keyed by value and type (see package keyenc), so slices,
//     maps and structs can be arguments too.
//
// Tableized functions panic on arguments that cannot be keyed, such as
// functions or channels without a String method.
//
// See tableize_test.go and tableize_bench_test.go for usage and benchmarks.
//
// WARNING: Do not use Tableize on impure functions (e.g., those depending on time, I/O, etc).
// For functions that can fail, or need invalidation and bounds, use package memo.
package pure

package memo

import "reflect"

// Equatable values decide for themselves whether a recomputed result matches
// the cached one in verify mode.
type Equatable interface {
	Equals(i any) bool
}

// Equals reports whether a and b are the same result. NaN never equals itself.
func Equals(a, b any) bool {
	if e, ok := a.(Equatable); ok {
		return e.Equals(b)
	}
	return reflect.DeepEqual(a, b)
}

package helper

import (
	"fmt"
)

// GetTypedValueOf safely asserts the result of a getter function to the expected type T.
// Returns an error if the getter fails or the type assertion fails.
func GetTypedValueOf[T any](getFn func() (any, error)) (T, error) {
	var zero T

	res, err := getFn()
	if err != nil {
		return zero, fmt.Errorf("failed to get value: %w", err)
	}

	val, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected type: %T", res)
	}

	return val, nil
}

// GetTypedValueOf2 asserts the result of a comma-ok getter to the expected type T.
// ok is false when the getter misses or holds a value of another type.
// A present nil is returned as the zero T.
func GetTypedValueOf2[T any](getFn func() (any, bool)) (res T, ok bool) {
	var raw any
	if raw, ok = getFn(); ok && raw != nil {
		res, ok = raw.(T)
	}
	return
}

// As asserts a to T without failing. A nil a, as passed for a nil interface
// value, comes back as the zero T.
func As[T any](a any) T {
	v, _ := a.(T)
	return v
}

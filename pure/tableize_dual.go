package pure

import "github.com/on-the-ground/memo_ive_go/shared/helper"

func TableizeI1O2[I1 Encodable, O1, O2 any](
	pureFn func(I1) (O1, O2),
	maxTableSize uint32,
) func(I1) (O1, O2) {
	tableized := tableizeDualOutput(
		func(args ...Encodable) (O1, O2) {
			return pureFn(helper.As[I1](args[0]))
		},
		maxTableSize,
	)
	return func(i1 I1) (O1, O2) {
		return tableized(i1)
	}
}

func TableizeI2O2[I1, I2 Encodable, O1, O2 any](
	pureFn func(I1, I2) (O1, O2),
	maxTableSize uint32,
) func(I1, I2) (O1, O2) {
	tableized := tableizeDualOutput(
		func(args ...Encodable) (O1, O2) {
			return pureFn(helper.As[I1](args[0]), helper.As[I2](args[1]))
		},
		maxTableSize,
	)
	return func(i1 I1, i2 I2) (O1, O2) {
		return tableized(i1, i2)
	}
}

func TableizeI3O2[I1, I2, I3 Encodable, O1, O2 any](
	pureFn func(I1, I2, I3) (O1, O2),
	maxTableSize uint32,
) func(I1, I2, I3) (O1, O2) {
	tableized := tableizeDualOutput(
		func(args ...Encodable) (O1, O2) {
			return pureFn(helper.As[I1](args[0]), helper.As[I2](args[1]), helper.As[I3](args[2]))
		},
		maxTableSize,
	)
	return func(i1 I1, i2 I2, i3 I3) (O1, O2) {
		return tableized(i1, i2, i3)
	}
}

func TableizeI4O2[I1, I2, I3, I4 Encodable, O1, O2 any](
	pureFn func(I1, I2, I3, I4) (O1, O2),
	maxTableSize uint32,
) func(I1, I2, I3, I4) (O1, O2) {
	tableized := tableizeDualOutput(
		func(args ...Encodable) (O1, O2) {
			return pureFn(helper.As[I1](args[0]), helper.As[I2](args[1]), helper.As[I3](args[2]), helper.As[I4](args[3]))
		},
		maxTableSize,
	)
	return func(i1 I1, i2 I2, i3 I3, i4 I4) (O1, O2) {
		return tableized(i1, i2, i3, i4)
	}
}

type result[O1 any, O2 any] struct {
	O1 O1
	O2 O2
}

func tableizeDualOutput[O1, O2 any](
	pureFn func(...Encodable) (O1, O2),
	maxTableSize uint32,
) func(...Encodable) (O1, O2) {
	tableized := tableize(
		func(args ...Encodable) result[O1, O2] {
			v1, v2 := pureFn(args...)
			return result[O1, O2]{O1: v1, O2: v2}
		},
		maxTableSize,
	)
	return func(args ...Encodable) (O1, O2) {
		res := tableized(args...)
		return res.O1, res.O2
	}
}

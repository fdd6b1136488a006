package pure

import (
	"context"

	"github.com/on-the-ground/memo_ive_go/memo"
	"github.com/on-the-ground/memo_ive_go/shared/helper"
	"github.com/on-the-ground/memo_ive_go/store"
	"go.uber.org/zap"
)

// Encodable is any argument package keyenc can turn into a key: values built
// from scalars, strings, slices, arrays, maps, structs and pointers, or any
// fmt.Stringer.
type Encodable = any

func TableizeI1O1[I1 Encodable, O1 any](
	pureFn func(I1) O1,
	maxTableSize uint32,
) func(I1) O1 {
	tableized := tableize(
		func(args ...Encodable) O1 {
			return pureFn(helper.As[I1](args[0]))
		},
		maxTableSize,
	)
	return func(i1 I1) O1 {
		return tableized(i1)
	}
}

func TableizeI2O1[I1, I2 Encodable, O1 any](
	pureFn func(I1, I2) O1,
	maxTableSize uint32,
) func(I1, I2) O1 {
	tableized := tableize(
		func(args ...Encodable) O1 {
			return pureFn(helper.As[I1](args[0]), helper.As[I2](args[1]))
		},
		maxTableSize,
	)
	return func(i1 I1, i2 I2) O1 {
		return tableized(i1, i2)
	}
}

func TableizeI3O1[I1, I2, I3 Encodable, O1 any](
	pureFn func(I1, I2, I3) O1,
	maxTableSize uint32,
) func(I1, I2, I3) O1 {
	tableized := tableize(
		func(args ...Encodable) O1 {
			return pureFn(helper.As[I1](args[0]), helper.As[I2](args[1]), helper.As[I3](args[2]))
		},
		maxTableSize,
	)
	return func(i1 I1, i2 I2, i3 I3) O1 {
		return tableized(i1, i2, i3)
	}
}

func TableizeI4O1[I1, I2, I3, I4 Encodable, O1 any](
	pureFn func(I1, I2, I3, I4) O1,
	maxTableSize uint32,
) func(I1, I2, I3, I4) O1 {
	tableized := tableize(
		func(args ...Encodable) O1 {
			return pureFn(helper.As[I1](args[0]), helper.As[I2](args[1]), helper.As[I3](args[2]), helper.As[I4](args[3]))
		},
		maxTableSize,
	)
	return func(i1 I1, i2 I2, i3 I3, i4 I4) O1 {
		return tableized(i1, i2, i3, i4)
	}
}

// tableize memoizes pureFn in a generational table of two generations of
// maxTableSize entries. The returned function panics on arguments that cannot
// be encoded.
func tableize[O any](
	pureFn func(...Encodable) O,
	maxTableSize uint32,
) func(...Encodable) O {
	table, err := memo.New[O](
		func(_ context.Context, args ...any) (O, error) {
			return pureFn(args...), nil
		},
		memo.WithStore(store.NewGenerational[O](maxTableSize, nil)),
		memo.WithLogger(zap.NewNop()),
	)
	if err != nil {
		panic(err)
	}
	return func(args ...Encodable) O {
		v, err := table.Call(context.Background(), args...)
		if err != nil {
			panic(err)
		}
		return v
	}
}

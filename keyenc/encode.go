// Package keyenc derives canonical keys from argument tuples.
//
// Every argument is written as its type tag followed by a kind-specific payload.
// Each encoded argument is self-delimiting, so the key of a tuple is the plain
// concatenation of its arguments: two tuples share a key only when every position
// holds an equal value of the same type, and the key of a leading sub-tuple is a
// byte prefix of the key of the full tuple.
package keyenc

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// maxDepth bounds how deep nested containers are followed.
const maxDepth = 64

// ErrUnencodable is returned for arguments that have no canonical encoding.
var ErrUnencodable = errors.New("argument cannot be encoded as a key")

var (
	binaryMarshalerType = reflect.TypeFor[encoding.BinaryMarshaler]()
	stringerType        = reflect.TypeFor[fmt.Stringer]()
)

// Key is the canonical encoding of an argument tuple.
type Key string

// Hash returns the xxhash of the key. It is used for sharding and for logging,
// never for equality.
func (k Key) Hash() uint64 {
	return xxhash.Sum64String(string(k))
}

// HasPrefix reports whether k starts with the encoding of a leading sub-tuple.
func (k Key) HasPrefix(prefix Key) bool {
	return strings.HasPrefix(string(k), string(prefix))
}

// PartitionKey routes work for this key to a fixed worker.
func (k Key) PartitionKey() string {
	return string(k)
}

// Encode returns the key of args.
func Encode(args ...any) (Key, error) {
	e := encoder{buf: &bytes.Buffer{}}
	for i, arg := range args {
		if err := e.encodeArg(arg); err != nil {
			return "", fmt.Errorf("%w: argument %d (%T): %w", ErrUnencodable, i, arg, err)
		}
	}
	return Key(e.buf.String()), nil
}

// MustEncode is the panic-on-failure variant of Encode.
func MustEncode(args ...any) Key {
	key, err := Encode(args...)
	if err != nil {
		panic(err)
	}
	return key
}

type encoder struct {
	buf *bytes.Buffer
	// pointers on the path currently being encoded
	visiting map[uintptr]struct{}
}

func (e *encoder) encodeArg(arg any) error {
	if arg == nil {
		e.buf.WriteByte('~')
		return nil
	}
	return e.encode(reflect.ValueOf(arg), 0)
}

// encode writes v and falls back to fmt.Stringer when v has no structural encoding.
func (e *encoder) encode(v reflect.Value, depth int) error {
	mark := e.buf.Len()
	err := e.encodeValue(v, depth)
	if err == nil {
		return nil
	}
	if s, ok := asStringer(v); ok {
		e.buf.Truncate(mark)
		e.writeTag(v.Type())
		e.buf.WriteByte('$')
		e.writeString(s.String())
		return nil
	}
	return err
}

func (e *encoder) encodeValue(v reflect.Value, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("nesting deeper than %d", maxDepth)
	}
	t := v.Type()
	e.writeTag(t)

	if isNil(v) {
		e.buf.WriteByte('~')
		return nil
	}

	if t.Implements(binaryMarshalerType) && v.CanInterface() {
		raw, err := v.Interface().(encoding.BinaryMarshaler).MarshalBinary()
		if err != nil {
			return fmt.Errorf("marshal %s: %w", t, err)
		}
		e.buf.WriteByte('%')
		e.writeBytes(raw)
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			e.buf.WriteByte('t')
		} else {
			e.buf.WriteByte('f')
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.buf.WriteString(strconv.FormatInt(v.Int(), 10))
		e.buf.WriteByte(';')

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.buf.WriteString(strconv.FormatUint(v.Uint(), 10))
		e.buf.WriteByte(';')

	case reflect.Float32:
		e.writeBits(uint64(math.Float32bits(float32(v.Float()))))

	case reflect.Float64:
		e.writeBits(math.Float64bits(v.Float()))

	case reflect.Complex64:
		c := v.Complex()
		e.writeBits(uint64(math.Float32bits(float32(real(c)))))
		e.writeBits(uint64(math.Float32bits(float32(imag(c)))))

	case reflect.Complex128:
		c := v.Complex()
		e.writeBits(math.Float64bits(real(c)))
		e.writeBits(math.Float64bits(imag(c)))

	case reflect.String:
		e.writeString(v.String())

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			e.writeBytes(v.Bytes())
			return nil
		}
		return e.encodeList(v, depth)

	case reflect.Array:
		return e.encodeList(v, depth)

	case reflect.Map:
		return e.encodeMap(v, depth)

	case reflect.Struct:
		e.buf.WriteByte('{')
		for i := 0; i < v.NumField(); i++ {
			if err := e.encode(v.Field(i), depth+1); err != nil {
				return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
			}
		}
		e.buf.WriteByte('}')

	case reflect.Pointer:
		ptr := v.Pointer()
		if _, seen := e.visiting[ptr]; seen {
			return fmt.Errorf("cyclic reference through %s", t)
		}
		if e.visiting == nil {
			e.visiting = make(map[uintptr]struct{})
		}
		e.visiting[ptr] = struct{}{}
		defer delete(e.visiting, ptr)
		e.buf.WriteByte('*')
		return e.encode(v.Elem(), depth+1)

	case reflect.Interface:
		return e.encode(v.Elem(), depth+1)

	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}

func (e *encoder) encodeList(v reflect.Value, depth int) error {
	e.buf.WriteString(strconv.Itoa(v.Len()))
	e.buf.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if err := e.encode(v.Index(i), depth+1); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	e.buf.WriteByte(']')
	return nil
}

// encodeMap writes the entries ordered by their encoded keys, so insertion
// order never leaks into the key.
func (e *encoder) encodeMap(v reflect.Value, depth int) error {
	type entry struct{ k, v string }
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k, err := e.detached(func() error { return e.encode(iter.Key(), depth+1) })
		if err != nil {
			return fmt.Errorf("map key: %w", err)
		}
		val, err := e.detached(func() error { return e.encode(iter.Value(), depth+1) })
		if err != nil {
			return fmt.Errorf("map value: %w", err)
		}
		entries = append(entries, entry{k: k, v: val})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].k < entries[j].k })

	e.buf.WriteString(strconv.Itoa(len(entries)))
	e.buf.WriteByte('{')
	for _, en := range entries {
		e.buf.WriteString(en.k)
		e.buf.WriteString(en.v)
	}
	e.buf.WriteByte('}')
	return nil
}

// detached runs fn against a fresh buffer and returns what it wrote.
func (e *encoder) detached(fn func() error) (string, error) {
	saved := e.buf
	e.buf = &bytes.Buffer{}
	err := fn()
	out := e.buf.String()
	e.buf = saved
	return out, err
}

func (e *encoder) writeTag(t reflect.Type) {
	tag := typeTag(t)
	e.buf.WriteString(strconv.Itoa(len(tag)))
	e.buf.WriteByte('#')
	e.buf.WriteString(tag)
}

func (e *encoder) writeString(s string) {
	e.buf.WriteString(strconv.Itoa(len(s)))
	e.buf.WriteByte(':')
	e.buf.WriteString(s)
}

func (e *encoder) writeBytes(b []byte) {
	e.buf.WriteString(strconv.Itoa(len(b)))
	e.buf.WriteByte(':')
	e.buf.Write(b)
}

func (e *encoder) writeBits(bits uint64) {
	e.buf.WriteString(strconv.FormatUint(bits, 16))
	e.buf.WriteByte(';')
}

// typeIDs numbers every type seen by this process. Two distinct types can share
// a name (types declared inside functions), never an id.
var (
	typeIDs    sync.Map // reflect.Type -> string
	nextTypeID atomic.Uint64
)

func typeTag(t reflect.Type) string {
	if id, ok := typeIDs.Load(t); ok {
		return id.(string)
	}
	name := t.String()
	if t.Name() != "" && t.PkgPath() != "" {
		name = t.PkgPath() + "." + t.Name()
	}
	id, _ := typeIDs.LoadOrStore(t, name+"@"+strconv.FormatUint(nextTypeID.Add(1), 10))
	return id.(string)
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}

func asStringer(v reflect.Value) (fmt.Stringer, bool) {
	if !v.IsValid() || !v.CanInterface() || isNil(v) || !v.Type().Implements(stringerType) {
		return nil, false
	}
	s, ok := v.Interface().(fmt.Stringer)
	return s, ok
}

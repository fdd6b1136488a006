package memo

import "errors"

var (
	// ErrEncoding is returned, before the function runs, when an argument
	// cannot be turned into a key. It always wraps keyenc.ErrUnencodable.
	ErrEncoding = errors.New("memo: cannot encode arguments")

	ErrClosed        = errors.New("memo: cache is closed")
	ErrInvalidConfig = errors.New("memo: invalid config")
	ErrNotSupported  = errors.New("memo: not supported by the store")

	// ErrImpure is returned in verify mode when recomputing a cached entry
	// gives a different result.
	ErrImpure = errors.New("memo: function is not pure")
)

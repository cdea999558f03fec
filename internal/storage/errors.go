package storage

import "errors"

var (
	// ErrNotFound is returned by a store when nothing is stored under a key.
	ErrNotFound = errors.New("key not found")

	// ErrUnavailable is returned by a store that cannot serve requests in the
	// current runtime, e.g. a cloud slot without a database connection.
	ErrUnavailable = errors.New("store unavailable")
)

package store

import "errors"

var (
	// ErrStoreUnavailable means a table's backing data is missing, unreadable
	// or does not match its schema.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrRecordNotFound means no row carries the requested identifier.
	ErrRecordNotFound = errors.New("record not found")

	// ErrCodecFailure means a nested field could not be encoded or decoded.
	ErrCodecFailure = errors.New("codec failure")

	ErrUnknownKind = errors.New("unknown record kind")
)

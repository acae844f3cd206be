package ports

import "errors"

var (
	// ErrSessionNotFound is returned by SessionStore.Get when no record exists.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCorrupt is returned by SessionStore.Get when a record cannot be decoded.
	ErrSessionCorrupt = errors.New("session record corrupt")
)

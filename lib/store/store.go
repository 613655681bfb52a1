// Package store defines the interface for database implementations of the explorer's lookup history.
package store

import (
	"errors"
)

// DB defines required methods for the lookup history. Lookups are kept per network, one entry per address, and are
// listed most recent first.
type DB interface {
	AddLookup(net string, l Lookup) error
	GetLookups(net string, limit int) ([]Lookup, error)
}

// Errors returned
var (
	ErrDataNotFound = errors.New("data was not found in store")
	ErrUnknownDB    = errors.New("unknown database type")
)

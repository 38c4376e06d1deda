// Package storage holds the in-process Store backends (memory and journaled
// file) and the sentinel errors shared by every backend.
package storage

import "errors"

var (
	// ErrNotFound is returned when no row holds the requested code.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an insert violates code uniqueness.
	ErrConflict = errors.New("data conflict")

	// ErrInactive is returned by RecordClick when the row stopped being
	// resolvable before the click could be applied.
	ErrInactive = errors.New("url is not resolvable")
)

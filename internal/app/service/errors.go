package service

import (
	"errors"
	"fmt"

	"github.com/atinyakov/shortlink/internal/storage"
)

var (
	// ErrConfiguration reports an unusable policy (code length, alphabet, pool marks).
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidArgument reports malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCodeConflict is returned when a requested code is already taken.
	ErrCodeConflict = errors.New("code already in use")

	// ErrCodeSpaceExhausted is returned when no free code was found after bounded retries.
	ErrCodeSpaceExhausted = errors.New("code space exhausted")

	// ErrNotFound is returned when no url holds the code.
	ErrNotFound = errors.New("short url not found")

	// ErrGone is returned for urls that exist but are inactive or expired.
	ErrGone = errors.New("short url is no longer available")

	// ErrStoreUnavailable wraps any storage failure the service cannot interpret.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// lookupError translates a FindByCode failure.
func lookupError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return storeError(err)
}

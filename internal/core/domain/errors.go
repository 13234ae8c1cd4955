package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyIndex is logical, not fatal: dense search over an empty index
	// degrades to an empty result set.
	ErrEmptyIndex = errors.New("vector index is empty")
	// ErrSearchUnavailable signals a missing text-search index, a
	// configuration precondition. Surfaced to the caller, never retried.
	ErrSearchUnavailable = errors.New("text search unavailable")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

package book

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a well-formed id matches no book.
	ErrNotFound = errors.New("book not found")
	// ErrInvalidID is returned when an id does not have the store's identifier format.
	ErrInvalidID = errors.New("invalid book id")
)

// ValidationError lists every field of a book that failed validation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid book: " + strings.Join(e.Problems, "; ")
}

package finance

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound covers missing categories and transactions alike; a
	// transaction owned by another user is indistinguishable from a
	// missing one.
	ErrNotFound = errors.New("record not found")

	// ErrCategoryInUse rejects deleting a category that transactions
	// still reference.
	ErrCategoryInUse = errors.New("category is referenced by transactions")
)

// ValidationError reports every rejected field at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

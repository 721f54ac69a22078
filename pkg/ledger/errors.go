package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrEntryNotFound is returned when a journal entry does not exist.
	ErrEntryNotFound = errors.New("journal entry not found")

	// ErrAccountNotFound is returned when a line references an unknown account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNotReversible is returned when reversing an entry that was not
	// manually created.
	ErrNotReversible = errors.New("entry is not reversible")
)

// ValidationError reports a rejected entry. Validation runs before any
// write, so a ValidationError guarantees no partial state.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid journal entry: %s", e.Reason)
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError reports a storage failure during posting or reversal.
// The enclosing transaction has been rolled back in full.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

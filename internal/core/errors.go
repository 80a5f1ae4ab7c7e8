package core

import "fmt"

// ValidationError rejects a mutation before anything is written. The wrapped
// cause is one of the sentinel errors in this package.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid wraps a sentinel cause in a ValidationError.
func Invalid(err error) error {
	return &ValidationError{Err: err}
}

// StorageError marks an underlying read or write failure. Mutations order
// their writes so that the budget update only starts after the triggering
// entity write succeeded.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storef wraps a storage failure with the failing operation name.
func Storef(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// ConsistencyError aborts an operation that would leave the data set in a
// partially applied state, such as importing an incomplete snapshot.
type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string {
	return "consistency: " + e.Reason
}

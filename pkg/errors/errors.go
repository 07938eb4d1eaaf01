// Package errors defines the sentinel errors shared across the indexing
// pipeline and a wrapper that pins a failure to the postings table it came
// from. All fatal errors abort the whole batch; there is no partial-success
// mode for a single indexing run.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptEntry marks a stored key or value that cannot be split into
	// its expected fixed-width parts. It indicates upstream data corruption
	// and is not recoverable in place.
	ErrCorruptEntry = errors.New("corrupt index entry")

	// ErrDocIDExhausted is returned when the allocator is drawn past the
	// 32-bit document-id maximum.
	ErrDocIDExhausted = errors.New("document id space exhausted")

	// ErrSorterDrained is returned on any use of a sorter after its single
	// permitted drain.
	ErrSorterDrained = errors.New("sorter already drained")

	// ErrBatchAborted wraps the cause that invalidated an indexing batch.
	ErrBatchAborted = errors.New("indexing batch aborted")
)

// TableError attributes an error to one postings table so the caller can
// tell which table or spill chunk failed.
type TableError struct {
	Table string
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table %s: %s", e.Table, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// ForTable wraps err with the table name, passing nil through unchanged.
func ForTable(table string, err error) error {
	if err == nil {
		return nil
	}
	return &TableError{Table: table, Err: err}
}

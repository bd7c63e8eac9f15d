package models

import "fmt"

// PersistenceError means the lead store was unreachable or rejected the
// write. The write is atomic per record, so nothing was stored.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("lead store %v: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

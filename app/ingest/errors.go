package ingest

import (
	"errors"
	"fmt"
)

// ErrFeedNotFound is returned by RefreshOne for an unknown feed id.
var ErrFeedNotFound = errors.New("feed not found")

// StoreError reports a persistence-layer failure that is not a duplicate-key
// skip.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

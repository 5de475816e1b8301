package rank

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// LookupError reports a missing Site, Keyword or TrackedURL.
type LookupError struct {
	Entity string
	ID     int64
}

func (e *LookupError) Error() string {
	return e.Entity + " not found"
}

// Unwrap lets callers match the error with errors.Is(err, ErrNotFound).
func (e *LookupError) Unwrap() error {
	return ErrNotFound
}

// NotFound builds a LookupError for the given entity.
func NotFound(entity string, id int64) error {
	return &LookupError{Entity: entity, ID: id}
}

// FetchError reports that the SERP could not be retrieved.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PersistError reports a failed write to the ranking store.
type PersistError struct {
	Table string
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Table, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

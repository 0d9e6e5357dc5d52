package infra

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("[xcoll] value not found")

// Sorted is the common contract of the sorted collections.
// Duplicates are retained as separate entries.
type Sorted[T any] interface {
	fmt.Stringer
	Add(v T)
	// Remove removes exactly one entry equal to v.
	// It returns an error matching ErrNotFound if v is absent,
	// the collection is left unchanged in that case.
	Remove(v T) error
	// Snapshot returns the elements in ascending order.
	Snapshot() []T
	Len() int64
}

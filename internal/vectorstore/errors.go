package vectorstore

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when the snapshot does not exist.
var ErrNotFound = errors.New("vectorstore: not found")

// ErrDimensionMismatch is returned when a vector's dimensionality does not
// match the store's.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vectorstore: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrCountMismatch is returned by Add when the vectors, texts, and metadata
// slices differ in length.
type ErrCountMismatch struct {
	Vectors   int
	Texts     int
	Metadatas int
}

func (e *ErrCountMismatch) Error() string {
	return fmt.Sprintf("vectorstore: count mismatch: %d vectors, %d texts, %d metadatas",
		e.Vectors, e.Texts, e.Metadatas)
}

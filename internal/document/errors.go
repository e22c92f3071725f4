package document

import (
	"fmt"
	"strings"
)

// ErrUnsupportedType is returned by Parse for file extensions outside
// SupportedExtensions.
type ErrUnsupportedType struct {
	Extension string
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported file type %q (supported: %s)",
		e.Extension, strings.Join(SupportedExtensions, ", "))
}

// ErrTooLarge is returned by CheckSize when a file exceeds the configured
// size limit. Sizes are in bytes.
type ErrTooLarge struct {
	Size int
	Max  int
}

func (e *ErrTooLarge) Error() string {
	return fmt.Sprintf("file size %.1f MB exceeds limit of %.0f MB",
		float64(e.Size)/(1024*1024), float64(e.Max)/(1024*1024))
}

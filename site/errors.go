package site

import (
	"errors"
	"fmt"
)

// ErrDuplicateSlug signals two content files resolving to the same slug.
var ErrDuplicateSlug = errors.New("duplicate slug")

// FileError attaches the offending content file to an underlying defect so
// build output always identifies what to fix.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

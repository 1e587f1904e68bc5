package archive

import (
	"errors"
	"fmt"
)

// ErrMemberNotFound is returned when no archive member matches the pattern.
var ErrMemberNotFound = errors.New("no matching file inside archive")

// ExtractionError reports a corrupt or unreadable container.
type ExtractionError struct {
	Kind Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// PathPermissionError reports a failure to write or chmod the output file.
type PathPermissionError struct {
	Path string
	Err  error
}

func (e *PathPermissionError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *PathPermissionError) Unwrap() error {
	return e.Err
}

package sink

import (
	"errors"
	"fmt"
)

// ErrNameClaimed indicates another annotation type already owns the artifact
// name (two annotations with the same simple name in different packages).
var ErrNameClaimed = errors.New("artifact name already claimed")

// OpenError reports that a sink's backing artifact could not be created.
// The annotation is skipped for the round; it is not fatal.
type OpenError struct {
	Annotation string
	Name       string
	Err        error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open sink %s for %s: %v", e.Name, e.Annotation, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// WriteError reports a failed flush. The buffered records stay in memory and
// are written again by the next successful flush.
type WriteError struct {
	Annotation string
	Name       string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("flush sink %s for %s: %v", e.Name, e.Annotation, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

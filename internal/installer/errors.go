package installer

import (
	"errors"
	"fmt"
)

var (
	// ErrArchiveNotFound is returned when the archive path does not name a file.
	ErrArchiveNotFound = errors.New("archive not found")
	// ErrStageConflict is returned when a stale scratch directory cannot be removed.
	ErrStageConflict = errors.New("staging directory is locked")
	// ErrExtractFailure is returned for corrupt archives and unsafe entries.
	ErrExtractFailure = errors.New("archive extraction failed")
	// ErrInvalidName is returned when the package name is not a single path element.
	ErrInvalidName = errors.New("invalid package name")
	// ErrSwapFailure is returned when the destination could not be replaced.
	// The destination still holds what it held before the install.
	ErrSwapFailure = errors.New("package swap failed")
	// ErrDegradedState is matched by *DegradedStateError.
	ErrDegradedState = errors.New("package left in degraded state")
)

// DegradedStateError means the previous install was moved to quarantine but
// the new content could not be moved in. The destination is empty.
type DegradedStateError struct {
	Name        string
	Destination string
	Quarantine  string
	Err         error
}

func (e *DegradedStateError) Error() string {
	return fmt.Sprintf("%s: %s is missing, previous version is in %s: %v", e.Name, e.Destination, e.Quarantine, e.Err)
}

func (e *DegradedStateError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDegradedState) true.
func (e *DegradedStateError) Is(target error) bool { return target == ErrDegradedState }

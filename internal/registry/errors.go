package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a package or version is not in the registry.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDocument is returned when a registry payload cannot be parsed
	// or does not match the registry schema.
	ErrInvalidDocument = errors.New("invalid registry document")
)

// NotFoundError wraps ErrNotFound with the package that was looked up.
type NotFoundError struct {
	Name    string
	Version string
}

func (e *NotFoundError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("package %s version %s not found", e.Name, e.Version)
	}
	return fmt.Sprintf("package %s not found", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

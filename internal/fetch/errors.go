package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork is matched by every transport or protocol failure,
	// including non-200 responses.
	ErrNetwork = errors.New("network error")
	// ErrUnsupportedScheme is returned for URLs that are neither http nor https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrInvalidURL is returned when a URL cannot be parsed or names no file.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrChecksumMismatch is returned when a downloaded archive does not
	// match its published SHA-256.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// StatusError is returned for any response other than 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Is makes errors.Is(err, ErrNetwork) true.
func (e *StatusError) Is(target error) bool { return target == ErrNetwork }

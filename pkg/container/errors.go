package container

import "errors"

var (
	// ErrSignature is returned when the leading magic bytes do not match the container.
	ErrSignature = errors.New("container: signature mismatch")

	// ErrTruncated indicates a segment or chunk runs past the end of the buffer.
	ErrTruncated = errors.New("container: truncated data")

	// ErrMalformed indicates a structurally invalid segment or chunk.
	ErrMalformed = errors.New("container: malformed data")
)

package scrubber

import (
	"context"
	"errors"
	"log/slog"

	"github.com/thvl3/scrubkit/pkg/container"
	"github.com/thvl3/scrubkit/pkg/imaging"
	"github.com/thvl3/scrubkit/pkg/models"
)

/*
scrubber.go holds the contract shared by the format-specific binary scrub paths.
Scrubber: interface implemented by each binary path (JPEG, PNG).
Attempt: tagged result of one path; either a Blob plus the dropped segments, or an error.
BaseScrubber: name, description and mime types, embedded by each implementation.
Service (service.go) tries the registered path first and the canvas fallback second.
*/

// ErrNoScrubber is recorded when no binary path is registered for a mime type.
var ErrNoScrubber = errors.New("scrubber: no binary scrubber for type")

// Attempt is the outcome of a single scrub stage
type Attempt struct {
	Blob    *models.Blob
	Dropped []container.Segment
	Err     error
}

// OK reports whether the stage produced output
func (a Attempt) OK() bool {
	return a.Err == nil && a.Blob != nil
}

// Succeeded builds a successful attempt
func Succeeded(blob *models.Blob, dropped []container.Segment) Attempt {
	return Attempt{Blob: blob, Dropped: dropped}
}

// Failed builds a failed attempt
func Failed(err error) Attempt {
	return Attempt{Err: err}
}

// Scrubber is the interface that all binary scrub paths must implement
type Scrubber interface {
	// CanScrub checks if this scrubber handles the given mime type
	CanScrub(mimeType string) bool

	// Scrub removes metadata segments from data. It never mutates data.
	Scrub(data []byte, mimeType string) Attempt

	// Name returns the name of the scrubber
	Name() string

	// Description returns what the scrubber drops and keeps
	Description() string

	// SupportedTypes returns the mime types this scrubber accepts
	SupportedTypes() []string
}

// Fallback re-encodes an image when no binary path succeeds. Its error is
// the only one Service surfaces.
type Fallback interface {
	Scrub(ctx context.Context, data []byte, mimeType string) Attempt
}

// BaseScrubber provides common functionality for scrubbers
type BaseScrubber struct {
	name        string
	description string
	types       []string
	logger      *slog.Logger
}

// NewBaseScrubber creates a new BaseScrubber
func NewBaseScrubber(name, description string, types []string) BaseScrubber {
	return BaseScrubber{
		name:        name,
		description: description,
		types:       types,
	}
}

// Name returns the scrubber name
func (b *BaseScrubber) Name() string {
	return b.name
}

// Description returns the scrubber description
func (b *BaseScrubber) Description() string {
	return b.description
}

// SupportedTypes returns the supported mime types
func (b *BaseScrubber) SupportedTypes() []string {
	return b.types
}

// CanScrub checks if the scrubber supports the given mime type
func (b *BaseScrubber) CanScrub(mimeType string) bool {
	mimeType = imaging.NormalizeType(mimeType)
	for _, t := range b.types {
		if imaging.NormalizeType(t) == mimeType {
			return true
		}
	}
	return false
}

// SetLogger sets the logger used for per-segment debug output
func (b *BaseScrubber) SetLogger(logger *slog.Logger) {
	b.logger = logger
}

// Logger returns the configured logger or the default one
func (b *BaseScrubber) Logger() *slog.Logger {
	if b.logger == nil {
		return slog.Default()
	}
	return b.logger
}

// Filter walks s and splits its segments into kept and dropped sets using
// keep. Any scanner error aborts the walk.
func Filter(s container.Scanner, keep func(container.Segment) bool) (kept, dropped []container.Segment, err error) {
	segments, err := container.Collect(s)
	if err != nil {
		return nil, nil, err
	}
	for _, seg := range segments {
		if keep(seg) {
			kept = append(kept, seg)
		} else {
			dropped = append(dropped, seg)
		}
	}
	return kept, dropped, nil
}

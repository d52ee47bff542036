package scrubber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/thvl3/scrubkit/pkg/models"
)

// Service orchestrates a scrub: every binary path registered for the
// declared type is tried in order, then the fallback. Binary path failures
// are logged and never returned.
type Service struct {
	Registry *Registry
	Fallback Fallback
	Logger   *slog.Logger

	// ForceCanvas skips the binary paths.
	ForceCanvas bool
}

// NewService creates a service over a registry and fallback
func NewService(registry *Registry, fallback Fallback, logger *slog.Logger) *Service {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{
		Registry: registry,
		Fallback: fallback,
		Logger:   logger,
	}
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Scrub removes metadata from file. The input buffer is never modified.
// The only error returned comes from the fallback stage.
func (s *Service) Scrub(ctx context.Context, file models.File) (*models.ScrubResult, error) {
	start := time.Now()
	result := &models.ScrubResult{
		Filename:    file.Name,
		InputSize:   file.Size(),
		InputDigest: Digest(file.Data),
		ScrubTime:   start,
	}

	reason := s.tryBinary(file, result)
	if result.Blob != nil {
		s.finish(result, start)
		return result, nil
	}

	if s.Fallback == nil {
		return nil, fmt.Errorf("scrub %s: no fallback configured: %w", file.Name, reason)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	attempt := s.Fallback.Scrub(ctx, file.Data, file.Type)
	if !attempt.OK() {
		err := attempt.Err
		if err == nil {
			err = errors.New("fallback produced no output")
		}
		return nil, fmt.Errorf("scrub %s: %w", file.Name, err)
	}

	result.Blob = attempt.Blob
	result.Method = models.MethodCanvas
	if reason != nil {
		result.FallbackReason = reason.Error()
	}
	s.finish(result, start)
	return result, nil
}

// tryBinary runs the binary paths and fills result on success. It returns
// the reason the fallback is needed otherwise.
func (s *Service) tryBinary(file models.File, result *models.ScrubResult) error {
	if s.ForceCanvas {
		return errors.New("canvas scrub requested")
	}

	scrubbers := s.Registry.GetScrubbersForType(file.Type)
	if len(scrubbers) == 0 {
		s.logger().Debug("no binary scrubber, using canvas", "file", file.Name, "type", file.Type)
		return fmt.Errorf("%w: %q", ErrNoScrubber, file.Type)
	}

	var reason error
	for _, sc := range scrubbers {
		attempt := sc.Scrub(file.Data, file.Type)
		if !attempt.OK() {
			reason = attempt.Err
			s.logger().Warn("binary scrub failed, falling back to canvas",
				"file", file.Name,
				"scrubber", sc.Name(),
				"error", attempt.Err,
			)
			continue
		}

		result.Blob = attempt.Blob
		result.Method = models.MethodBinary
		result.Scrubber = sc.Name()
		for _, seg := range attempt.Dropped {
			result.AddDropped(seg.Kind, seg.Offset, seg.Length)
		}
		return nil
	}
	return reason
}

func (s *Service) finish(result *models.ScrubResult, start time.Time) {
	result.OutputSize = result.Blob.Size()
	result.OutputDigest = Digest(result.Blob.Data)
	result.ScrubDuration = time.Since(start)

	s.logger().Debug("scrubbed",
		"file", result.Filename,
		"method", result.Method,
		"dropped", len(result.Dropped),
		"input_size", result.InputSize,
		"output_size", result.OutputSize,
	)
}

// Package scrub wires the JPEG and PNG binary scrubbers and the canvas
// fallback into a ready-to-use service.
package scrub

import (
	"context"
	"io"
	"log/slog"

	"github.com/thvl3/scrubkit/pkg/imaging"
	"github.com/thvl3/scrubkit/pkg/models"
	"github.com/thvl3/scrubkit/pkg/scrubber"
	"github.com/thvl3/scrubkit/pkg/scrubber/canvas"
	jpegscrubber "github.com/thvl3/scrubkit/pkg/scrubber/image/jpeg"
	pngscrubber "github.com/thvl3/scrubkit/pkg/scrubber/image/png"
)

// NewRegistry returns a registry holding every binary scrubber
func NewRegistry(logger *slog.Logger) *scrubber.Registry {
	registry := scrubber.NewRegistry()

	j := jpegscrubber.NewJPEGScrubber()
	j.SetLogger(logger)
	registry.Register(j)

	p := pngscrubber.NewPNGScrubber()
	p.SetLogger(logger)
	registry.Register(p)

	return registry
}

// NewService returns a service using the default registry and a canvas
// fallback over codec. A nil codec selects imaging.NewCodec().
func NewService(logger *slog.Logger, codec *imaging.Codec) *scrubber.Service {
	return scrubber.NewService(NewRegistry(logger), canvas.New(codec), logger)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// Scrub removes metadata from data declared as mimeType using the default
// service. The returned blob carries mimeType unchanged. It does not log;
// build a service with NewService to observe fallbacks.
func Scrub(ctx context.Context, data []byte, mimeType string) (*models.Blob, error) {
	result, err := NewService(discard, nil).Scrub(ctx, models.File{Type: mimeType, Data: data})
	if err != nil {
		return nil, err
	}
	return result.Blob, nil
}

// Package canvas implements the lossy scrub path: decode to pixels, redraw
// into a fresh buffer and re-encode. Nothing but pixels survives, so the
// result is always metadata-free, at the cost of recompressing the image.
package canvas

import (
	"context"
	"fmt"

	"github.com/thvl3/scrubkit/pkg/imaging"
	"github.com/thvl3/scrubkit/pkg/models"
	"github.com/thvl3/scrubkit/pkg/scrubber"
)

// Fallback re-encodes images through a Decoder and Encoder pair
type Fallback struct {
	Decoder imaging.Decoder
	Encoder imaging.Encoder
}

// New returns a fallback using the given codec for both directions.
// A nil codec selects imaging.NewCodec().
func New(codec *imaging.Codec) *Fallback {
	if codec == nil {
		codec = imaging.NewCodec()
	}
	return &Fallback{Decoder: codec, Encoder: codec}
}

// Scrub decodes data and re-encodes it as mimeType at the encoder's default
// quality.
func (f *Fallback) Scrub(ctx context.Context, data []byte, mimeType string) scrubber.Attempt {
	img, err := f.Decoder.Decode(ctx, data)
	if err != nil {
		return scrubber.Failed(fmt.Errorf("canvas decode: %w", err))
	}

	if err := ctx.Err(); err != nil {
		return scrubber.Failed(err)
	}
	redrawn := imaging.Redraw(img)

	out, err := f.Encoder.Encode(ctx, redrawn, mimeType, 0)
	if err != nil {
		return scrubber.Failed(fmt.Errorf("canvas encode: %w", err))
	}

	return scrubber.Succeeded(&models.Blob{Type: mimeType, Data: out}, nil)
}

// Package pipeline runs the decode, transform, encode jobs behind the
// convert, compress and crop commands. Every job redraws pixels into a fresh
// buffer, so none of its outputs carry metadata from the input.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/thvl3/scrubkit/pkg/imaging"
	"github.com/thvl3/scrubkit/pkg/models"
)

// Encoder qualities used when the caller does not choose one
const (
	ConvertQuality = 0.95
	CropQuality    = float64(imaging.DefaultJPEGQuality) / 100
)

var (
	// ErrInvalidQuality is returned for a quality outside (0, 1].
	ErrInvalidQuality = errors.New("quality must be in (0, 1]")

	// ErrInvalidCrop is returned for an empty crop or one that leaves the image.
	ErrInvalidCrop = errors.New("invalid crop rectangle")
)

// Pipeline decodes with Decoder and encodes with Encoder
type Pipeline struct {
	Decoder imaging.Decoder
	Encoder imaging.Encoder
}

// New returns a pipeline using codec in both directions. A nil codec
// selects imaging.NewCodec().
func New(codec *imaging.Codec) *Pipeline {
	if codec == nil {
		codec = imaging.NewCodec()
	}
	return &Pipeline{Decoder: codec, Encoder: codec}
}

// Convert re-encodes data as target at ConvertQuality. JPEG output is
// flattened onto white first.
func (p *Pipeline) Convert(ctx context.Context, data []byte, target string) (*models.Blob, error) {
	img, err := p.decode(ctx, data)
	if err != nil {
		return nil, err
	}
	return p.encode(ctx, prepare(img, target), target, ConvertQuality)
}

// Compress re-encodes data declared as mimeType at quality. A PNG compressed
// below quality 1 becomes a JPEG, since PNG has no lossy mode. Formats
// without a quality setting are re-encoded as-is.
func (p *Pipeline) Compress(ctx context.Context, data []byte, mimeType string, quality float64) (*models.Blob, error) {
	if !(quality > 0 && quality <= 1) {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidQuality, quality)
	}

	target := mimeType
	if imaging.NormalizeType(mimeType) == imaging.TypePNG && quality < 1 {
		target = imaging.TypeJPEG
	}

	img, err := p.decode(ctx, data)
	if err != nil {
		return nil, err
	}
	return p.encode(ctx, prepare(img, target), target, quality)
}

// Crop cuts r, relative to the image's top-left corner, out of data and
// encodes it as target at CropQuality. An empty target means JPEG.
func (p *Pipeline) Crop(ctx context.Context, data []byte, r image.Rectangle, target string) (*models.Blob, error) {
	if target == "" {
		target = imaging.TypeJPEG
	}

	img, err := p.decode(ctx, data)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if r.Empty() || !r.In(image.Rect(0, 0, b.Dx(), b.Dy())) {
		return nil, fmt.Errorf("%w: %v outside %dx%d", ErrInvalidCrop, r, b.Dx(), b.Dy())
	}
	return p.encode(ctx, imaging.Crop(img, r), target, CropQuality)
}

func (p *Pipeline) decode(ctx context.Context, data []byte) (image.Image, error) {
	img, err := p.Decoder.Decode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

func (p *Pipeline) encode(ctx context.Context, img image.Image, target string, quality float64) (*models.Blob, error) {
	out, err := p.Encoder.Encode(ctx, img, target, quality)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return &models.Blob{Type: target, Data: out}, nil
}

// prepare draws img into a fresh buffer, over white when target is JPEG
func prepare(img image.Image, target string) image.Image {
	if imaging.NormalizeType(target) == imaging.TypeJPEG {
		return imaging.Flatten(img, color.White)
	}
	return imaging.Redraw(img)
}

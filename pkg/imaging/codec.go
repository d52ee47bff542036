package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // registers the WebP decoder
)

// Mime types understood by the default codec
const (
	TypeJPEG = "image/jpeg"
	TypePNG  = "image/png"
	TypeGIF  = "image/gif"
	TypeBMP  = "image/bmp"
	TypeTIFF = "image/tiff"
	TypeWebP = "image/webp"
)

// DefaultJPEGQuality matches the browser canvas encoder default of 0.92.
const DefaultJPEGQuality = 92

// Decoder turns encoded bytes into a pixel buffer.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (image.Image, error)
}

// Encoder turns a pixel buffer into encoded bytes of the given mime type.
// A quality outside (0,1] selects the encoder default.
type Encoder interface {
	Encode(ctx context.Context, img image.Image, mimeType string, quality float64) ([]byte, error)
}

// Codec is the default Decoder and Encoder backed by the standard library
// and golang.org/x/image. It decodes JPEG, PNG, GIF, WebP, BMP and TIFF and
// encodes everything except WebP.
type Codec struct {
	// JPEGQuality is used when Encode is called without a quality.
	// Zero means DefaultJPEGQuality.
	JPEGQuality int
}

// NewCodec creates a codec with default settings
func NewCodec() *Codec {
	return &Codec{JPEGQuality: DefaultJPEGQuality}
}

// NormalizeType lowercases a mime type, strips parameters and folds aliases
// such as image/jpg onto their canonical form.
func NormalizeType(mimeType string) string {
	t := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	switch t {
	case "image/jpg", "image/pjpeg":
		return TypeJPEG
	case "image/x-png":
		return TypePNG
	case "image/x-ms-bmp", "image/x-bmp":
		return TypeBMP
	case "image/tif":
		return TypeTIFF
	}
	return t
}

// CanEncode reports whether the codec can produce the given mime type
func (c *Codec) CanEncode(mimeType string) bool {
	switch NormalizeType(mimeType) {
	case TypeJPEG, TypePNG, TypeGIF, TypeBMP, TypeTIFF:
		return true
	}
	return false
}

// Decode decodes any registered image format.
func (c *Codec) Decode(ctx context.Context, data []byte) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// Encode encodes img as mimeType.
func (c *Codec) Encode(ctx context.Context, img image.Image, mimeType string, quality float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrEncode)
	}

	var buf bytes.Buffer
	var err error
	switch t := NormalizeType(mimeType); t {
	case TypeJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.jpegQuality(quality)})
	case TypePNG:
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		err = enc.Encode(&buf, img)
	case TypeGIF:
		err = gif.Encode(&buf, img, nil)
	case TypeBMP:
		err = bmp.Encode(&buf, img)
	case TypeTIFF:
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return nil, fmt.Errorf("%w: cannot encode %q", ErrUnsupportedType, mimeType)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

func (c *Codec) jpegQuality(quality float64) int {
	if quality > 0 && quality <= 1 {
		q := int(quality*100 + 0.5)
		if q < 1 {
			q = 1
		}
		return q
	}
	if c.JPEGQuality > 0 && c.JPEGQuality <= 100 {
		return c.JPEGQuality
	}
	return DefaultJPEGQuality
}

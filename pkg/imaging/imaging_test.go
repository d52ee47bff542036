package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestNormalizeType(t *testing.T) {
	tests := map[string]string{
		"image/jpeg":              TypeJPEG,
		"image/jpg":               TypeJPEG,
		"IMAGE/JPG":               TypeJPEG,
		"image/png; charset=utf8": TypePNG,
		"image/x-ms-bmp":          TypeBMP,
		"image/webp":              TypeWebP,
		"application/pdf":         "application/pdf",
	}
	for in, want := range tests {
		if got := NormalizeType(in); got != want {
			t.Errorf("NormalizeType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	ctx := context.Background()
	codec := NewCodec()
	src := solidNRGBA(4, 3, color.NRGBA{R: 10, G: 200, B: 30, A: 255})

	for _, mimeType := range []string{TypeJPEG, TypePNG, TypeGIF, TypeBMP, TypeTIFF} {
		t.Run(mimeType, func(t *testing.T) {
			data, err := codec.Encode(ctx, src, mimeType, 0)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			img, err := codec.Decode(ctx, data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
				t.Errorf("bounds = %v, want 4x3", img.Bounds())
			}
		})
	}
}

func TestCodec_Errors(t *testing.T) {
	ctx := context.Background()
	codec := NewCodec()

	if _, err := codec.Decode(ctx, []byte("not an image")); !errors.Is(err, ErrDecode) {
		t.Errorf("Decode(garbage) error = %v, want ErrDecode", err)
	}
	if _, err := codec.Decode(ctx, nil); !errors.Is(err, ErrDecode) {
		t.Errorf("Decode(nil) error = %v, want ErrDecode", err)
	}
	img := solidNRGBA(1, 1, color.NRGBA{A: 255})
	if _, err := codec.Encode(ctx, img, TypeWebP, 0); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Encode(webp) error = %v, want ErrUnsupportedType", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := codec.Encode(cancelled, img, TypePNG, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Encode(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestCodec_JPEGQuality(t *testing.T) {
	c := &Codec{}
	if q := c.jpegQuality(0); q != DefaultJPEGQuality {
		t.Errorf("default quality = %d, want %d", q, DefaultJPEGQuality)
	}
	if q := c.jpegQuality(0.5); q != 50 {
		t.Errorf("quality(0.5) = %d, want 50", q)
	}
	c.JPEGQuality = 70
	if q := c.jpegQuality(2); q != 70 {
		t.Errorf("out of range quality = %d, want 70", q)
	}
}

func TestRedraw(t *testing.T) {
	src := solidNRGBA(5, 5, color.NRGBA{R: 255, A: 255})
	sub := src.SubImage(image.Rect(1, 1, 4, 3))

	dst := Redraw(sub)
	if dst.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds = %v, want (0,0)-(3,2)", dst.Bounds())
	}
	if got := dst.RGBAAt(2, 1); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("pixel = %v", got)
	}
}

func TestFlatten(t *testing.T) {
	img := image.NewNRGBA(image.Rect(2, 2, 6, 4))
	img.SetNRGBA(2, 2, color.NRGBA{R: 255, A: 255})

	dst := Flatten(img, color.White)
	if dst.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("bounds = %v", dst.Bounds())
	}
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, color.RGBA{R: 255, A: 255}},
		{1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255}},
		{3, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255}},
	}
	for _, tt := range tests {
		if got := dst.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestCrop(t *testing.T) {
	// 6x4 image whose red channel encodes x and green encodes y
	img := image.NewNRGBA(image.Rect(10, 20, 16, 24))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.SetNRGBA(10+x, 20+y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), A: 255})
		}
	}

	tests := []struct {
		name string
		r    image.Rectangle
	}{
		{"whole", image.Rect(0, 0, 6, 4)},
		{"corner", image.Rect(4, 2, 6, 4)},
		{"strip", image.Rect(1, 1, 5, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := Crop(img, tt.r)
			if dst.Bounds() != image.Rect(0, 0, tt.r.Dx(), tt.r.Dy()) {
				t.Fatalf("bounds = %v", dst.Bounds())
			}
			got := dst.RGBAAt(0, 0)
			want := color.RGBA{R: uint8(tt.r.Min.X * 10), G: uint8(tt.r.Min.Y * 10), A: 255}
			if got != want {
				t.Errorf("origin pixel = %v, want %v", got, want)
			}
		})
	}
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, bound  int
		wantW, wantH int
	}{
		{300, 300, 200, 200, 200},
		{400, 100, 200, 200, 50},
		{100, 400, 200, 50, 200},
		{150, 80, 200, 150, 80},
		{1000, 1, 200, 200, 1},
		{10, 10, 0, 10, 10},
	}
	for _, tt := range tests {
		w, h := FitSize(tt.w, tt.h, tt.bound)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("FitSize(%d, %d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.bound, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestFit_UniformColorSurvivesScaling(t *testing.T) {
	src := solidNRGBA(300, 300, color.NRGBA{R: 255, A: 255})
	dst := Fit(src, 200)
	if dst.Bounds().Dx() != 200 || dst.Bounds().Dy() != 200 {
		t.Fatalf("bounds = %v", dst.Bounds())
	}
	if got := dst.NRGBAAt(100, 100); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("pixel = %v, want opaque red", got)
	}
}

func TestDataURL(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidNRGBA(2, 2, color.NRGBA{B: 255, A: 255})); err != nil {
		t.Fatal(err)
	}

	u := EncodeDataURL(buf.Bytes(), "image/png")
	if !IsDataURL(u) {
		t.Fatalf("IsDataURL(%q) = false", u[:20])
	}
	data, mimeType, err := ParseDataURL(u)
	if err != nil {
		t.Fatalf("ParseDataURL() error = %v", err)
	}
	if mimeType != TypePNG {
		t.Errorf("mime = %q, want %q", mimeType, TypePNG)
	}
	if !bytes.Equal(data, buf.Bytes()) {
		t.Errorf("data mismatch after round trip")
	}

	if _, _, err := ParseDataURL("data:image/png;base64,%%%"); !errors.Is(err, ErrDecode) {
		t.Errorf("ParseDataURL(bad) error = %v, want ErrDecode", err)
	}
	if IsDataURL("/tmp/photo.png") {
		t.Errorf("path mistaken for data URL")
	}
}

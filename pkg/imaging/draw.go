package imaging

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Redraw copies img into a freshly allocated RGBA buffer of identical size
// anchored at the origin. Nothing but pixels survives the copy.
func Redraw(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Flatten composites img over a solid background of the same size. JPEG has
// no alpha channel, so transparent regions take the background colour.
func Flatten(img image.Image, bg color.Color) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// Crop copies the sub-rectangle r of img, given relative to its top-left
// corner, into a new buffer anchored at the origin. The caller checks that r
// lies inside the image.
func Crop(img image.Image, r image.Rectangle) *image.RGBA {
	src := r.Add(img.Bounds().Min)
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
	return dst
}

// FitSize returns the dimensions of w x h scaled so the longer side is at
// most bound. Images already within bound keep their size. Scaled sides are
// truncated and never drop below one pixel.
func FitSize(w, h, bound int) (int, int) {
	longer := max(w, h)
	if bound <= 0 || longer <= bound {
		return w, h
	}
	scale := float64(bound) / float64(longer)
	sw := max(int(float64(w)*scale), 1)
	sh := max(int(float64(h)*scale), 1)
	return sw, sh
}

// Fit downsamples img with bilinear filtering so its longer side is at most
// bound. The result is always non-premultiplied so alpha can be read
// directly.
func Fit(img image.Image, bound int) *image.NRGBA {
	b := img.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), bound)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

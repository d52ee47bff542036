package palette

import (
	"image"

	"github.com/thvl3/scrubkit/pkg/imaging"
)

// Defaults for Options
const (
	DefaultSampleBound    = 200
	DefaultAlphaThreshold = 128
	DefaultDepth          = 3
	MaxDepth              = 16
)

// Pixel is an RGB sample indexed by channel: 0 red, 1 green, 2 blue
type Pixel [3]uint8

// Options tune sampling and quantization. Zero fields take the defaults,
// except AlphaThreshold once AlphaThresholdSet is true.
type Options struct {
	// SampleBound caps the longer side of the downsampled image.
	SampleBound int

	// AlphaThreshold excludes pixels with a lower alpha byte.
	AlphaThreshold int

	// AlphaThresholdSet marks AlphaThreshold as chosen, so that zero keeps
	// every pixel instead of selecting DefaultAlphaThreshold.
	AlphaThresholdSet bool

	// Depth is the number of median-cut splits; results are capped at 2^Depth.
	Depth int

	// AdaptiveDepth derives the depth from the requested count instead.
	AdaptiveDepth bool
}

// DefaultOptions returns the standard sampling and quantization settings
func DefaultOptions() Options {
	return Options{
		SampleBound:       DefaultSampleBound,
		AlphaThreshold:    DefaultAlphaThreshold,
		AlphaThresholdSet: true,
		Depth:             DefaultDepth,
	}
}

func (o Options) withDefaults() Options {
	if o.SampleBound <= 0 {
		o.SampleBound = DefaultSampleBound
	}
	if !o.AlphaThresholdSet && o.AlphaThreshold <= 0 {
		o.AlphaThreshold = DefaultAlphaThreshold
	}
	if o.Depth <= 0 {
		o.Depth = DefaultDepth
	}
	return o
}

// depthFor returns the recursion depth used for a request of count colours
func (o Options) depthFor(count int) int {
	if o.AdaptiveDepth {
		return DepthForCount(count)
	}
	return min(o.Depth, MaxDepth)
}

// Sample downsamples img so its longer side is at most opts.SampleBound and
// returns every pixel whose alpha reaches opts.AlphaThreshold.
func Sample(img image.Image, opts Options) []Pixel {
	opts = opts.withDefaults()
	fit := imaging.Fit(img, opts.SampleBound)

	pixels := make([]Pixel, 0, len(fit.Pix)/4)
	for i := 0; i+3 < len(fit.Pix); i += 4 {
		if int(fit.Pix[i+3]) < opts.AlphaThreshold {
			continue
		}
		pixels = append(pixels, Pixel{fit.Pix[i], fit.Pix[i+1], fit.Pix[i+2]})
	}
	return pixels
}

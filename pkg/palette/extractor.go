package palette

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/thvl3/scrubkit/pkg/imaging"
	"github.com/thvl3/scrubkit/pkg/models"
)

// Algorithm names a palette extraction strategy
type Algorithm string

// AlgorithmMedianCut is the recursive median-cut quantizer
const AlgorithmMedianCut Algorithm = "mediancut"

// ErrUnknownAlgorithm is returned by NewExtractor for unregistered names
var ErrUnknownAlgorithm = errors.New("palette: unknown algorithm")

// Extractor is the interface that all palette extractors must implement
type Extractor interface {
	// Extract decodes data and returns at most count colours
	Extract(ctx context.Context, data []byte, count int) ([]Color, error)

	// ExtractFromImage works directly on a decoded image
	ExtractFromImage(img image.Image, count int) ([]Color, error)

	// Name returns the name of the extractor
	Name() string

	// Algorithm returns the strategy implemented
	Algorithm() Algorithm
}

// BaseExtractor provides common functionality for extractors
type BaseExtractor struct {
	name      string
	algorithm Algorithm
}

// NewBaseExtractor creates a new BaseExtractor
func NewBaseExtractor(name string, algorithm Algorithm) BaseExtractor {
	return BaseExtractor{name: name, algorithm: algorithm}
}

// Name returns the extractor name
func (b *BaseExtractor) Name() string {
	return b.name
}

// Algorithm returns the extractor algorithm
func (b *BaseExtractor) Algorithm() Algorithm {
	return b.algorithm
}

// MedianCutExtractor samples an image and quantizes it with MedianCut
type MedianCutExtractor struct {
	BaseExtractor
	Options Options
	Decoder imaging.Decoder
}

// NewMedianCutExtractor creates a median-cut extractor using the default codec
func NewMedianCutExtractor(opts Options) *MedianCutExtractor {
	return &MedianCutExtractor{
		BaseExtractor: NewBaseExtractor("Median Cut", AlgorithmMedianCut),
		Options:       opts,
		Decoder:       imaging.NewCodec(),
	}
}

// Extract decodes data and quantizes it. A decode failure is returned as an
// error; a fully transparent image yields an empty, non-nil result.
func (e *MedianCutExtractor) Extract(ctx context.Context, data []byte, count int) ([]Color, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	img, err := e.Decoder.Decode(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.ExtractFromImage(img, count)
}

// ExtractFromImage samples img and quantizes the population
func (e *MedianCutExtractor) ExtractFromImage(img image.Image, count int) ([]Color, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	opts := e.Options.withDefaults()
	pixels := Sample(img, opts)
	return distinct(MedianCut(pixels, opts.depthFor(count)), count), nil
}

// distinct converts bucket means to colours, drops repeated hex values in
// first-seen order and truncates to count.
func distinct(means []Pixel, count int) []Color {
	colors := make([]Color, 0, min(len(means), count))
	seen := make(map[string]bool, len(means))
	for _, p := range means {
		c := NewColor(p[0], p[1], p[2])
		if seen[c.Hex] {
			continue
		}
		seen[c.Hex] = true
		colors = append(colors, c)
		if len(colors) == count {
			break
		}
	}
	return colors
}

// Registry is a container for all available extractors
type Registry struct {
	extractors map[Algorithm]Extractor
	mu         sync.RWMutex
}

// NewRegistry creates a new extractor registry
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[Algorithm]Extractor),
	}
}

// Register adds an extractor, replacing any with the same algorithm
func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors[e.Algorithm()] = e
}

// Get returns the extractor for an algorithm
func (r *Registry) Get(algorithm Algorithm) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.extractors[algorithm]
	return e, ok
}

// Algorithms returns the registered algorithm names, sorted
func (r *Registry) Algorithms() []Algorithm {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []Algorithm
	for a := range r.extractors {
		names = append(names, a)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// DefaultRegistry returns a registry holding every built-in extractor
func DefaultRegistry(opts Options) *Registry {
	r := NewRegistry()
	r.Register(NewMedianCutExtractor(opts))
	return r
}

// NewExtractor returns the built-in extractor for algorithm. An empty name
// selects median cut.
func NewExtractor(algorithm Algorithm, opts Options) (Extractor, error) {
	if algorithm == "" {
		algorithm = AlgorithmMedianCut
	}
	e, ok := DefaultRegistry(opts).Get(algorithm)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	return e, nil
}

// Extract decodes data and returns at most count representative colours
// using median cut.
func Extract(ctx context.Context, data []byte, count int, opts Options) ([]Color, error) {
	return NewMedianCutExtractor(opts).Extract(ctx, data, count)
}

// FromImage returns at most count representative colours of img
func FromImage(img image.Image, count int, opts Options) ([]Color, error) {
	return NewMedianCutExtractor(opts).ExtractFromImage(img, count)
}

// Result packages colours for serialisation
func Result(source string, algorithm Algorithm, requested int, colors []Color) *models.PaletteResult {
	result := &models.PaletteResult{
		Source:    source,
		Algorithm: string(algorithm),
		Requested: requested,
		Colors:    make([]models.PaletteColor, 0, len(colors)),
	}
	for _, c := range colors {
		result.Colors = append(result.Colors, models.PaletteColor{
			R:        c.R,
			G:        c.G,
			B:        c.B,
			Hex:      c.Hex,
			Contrast: c.Contrast(),
		})
	}
	return result
}

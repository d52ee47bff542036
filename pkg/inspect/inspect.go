// Package inspect builds a metadata inventory of JPEG and PNG containers:
// every segment with whether a scrub would drop it, the common EXIF tags,
// GPS presence, comments, text chunks, XMP and ICC profiles, and any bytes
// trailing the end-of-image marker.
package inspect

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"unicode"

	"github.com/thvl3/scrubkit/pkg/container"
	"github.com/thvl3/scrubkit/pkg/imaging"
	"github.com/thvl3/scrubkit/pkg/models"
)

// Finding categories
const (
	CategoryEXIF      = "exif"
	CategoryGPS       = "gps"
	CategoryComment   = "comment"
	CategoryText      = "text"
	CategoryXMP       = "xmp"
	CategoryICC       = "icc"
	CategoryIPTC      = "iptc"
	CategoryTrailer   = "trailer"
	CategoryStructure = "structure"
)

// Inspector is the interface that all container inspectors must implement
type Inspector interface {
	// CanInspect checks if this inspector handles the given mime type
	CanInspect(mimeType string) bool

	// Inspect builds the inventory of data. On a malformed container the
	// inventory up to the fault is returned together with the error.
	Inspect(data []byte, mimeType string) (*models.Inspection, error)

	// Name returns the name of the inspector
	Name() string

	// SupportedTypes returns the mime types this inspector accepts
	SupportedTypes() []string
}

// BaseInspector provides common functionality for inspectors
type BaseInspector struct {
	name  string
	types []string
}

// NewBaseInspector creates a new BaseInspector
func NewBaseInspector(name string, types []string) BaseInspector {
	return BaseInspector{name: name, types: types}
}

// Name returns the inspector name
func (b *BaseInspector) Name() string {
	return b.name
}

// SupportedTypes returns the supported mime types
func (b *BaseInspector) SupportedTypes() []string {
	return b.types
}

// CanInspect checks if the inspector supports the given mime type
func (b *BaseInspector) CanInspect(mimeType string) bool {
	mimeType = imaging.NormalizeType(mimeType)
	for _, t := range b.types {
		if t == mimeType {
			return true
		}
	}
	return false
}

// Registry is a container for all available inspectors, keyed by mime type
type Registry struct {
	inspectors map[string]Inspector
	mu         sync.RWMutex
}

// NewRegistry creates a new, empty inspector registry
func NewRegistry() *Registry {
	return &Registry{inspectors: make(map[string]Inspector)}
}

// DefaultRegistry returns a registry with the JPEG and PNG inspectors
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewJPEGInspector())
	r.Register(NewPNGInspector())
	return r
}

// Register adds an inspector to the registry
func (r *Registry) Register(i Inspector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range i.SupportedTypes() {
		r.inspectors[imaging.NormalizeType(t)] = i
	}
}

// Get returns the inspector for a mime type
func (r *Registry) Get(mimeType string) (Inspector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.inspectors[imaging.NormalizeType(mimeType)]
	return i, ok
}

// GetSupportedTypes returns a sorted list of all supported mime types
func (r *Registry) GetSupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var types []string
	for t := range r.inspectors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Inspect builds the inventory of data with the default registry. When
// no inspector handles the declared type the container is sniffed from its
// signature instead.
func Inspect(data []byte, mimeType string) (*models.Inspection, error) {
	r := DefaultRegistry()
	i, ok := r.Get(mimeType)
	if !ok {
		i, ok = r.Get(Sniff(data))
	}
	if !ok {
		return nil, fmt.Errorf("inspect: %w: %q", imaging.ErrUnsupportedType, mimeType)
	}
	return i.Inspect(data, mimeType)
}

// Sniff returns the container type indicated by the leading bytes of data,
// or "" if it is neither JPEG nor PNG.
func Sniff(data []byte) string {
	switch {
	case bytes.HasPrefix(data, container.PNGSignature):
		return imaging.TypePNG
	case len(data) >= 3 && data[0] == 0xFF && data[1] == container.MarkerSOI && data[2] == 0xFF:
		return imaging.TypeJPEG
	}
	return ""
}

func newInspection(mimeType string) *models.Inspection {
	return &models.Inspection{
		FileType: mimeType,
		Segments: []models.SegmentEntry{},
		EXIF:     make(map[string]string),
		Text:     make(map[string]string),
		Findings: []models.Finding{},
	}
}

// addEXIF merges a decoded EXIF block into the inspection
func addEXIF(result *models.Inspection, payload []byte) {
	ex, err := parseEXIF(payload)
	if ex == nil {
		result.AddFinding(CategoryEXIF, "Unreadable EXIF block", err.Error())
		return
	}
	for k, v := range ex.Tags {
		result.EXIF[k] = v
	}
	result.AddFinding(CategoryEXIF, "EXIF metadata", fmt.Sprintf("%d tags decoded", len(ex.Tags)))
	if err != nil {
		result.AddFinding(CategoryEXIF, "EXIF block is damaged", err.Error())
	}

	if ex.HasGPS {
		result.HasGPS = true
		details := "GPS IFD present"
		if lat, lon, ok := ex.Location(); ok {
			details = fmt.Sprintf("%.6f, %.6f", lat, lon)
		}
		result.AddFinding(CategoryGPS, "GPS location", details)
	}
}

// identifier returns the NUL-terminated printable prefix of an APP payload
func identifier(payload []byte) string {
	end := bytes.IndexByte(payload, 0)
	if end < 0 {
		end = min(len(payload), 32)
	}
	if end == 0 || end > 64 {
		return ""
	}
	id := payload[:end]
	for _, c := range string(id) {
		if !unicode.IsPrint(c) {
			return ""
		}
	}
	return string(id)
}

// printable trims s to at most n runes for display
func printable(b []byte, n int) string {
	s := string(bytes.TrimRight(b, "\x00"))
	r := []rune(s)
	if len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}

package scrubber

import (
	"slices"
	"sort"
	"sync"

	"github.com/thvl3/scrubkit/pkg/imaging"
)

// Registry is a container for all available scrubbers, keyed by mime type
type Registry struct {
	scrubbers map[string][]Scrubber
	mu        sync.RWMutex
}

// NewRegistry creates a new scrubber registry
func NewRegistry() *Registry {
	return &Registry{
		scrubbers: make(map[string][]Scrubber),
	}
}

// Register adds a scrubber to the registry
func (r *Registry) Register(s Scrubber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range s.SupportedTypes() {
		t = imaging.NormalizeType(t)
		if slices.Contains(r.scrubbers[t], s) {
			// aliases such as image/jpg fold onto the same key
			continue
		}
		r.scrubbers[t] = append(r.scrubbers[t], s)
	}
}

// GetScrubbersForType returns all scrubbers that support the given mime type
func (r *Registry) GetScrubbersForType(mimeType string) []Scrubber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.scrubbers[imaging.NormalizeType(mimeType)]
}

// GetSupportedTypes returns a sorted list of all supported mime types
func (r *Registry) GetSupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var types []string
	for t := range r.scrubbers {
		types = append(types, t)
	}
	sort.Strings(types)

	return types
}

package jpeg

import (
	"fmt"

	"github.com/thvl3/scrubkit/pkg/container"
	"github.com/thvl3/scrubkit/pkg/models"
	"github.com/thvl3/scrubkit/pkg/scrubber"
)

// JPEGScrubber removes metadata segments from JPEG files by slicing around them
type JPEGScrubber struct {
	scrubber.BaseScrubber
}

// NewJPEGScrubber creates a new JPEG scrubber
func NewJPEGScrubber() *JPEGScrubber {
	return &JPEGScrubber{
		BaseScrubber: scrubber.NewBaseScrubber(
			"JPEG Scrubber",
			"Drops APPn and COM segments except JFIF (APP0), ICC (APP2) and Adobe (APP14)",
			[]string{"image/jpeg", "image/jpg"},
		),
	}
}

// Retain reports whether a segment with the given marker survives a scrub.
// JFIF, ICC and Adobe APP segments are kept because decoders need them to
// render colours correctly; every other APPn and all comments are dropped.
func Retain(marker byte) bool {
	switch marker {
	case container.MarkerAPP0, container.MarkerAPP2, container.MarkerAPPE:
		return true
	}
	return !container.IsAPP(marker) && marker != container.MarkerCOM
}

// Scrub performs the binary scrub on a JPEG buffer
func (s *JPEGScrubber) Scrub(data []byte, mimeType string) scrubber.Attempt {
	kept, dropped, err := scrubber.Filter(container.NewJPEGScanner(data), func(seg container.Segment) bool {
		return Retain(seg.Marker)
	})
	if err != nil {
		return scrubber.Failed(fmt.Errorf("jpeg scrub: %w", err))
	}

	for _, seg := range dropped {
		s.Logger().Debug("dropping JPEG segment",
			"marker", seg.Kind,
			"offset", seg.Offset,
			"length", seg.Length,
		)
	}

	return scrubber.Succeeded(&models.Blob{
		Type: mimeType,
		Data: container.Assemble(data, kept),
	}, dropped)
}

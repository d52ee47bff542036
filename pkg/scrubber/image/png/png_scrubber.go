package png

import (
	"fmt"

	"github.com/thvl3/scrubkit/pkg/container"
	"github.com/thvl3/scrubkit/pkg/models"
	"github.com/thvl3/scrubkit/pkg/scrubber"
)

// DropList holds the chunk types removed by a scrub. Matching is case-sensitive.
var DropList = []string{"eXIf", "tEXt", "zTXt", "iTXt", "iCCP", "dSIG"}

// PNGScrubber removes metadata chunks from PNG files
type PNGScrubber struct {
	scrubber.BaseScrubber
}

// NewPNGScrubber creates a new PNG scrubber
func NewPNGScrubber() *PNGScrubber {
	return &PNGScrubber{
		BaseScrubber: scrubber.NewBaseScrubber(
			"PNG Scrubber",
			"Drops eXIf, tEXt, zTXt, iTXt, iCCP and dSIG chunks",
			[]string{"image/png"},
		),
	}
}

// Retain reports whether a chunk of the given type survives a scrub
func Retain(kind string) bool {
	for _, d := range DropList {
		if kind == d {
			return false
		}
	}
	return true
}

// Scrub performs the binary scrub on a PNG buffer
func (s *PNGScrubber) Scrub(data []byte, mimeType string) scrubber.Attempt {
	kept, dropped, err := scrubber.Filter(container.NewPNGScanner(data), func(seg container.Segment) bool {
		return Retain(seg.Kind)
	})
	if err != nil {
		return scrubber.Failed(fmt.Errorf("png scrub: %w", err))
	}

	for _, seg := range dropped {
		s.Logger().Debug("dropping PNG chunk",
			"type", seg.Kind,
			"offset", seg.Offset,
			"length", seg.Length,
		)
	}

	return scrubber.Succeeded(&models.Blob{
		Type: mimeType,
		Data: container.Assemble(data, kept),
	}, dropped)
}

package inspect

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/thvl3/scrubkit/pkg/container"
	"github.com/thvl3/scrubkit/pkg/models"
	pngscrubber "github.com/thvl3/scrubkit/pkg/scrubber/image/png"
)

// maxTextSize caps how much of a compressed text chunk is inflated
const maxTextSize = 1 << 20

const xmpKeyword = "XML:com.adobe.xmp"

var pngChunkNames = map[string]string{
	"signature": "PNG signature",
	"IHDR":      "Image header",
	"PLTE":      "Palette",
	"IDAT":      "Image data",
	"IEND":      "Image end",
	"tRNS":      "Transparency",
	"gAMA":      "Gamma",
	"cHRM":      "Chromaticities",
	"sRGB":      "sRGB intent",
	"iCCP":      "ICC profile",
	"sBIT":      "Significant bits",
	"bKGD":      "Background colour",
	"pHYs":      "Physical dimensions",
	"tIME":      "Modification time",
	"tEXt":      "Text",
	"zTXt":      "Compressed text",
	"iTXt":      "International text",
	"eXIf":      "EXIF",
	"dSIG":      "Digital signature",
	"acTL":      "Animation control",
	"fcTL":      "Frame control",
	"fdAT":      "Frame data",
}

// PNGInspector inventories PNG chunks
type PNGInspector struct {
	BaseInspector
}

// NewPNGInspector creates a new PNG inspector
func NewPNGInspector() *PNGInspector {
	return &PNGInspector{
		BaseInspector: NewBaseInspector("PNG Inspector", []string{"image/png"}),
	}
}

// Inspect walks the chunks of data up to IEND
func (i *PNGInspector) Inspect(data []byte, mimeType string) (*models.Inspection, error) {
	result := newInspection(mimeType)

	s := container.NewPNGScanner(data)
	for s.Scan() {
		seg := s.Segment()
		payload := seg.Payload(data)

		result.AddSegment(models.SegmentEntry{
			Kind:     seg.Kind,
			Name:     pngChunkName(seg.Kind),
			Offset:   seg.Offset,
			Length:   seg.Length,
			Scrubbed: !pngscrubber.Retain(seg.Kind),
		})

		switch seg.Kind {
		case "IHDR":
			if len(payload) >= 8 {
				result.Width = int(binary.BigEndian.Uint32(payload[0:4]))
				result.Height = int(binary.BigEndian.Uint32(payload[4:8]))
			}
		case "eXIf":
			addEXIF(result, payload)
		case "iCCP":
			result.HasICC = true
			name, _, _ := bytes.Cut(payload, []byte{0})
			result.AddFinding(CategoryICC, "ICC colour profile", fmt.Sprintf("%q, %d bytes", name, len(payload)))
		case "tEXt", "zTXt", "iTXt":
			addText(result, seg.Kind, payload)
		case "dSIG":
			result.AddFinding(CategoryStructure, "Digital signature chunk", fmt.Sprintf("%d bytes", len(payload)))
		case "IEND":
			if end := seg.End(); end < len(data) {
				result.TrailerLen = len(data) - end
				result.AddFinding(CategoryTrailer, "Found appended data after IEND",
					fmt.Sprintf("%d bytes at offset %d", result.TrailerLen, end))
			}
			return result, nil
		}
	}
	if err := s.Err(); err != nil {
		result.AddFinding(CategoryStructure, "Malformed PNG", err.Error())
		return result, fmt.Errorf("inspect png: %w", err)
	}

	result.AddFinding(CategoryStructure, "Missing IEND chunk", "chunks run to the end of the file")
	return result, nil
}

// pngChunkName names a chunk, classing unregistered types by their
// critical bit
func pngChunkName(kind string) string {
	if name, ok := pngChunkNames[kind]; ok {
		return name
	}
	if container.IsCritical(kind) {
		return "Unknown critical chunk"
	}
	return "Unknown ancillary chunk"
}

func addText(result *models.Inspection, kind string, payload []byte) {
	keyword, text, err := decodeText(kind, payload)
	if err != nil {
		result.AddFinding(CategoryText, "Unreadable "+kind+" chunk", err.Error())
		return
	}

	if keyword == xmpKeyword {
		result.HasXMP = true
		result.AddFinding(CategoryXMP, "XMP packet", fmt.Sprintf("%d bytes in %s", len(text), kind))
		return
	}
	result.Text[keyword] = text
	result.AddFinding(CategoryText, "Text chunk "+keyword, printable([]byte(text), 200))
}

// decodeText returns the keyword and text of a tEXt, zTXt or iTXt payload
func decodeText(kind string, payload []byte) (string, string, error) {
	keyword, rest, ok := bytes.Cut(payload, []byte{0})
	if !ok {
		return "", "", fmt.Errorf("%s: missing keyword separator", kind)
	}

	switch kind {
	case "tEXt":
		return string(keyword), string(rest), nil

	case "zTXt":
		if len(rest) < 1 || rest[0] != 0 {
			return "", "", fmt.Errorf("zTXt: unknown compression method")
		}
		text, err := inflate(rest[1:])
		return string(keyword), string(text), err

	case "iTXt":
		// flag, method, language\0, translated keyword\0, text
		if len(rest) < 2 {
			return "", "", fmt.Errorf("iTXt: truncated header")
		}
		compressed := rest[0] == 1
		rest = rest[2:]
		_, rest, ok = bytes.Cut(rest, []byte{0})
		if !ok {
			return "", "", fmt.Errorf("iTXt: missing language tag")
		}
		_, rest, ok = bytes.Cut(rest, []byte{0})
		if !ok {
			return "", "", fmt.Errorf("iTXt: missing translated keyword")
		}
		if !compressed {
			return string(keyword), string(rest), nil
		}
		text, err := inflate(rest)
		return string(keyword), string(text), err
	}
	return "", "", fmt.Errorf("%s: not a text chunk", kind)
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, maxTextSize))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return out, nil
}

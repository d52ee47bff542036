package inspect

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/thvl3/scrubkit/pkg/container"
	"github.com/thvl3/scrubkit/pkg/models"
	jpegscrubber "github.com/thvl3/scrubkit/pkg/scrubber/image/jpeg"
)

// APP segment identifiers
const (
	idEXIF      = "Exif"
	idXMP       = "http://ns.adobe.com/xap/1.0/"
	idXMPExt    = "http://ns.adobe.com/xmp/extension/"
	idICC       = "ICC_PROFILE"
	idPhotoshop = "Photoshop 3.0"
)

// JPEGInspector inventories JPEG marker segments
type JPEGInspector struct {
	BaseInspector
}

// NewJPEGInspector creates a new JPEG inspector
func NewJPEGInspector() *JPEGInspector {
	return &JPEGInspector{
		BaseInspector: NewBaseInspector("JPEG Inspector", []string{"image/jpeg"}),
	}
}

// Inspect walks the marker segments of data
func (i *JPEGInspector) Inspect(data []byte, mimeType string) (*models.Inspection, error) {
	result := newInspection(mimeType)

	s := container.NewJPEGScanner(data)
	for s.Scan() {
		seg := s.Segment()
		payload := seg.Payload(data)

		entry := models.SegmentEntry{
			Kind:     seg.Kind,
			Name:     jpegSegmentName(seg.Marker),
			Offset:   seg.Offset,
			Length:   seg.Length,
			Scrubbed: !jpegscrubber.Retain(seg.Marker),
		}
		if container.IsAPP(seg.Marker) {
			entry.Signature = identifier(payload)
		}

		switch {
		case seg.Marker == container.MarkerAPP1:
			inspectAPP1(result, payload, entry.Signature)
		case seg.Marker == container.MarkerAPP2 && entry.Signature == idICC:
			result.HasICC = true
			result.AddFinding(CategoryICC, "ICC colour profile", fmt.Sprintf("%d bytes, kept by scrub", len(payload)))
		case seg.Marker == 0xED && entry.Signature == idPhotoshop:
			result.AddFinding(CategoryIPTC, "Photoshop / IPTC resource block", fmt.Sprintf("%d bytes", len(payload)))
		case seg.Marker == container.MarkerCOM:
			result.AddFinding(CategoryComment, "JPEG comment", printable(payload, 200))
		case isSOF(seg.Marker) && len(payload) >= 5:
			result.Height = int(binary.BigEndian.Uint16(payload[1:3]))
			result.Width = int(binary.BigEndian.Uint16(payload[3:5]))
		case seg.Marker == container.MarkerSOS:
			checkJPEGTrailer(result, data, seg)
		}

		result.AddSegment(entry)
	}
	if err := s.Err(); err != nil {
		result.AddFinding(CategoryStructure, "Malformed JPEG", err.Error())
		return result, fmt.Errorf("inspect jpeg: %w", err)
	}
	return result, nil
}

func inspectAPP1(result *models.Inspection, payload []byte, id string) {
	switch {
	case id == idEXIF && len(payload) > 6:
		addEXIF(result, payload[6:])
	case id == idXMP:
		result.HasXMP = true
		result.AddFinding(CategoryXMP, "XMP packet", fmt.Sprintf("%d bytes", len(payload)-len(idXMP)-1))
	case id == idXMPExt:
		result.HasXMP = true
		result.AddFinding(CategoryXMP, "Extended XMP packet", fmt.Sprintf("%d bytes", len(payload)))
	default:
		result.AddFinding(CategoryEXIF, "Unrecognised APP1 segment", fmt.Sprintf("%d bytes", len(payload)))
	}
}

// checkJPEGTrailer looks for data after the first End-Of-Image marker that
// follows the start of scan
func checkJPEGTrailer(result *models.Inspection, data []byte, sos container.Segment) {
	scan := sos.Bytes(data)
	eoi := bytes.Index(scan, []byte{0xFF, container.MarkerEOI})
	if eoi < 0 {
		result.AddFinding(CategoryStructure, "Missing EOI marker", "image data runs to the end of the file")
		return
	}

	end := sos.Offset + eoi + 2
	if end < len(data) {
		result.TrailerLen = len(data) - end
		result.AddFinding(CategoryTrailer, "Found appended data after EOI",
			fmt.Sprintf("%d bytes at offset %d", result.TrailerLen, end))
	}
}

func isSOF(marker byte) bool {
	return marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC
}

func jpegSegmentName(marker byte) string {
	switch {
	case marker == container.MarkerSOI:
		return "Start of image"
	case marker == container.MarkerEOI:
		return "End of image"
	case marker == container.MarkerSOS:
		return "Start of scan"
	case marker == 0xDB:
		return "Quantization table"
	case marker == 0xC4:
		return "Huffman table"
	case marker == 0xDD:
		return "Restart interval"
	case marker == container.MarkerCOM:
		return "Comment"
	case marker == container.MarkerAPP0:
		return "JFIF header"
	case marker == container.MarkerAPP1:
		return "EXIF / XMP"
	case marker == container.MarkerAPP2:
		return "ICC profile"
	case marker == 0xED:
		return "Photoshop IRB"
	case marker == container.MarkerAPPE:
		return "Adobe"
	case container.IsAPP(marker):
		return "Application data"
	case container.IsRST(marker):
		return "Restart"
	case isSOF(marker):
		return "Frame header"
	}
	return ""
}

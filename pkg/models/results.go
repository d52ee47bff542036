package models

import (
	"time"
)

// Scrub methods recorded on a ScrubResult
const (
	MethodBinary = "binary"
	MethodCanvas = "canvas"
)

// File is a raw byte buffer together with its declared mime type
type File struct {
	Name string `json:"name"`
	Type string `json:"type"` // declared mime type, never re-sniffed by the scrubber
	Data []byte `json:"-"`
}

// Size returns the length of the file in bytes
func (f File) Size() int {
	return len(f.Data)
}

// Blob is an encoded output buffer tagged with its mime type
type Blob struct {
	Type string `json:"type"`
	Data []byte `json:"-"`
}

// Size returns the length of the blob in bytes
func (b *Blob) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// DroppedSegment describes a metadata segment elided from the output
type DroppedSegment struct {
	Kind   string `json:"kind"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// ScrubResult contains the outcome of a metadata scrub
type ScrubResult struct {
	Filename       string           `json:"filename"`
	Blob           *Blob            `json:"blob"`
	Method         string           `json:"method"` // binary or canvas
	Scrubber       string           `json:"scrubber,omitempty"`
	FallbackReason string           `json:"fallbackReason,omitempty"`
	Dropped        []DroppedSegment `json:"dropped"`
	InputSize      int              `json:"inputSize"`
	OutputSize     int              `json:"outputSize"`
	InputDigest    string           `json:"inputDigest"`
	OutputDigest   string           `json:"outputDigest"`
	ScrubTime      time.Time        `json:"scrubTime"`
	ScrubDuration  time.Duration    `json:"scrubDuration"`
}

// AddDropped records a dropped segment on the result
func (r *ScrubResult) AddDropped(kind string, offset, length int) {
	r.Dropped = append(r.Dropped, DroppedSegment{
		Kind:   kind,
		Offset: offset,
		Length: length,
	})
}

// Lossless reports whether pixel data was carried over byte-for-byte
func (r *ScrubResult) Lossless() bool {
	return r.Method == MethodBinary
}

// SegmentEntry is one row of a container inventory
type SegmentEntry struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Offset    int    `json:"offset"`
	Length    int    `json:"length"`
	Scrubbed  bool   `json:"scrubbed"` // true when scrub would drop it
	Signature string `json:"signature,omitempty"`
}

// Finding represents a specific piece of metadata discovered during inspection
type Finding struct {
	Category    string `json:"category"` // exif, gps, comment, text, xmp, icc, trailer
	Description string `json:"description"`
	Details     string `json:"details"`
}

// Inspection contains the metadata inventory of a container
type Inspection struct {
	Filename   string                 `json:"filename"`
	FileType   string                 `json:"fileType"`
	Width      int                    `json:"width"`
	Height     int                    `json:"height"`
	Segments   []SegmentEntry         `json:"segments"`
	EXIF       map[string]string      `json:"exif,omitempty"`
	Text       map[string]string      `json:"text,omitempty"`
	HasGPS     bool                   `json:"hasGPS"`
	HasICC     bool                   `json:"hasICC"`
	HasXMP     bool                   `json:"hasXMP"`
	TrailerLen int                    `json:"trailerLength"`
	Findings   []Finding              `json:"findings"`
}

// AddFinding adds a finding to the inspection
func (i *Inspection) AddFinding(category, description, details string) {
	i.Findings = append(i.Findings, Finding{
		Category:    category,
		Description: description,
		Details:     details,
	})
}

// AddSegment appends a segment row to the inventory
func (i *Inspection) AddSegment(entry SegmentEntry) {
	i.Segments = append(i.Segments, entry)
}

// ScrubbableCount returns how many segments scrub would drop
func (i *Inspection) ScrubbableCount() int {
	n := 0
	for _, s := range i.Segments {
		if s.Scrubbed {
			n++
		}
	}
	return n
}

// PaletteColor is the serialisable form of an extracted colour
type PaletteColor struct {
	R        uint8  `json:"r"`
	G        uint8  `json:"g"`
	B        uint8  `json:"b"`
	Hex      string `json:"hex"`
	Contrast string `json:"contrast"`
}

// PaletteResult contains the colours extracted from an image
type PaletteResult struct {
	Source    string         `json:"source"`
	Algorithm string         `json:"algorithm"`
	Requested int            `json:"requested"`
	Colors    []PaletteColor `json:"colors"`
}

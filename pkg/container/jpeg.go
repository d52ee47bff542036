package container

import (
	"encoding/binary"
	"fmt"
)

// JPEG marker codes
const (
	MarkerSOI  = 0xD8
	MarkerEOI  = 0xD9
	MarkerSOS  = 0xDA
	MarkerRST0 = 0xD0
	MarkerRST7 = 0xD7
	MarkerAPP0 = 0xE0
	MarkerAPP1 = 0xE1
	MarkerAPP2 = 0xE2
	MarkerAPPE = 0xEE
	MarkerAPPF = 0xEF
	MarkerCOM  = 0xFE
)

// IsAPP reports whether marker is one of APP0..APP15.
func IsAPP(marker byte) bool {
	return marker >= MarkerAPP0 && marker <= MarkerAPPF
}

// IsRST reports whether marker is a restart marker.
func IsRST(marker byte) bool {
	return marker >= MarkerRST0 && marker <= MarkerRST7
}

// MarkerName returns a short human name for a JPEG marker code.
func MarkerName(marker byte) string {
	switch {
	case marker == MarkerSOI:
		return "SOI"
	case marker == MarkerEOI:
		return "EOI"
	case marker == MarkerSOS:
		return "SOS"
	case marker == 0xDB:
		return "DQT"
	case marker == 0xC4:
		return "DHT"
	case marker == 0xCC:
		return "DAC"
	case marker == 0xDD:
		return "DRI"
	case marker == 0xDC:
		return "DNL"
	case marker == MarkerCOM:
		return "COM"
	case IsRST(marker):
		return fmt.Sprintf("RST%d", marker-MarkerRST0)
	case IsAPP(marker):
		return fmt.Sprintf("APP%d", marker-MarkerAPP0)
	case marker >= 0xC0 && marker <= 0xCF:
		// C4, C8 and CC are not frame markers
		return fmt.Sprintf("SOF%d", marker-0xC0)
	default:
		return fmt.Sprintf("0x%02X", marker)
	}
}

// JPEGScanner walks the marker segments of a JPEG buffer. It yields the SOI
// segment first; a Start-Of-Scan segment carries the rest of the buffer and
// ends the walk, as does End-Of-Image.
type JPEGScanner struct {
	data []byte
	pos  int
	seg  Segment
	err  error
	done bool
}

// NewJPEGScanner returns a scanner over data. data is never modified.
func NewJPEGScanner(data []byte) *JPEGScanner {
	return &JPEGScanner{data: data}
}

// Scan advances to the next segment.
func (s *JPEGScanner) Scan() bool {
	if s.done {
		return false
	}
	data := s.data

	// Start-Of-Image
	if s.pos == 0 {
		if len(data) < 2 || data[0] != 0xFF || data[1] != MarkerSOI {
			return s.fail(fmt.Errorf("%w: missing JPEG SOI marker", ErrSignature))
		}
		s.seg = Segment{Kind: "SOI", Marker: MarkerSOI, Offset: 0, Length: 2, HeaderLen: 2}
		s.pos = 2
		return true
	}

	if s.pos >= len(data) {
		s.done = true
		return false
	}
	if data[s.pos] != 0xFF {
		return s.fail(fmt.Errorf("%w: expected marker at offset %d, found 0x%02X", ErrMalformed, s.pos, data[s.pos]))
	}

	// Skip 0xFF fill bytes
	start := s.pos
	pos := s.pos
	for pos < len(data) && data[pos] == 0xFF {
		pos++
	}
	if pos >= len(data) {
		return s.fail(fmt.Errorf("%w: marker prefix at offset %d has no code", ErrTruncated, start))
	}

	marker := data[pos]
	prefix := pos + 1 - start

	switch {
	case marker == MarkerSOS:
		// Entropy-coded data through EOI is carried verbatim
		s.seg = Segment{Kind: MarkerName(marker), Marker: marker, Offset: start, Length: len(data) - start, HeaderLen: prefix}
		s.done = true
		return true

	case marker == MarkerEOI:
		s.seg = Segment{Kind: MarkerName(marker), Marker: marker, Offset: start, Length: prefix, HeaderLen: prefix}
		s.pos = pos + 1
		s.done = true
		return true

	case IsRST(marker):
		s.seg = Segment{Kind: MarkerName(marker), Marker: marker, Offset: start, Length: prefix, HeaderLen: prefix}
		s.pos = pos + 1
		return true
	}

	// Length-prefixed segment; the length covers itself but not the marker
	if pos+3 > len(data) {
		return s.fail(fmt.Errorf("%w: %s length field at offset %d", ErrTruncated, MarkerName(marker), pos+1))
	}
	length := int(binary.BigEndian.Uint16(data[pos+1 : pos+3]))
	if length < 2 {
		return s.fail(fmt.Errorf("%w: %s length %d at offset %d", ErrMalformed, MarkerName(marker), length, pos+1))
	}
	end := pos + 1 + length
	if end > len(data) {
		return s.fail(fmt.Errorf("%w: %s segment ends at %d, buffer is %d bytes", ErrTruncated, MarkerName(marker), end, len(data)))
	}

	s.seg = Segment{
		Kind:      MarkerName(marker),
		Marker:    marker,
		Offset:    start,
		Length:    end - start,
		HeaderLen: prefix + 2,
	}
	s.pos = end
	return true
}

// Segment returns the most recent segment produced by Scan.
func (s *JPEGScanner) Segment() Segment {
	return s.seg
}

// Err returns the first error encountered, if any.
func (s *JPEGScanner) Err() error {
	return s.err
}

func (s *JPEGScanner) fail(err error) bool {
	s.err = err
	s.done = true
	return false
}

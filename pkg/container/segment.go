package container

// Segment is a view into a container buffer. It never owns bytes; use
// Bytes or Payload against the buffer it was scanned from.
type Segment struct {
	// Kind is the marker name for JPEG (APP1, DQT, ...) or the 4-character
	// chunk type for PNG.
	Kind string

	// Marker is the JPEG marker code. Zero for PNG chunks.
	Marker byte

	// Offset and Length locate the whole segment including any 0xFF padding,
	// length field, chunk type and CRC.
	Offset, Length int

	// HeaderLen and TrailerLen frame the payload inside the segment.
	HeaderLen, TrailerLen int
}

// End returns the offset one past the last byte of the segment.
func (s Segment) End() int {
	return s.Offset + s.Length
}

// Bytes returns the segment as a sub-slice of data without copying.
func (s Segment) Bytes(data []byte) []byte {
	return data[s.Offset:s.End():s.End()]
}

// Payload returns the segment body without framing bytes.
func (s Segment) Payload(data []byte) []byte {
	start := s.Offset + s.HeaderLen
	end := s.End() - s.TrailerLen
	if start > end {
		return nil
	}
	return data[start:end:end]
}

// Assemble concatenates the given segment views of data, in order, into a
// freshly allocated buffer. This is the only copy made during a scrub.
func Assemble(data []byte, segments []Segment) []byte {
	total := 0
	for _, s := range segments {
		total += s.Length
	}
	out := make([]byte, 0, total)
	for _, s := range segments {
		out = append(out, s.Bytes(data)...)
	}
	return out
}

// Scanner is the iteration shape shared by the JPEG and PNG scanners.
type Scanner interface {
	Scan() bool
	Segment() Segment
	Err() error
}

// Collect drains a scanner into a slice.
func Collect(s Scanner) ([]Segment, error) {
	var segments []Segment
	for s.Scan() {
		segments = append(segments, s.Segment())
	}
	return segments, s.Err()
}

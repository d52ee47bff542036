package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// PNGSignature is the 8-byte PNG file signature.
var PNGSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

const pngChunkOverhead = 12 // length + type + CRC

// PNGScanner walks the chunks of a PNG buffer. The signature is yielded as
// the first segment with Kind "signature".
type PNGScanner struct {
	data    []byte
	pos     int
	seg     Segment
	err     error
	done    bool
	started bool
}

// NewPNGScanner returns a scanner over data. data is never modified.
func NewPNGScanner(data []byte) *PNGScanner {
	return &PNGScanner{data: data}
}

// Scan advances to the next chunk.
func (s *PNGScanner) Scan() bool {
	if s.done {
		return false
	}
	data := s.data

	if !s.started {
		s.started = true
		if len(data) < len(PNGSignature) || !bytes.Equal(data[:len(PNGSignature)], PNGSignature) {
			return s.fail(fmt.Errorf("%w: missing PNG signature", ErrSignature))
		}
		s.seg = Segment{Kind: "signature", Offset: 0, Length: len(PNGSignature), HeaderLen: len(PNGSignature)}
		s.pos = len(PNGSignature)
		return true
	}

	if s.pos >= len(data) {
		s.done = true
		return false
	}
	if s.pos+8 > len(data) {
		return s.fail(fmt.Errorf("%w: chunk header at offset %d", ErrTruncated, s.pos))
	}

	length := int64(binary.BigEndian.Uint32(data[s.pos : s.pos+4]))
	kind := string(data[s.pos+4 : s.pos+8])
	total := length + pngChunkOverhead
	if int64(s.pos)+total > int64(len(data)) {
		return s.fail(fmt.Errorf("%w: %q chunk of %d bytes at offset %d, buffer is %d bytes", ErrTruncated, kind, length, s.pos, len(data)))
	}

	s.seg = Segment{
		Kind:       kind,
		Offset:     s.pos,
		Length:     int(total),
		HeaderLen:  8,
		TrailerLen: 4,
	}
	s.pos += int(total)
	return true
}

// Segment returns the most recent chunk produced by Scan.
func (s *PNGScanner) Segment() Segment {
	return s.seg
}

// Err returns the first error encountered, if any.
func (s *PNGScanner) Err() error {
	return s.err
}

func (s *PNGScanner) fail(err error) bool {
	s.err = err
	s.done = true
	return false
}

// IsCritical reports whether a PNG chunk type is critical (uppercase first letter).
func IsCritical(kind string) bool {
	return len(kind) == 4 && kind[0] >= 'A' && kind[0] <= 'Z'
}

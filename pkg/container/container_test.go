package container

import (
	"bytes"
	"errors"
	"testing"
)

// sampleJPEG builds SOI, APP0, APP1 (EXIF), DQT, SOS + scan data, EOI
func sampleJPEG() []byte {
	return []byte{
		0xFF, 0xD8, // SOI
		0xFF, 0xE0, 0x00, 0x07, // APP0, length 7
		0x4A, 0x46, 0x49, 0x46, 0x00, // "JFIF\0"
		0xFF, 0xE1, 0x00, 0x08, // APP1, length 8
		0x45, 0x78, 0x69, 0x66, 0x00, 0x00, // "Exif\0\0"
		0xFF, 0xDB, 0x00, 0x04, // DQT, length 4
		0x01, 0x02, // table bytes
		0xFF, 0xDA, 0x00, 0x02, // SOS
		0x11, 0x22, 0xFF, 0x00, 0x33, // entropy-coded data
		0xFF, 0xD9, // EOI
	}
}

func samplePNG() []byte {
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // signature
		0x00, 0x00, 0x00, 0x02, // length 2
		0x49, 0x48, 0x44, 0x52, // "IHDR"
		0x01, 0x02, // data
		0xAA, 0xBB, 0xCC, 0xDD, // CRC
		0x00, 0x00, 0x00, 0x00, // length 0
		0x49, 0x45, 0x4E, 0x44, // "IEND"
		0xAE, 0x42, 0x60, 0x82, // CRC
	}
}

func TestJPEGScanner(t *testing.T) {
	data := sampleJPEG()
	segments, err := Collect(NewJPEGScanner(data))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	want := []struct {
		kind   string
		offset int
		length int
	}{
		{"SOI", 0, 2},
		{"APP0", 2, 9},
		{"APP1", 11, 10},
		{"DQT", 21, 6},
		{"SOS", 27, 11},
	}
	if len(segments) != len(want) {
		t.Fatalf("got %d segments, want %d: %+v", len(segments), len(want), segments)
	}
	for i, w := range want {
		s := segments[i]
		if s.Kind != w.kind || s.Offset != w.offset || s.Length != w.length {
			t.Errorf("segment %d = %s@%d+%d, want %s@%d+%d", i, s.Kind, s.Offset, s.Length, w.kind, w.offset, w.length)
		}
	}

	if got := segments[2].Payload(data); string(got) != "Exif\x00\x00" {
		t.Errorf("APP1 payload = %q", got)
	}
	if got := segments[4].Bytes(data); !bytes.Equal(got, data[27:]) {
		t.Errorf("SOS segment does not cover the remainder of the buffer")
	}
}

func TestJPEGScanner_FillBytesAndRestart(t *testing.T) {
	data := []byte{
		0xFF, 0xD8, // SOI
		0xFF, 0xFF, 0xFF, 0xD0, // RST0 with fill bytes
		0xFF, 0xFE, 0x00, 0x03, 0x41, // COM "A"
		0xFF, 0xD9, // EOI
		0x00, 0x00, // trailing bytes are not scanned
	}
	segments, err := Collect(NewJPEGScanner(data))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(segments) != 4 {
		t.Fatalf("got %d segments, want 4", len(segments))
	}
	if s := segments[1]; s.Kind != "RST0" || s.Offset != 2 || s.Length != 4 {
		t.Errorf("restart segment = %+v", s)
	}
	if s := segments[2]; s.Kind != "COM" || string(s.Payload(data)) != "A" {
		t.Errorf("comment segment = %+v payload %q", s, s.Payload(data))
	}
	if s := segments[3]; s.Kind != "EOI" || s.End() != 13 {
		t.Errorf("EOI segment = %+v", s)
	}
}

func TestJPEGScanner_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrSignature},
		{"not a JPEG", []byte{0x89, 0x50, 0x4E, 0x47}, ErrSignature},
		{"length past end", []byte{0xFF, 0xD8, 0xFF, 0xE1, 0x01, 0x00, 0x00}, ErrTruncated},
		{"missing length", []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00}, ErrTruncated},
		{"dangling prefix", []byte{0xFF, 0xD8, 0xFF, 0xFF}, ErrTruncated},
		{"short length", []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x01}, ErrMalformed},
		{"garbage between segments", []byte{0xFF, 0xD8, 0x12, 0x34}, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Collect(NewJPEGScanner(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Collect() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPNGScanner(t *testing.T) {
	data := samplePNG()
	segments, err := Collect(NewPNGScanner(data))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	kinds := []string{"signature", "IHDR", "IEND"}
	if len(segments) != len(kinds) {
		t.Fatalf("got %d chunks, want %d", len(segments), len(kinds))
	}
	for i, k := range kinds {
		if segments[i].Kind != k {
			t.Errorf("chunk %d kind = %q, want %q", i, segments[i].Kind, k)
		}
	}
	if got := segments[1].Payload(data); !bytes.Equal(got, []byte{0x01, 0x02}) {
		t.Errorf("IHDR payload = %v", got)
	}
	if segments[1].Length != 14 {
		t.Errorf("IHDR length = %d, want 14", segments[1].Length)
	}
}

func TestPNGScanner_Errors(t *testing.T) {
	truncated := samplePNG()
	truncated = truncated[:len(truncated)-2]

	huge := append([]byte{}, PNGSignature...)
	huge = append(huge, 0xFF, 0xFF, 0xFF, 0xFF, 'I', 'D', 'A', 'T')

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"bad signature", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x00}, ErrSignature},
		{"short", []byte{0x89, 0x50}, ErrSignature},
		{"truncated chunk", truncated, ErrTruncated},
		{"huge length", huge, ErrTruncated},
		{"partial header", append(append([]byte{}, PNGSignature...), 0x00, 0x00), ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Collect(NewPNGScanner(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Collect() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAssemble(t *testing.T) {
	data := sampleJPEG()
	segments, err := Collect(NewJPEGScanner(data))
	if err != nil {
		t.Fatal(err)
	}

	all := Assemble(data, segments)
	if !bytes.Equal(all, data) {
		t.Errorf("assembling every segment should reproduce the input")
	}

	// Drop APP1
	kept := append([]Segment{}, segments[:2]...)
	kept = append(kept, segments[3:]...)
	out := Assemble(data, kept)
	if len(out) != len(data)-10 {
		t.Errorf("len = %d, want %d", len(out), len(data)-10)
	}
	if bytes.Contains(out, []byte{0xFF, 0xE1}) {
		t.Errorf("assembled output still contains APP1 marker")
	}

	out[0] = 0x00
	if data[0] != 0xFF {
		t.Errorf("Assemble must not alias the input buffer")
	}
}

func TestMarkerName(t *testing.T) {
	tests := map[byte]string{
		0xD8: "SOI",
		0xE1: "APP1",
		0xEE: "APP14",
		0xC0: "SOF0",
		0xC2: "SOF2",
		0xC4: "DHT",
		0xD3: "RST3",
		0xFE: "COM",
		0x01: "0x01",
	}
	for marker, want := range tests {
		if got := MarkerName(marker); got != want {
			t.Errorf("MarkerName(0x%02X) = %q, want %q", marker, got, want)
		}
	}
}

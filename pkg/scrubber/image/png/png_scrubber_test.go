package png

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	stdpng "image/png"
	"testing"

	"github.com/thvl3/scrubkit/pkg/container"
)

func chunk(kind, payload string) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(len(payload)))
	buf.WriteString(kind)
	buf.WriteString(payload)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE([]byte(kind+payload)))
	return buf.Bytes()
}

// encodedPNG returns a real PNG from the standard encoder
func encodedPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := stdpng.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// withMetadata inserts metadata chunks after IHDR and a tEXt chunk before IEND
func withMetadata(t *testing.T) []byte {
	t.Helper()
	clean := encodedPNG(t)
	// signature (8) + IHDR (4+4+13+4)
	ihdrEnd := 8 + 25
	iend := len(clean) - 12

	var buf bytes.Buffer
	buf.Write(clean[:ihdrEnd])
	buf.Write(chunk("iCCP", "sRGB\x00\x00profile"))
	buf.Write(chunk("eXIf", "MM\x00\x2a\x00\x00\x00\x08"))
	buf.Write(chunk("gAMA", "\x00\x00\xb1\x8f"))
	buf.Write(chunk("tEXt", "Author\x00someone"))
	buf.Write(clean[ihdrEnd:iend])
	buf.Write(chunk("iTXt", "Comment\x00\x00\x00\x00\x00hello"))
	buf.Write(clean[iend:])
	return buf.Bytes()
}

func chunkKinds(t *testing.T, data []byte) []string {
	t.Helper()
	segments, err := container.Collect(container.NewPNGScanner(data))
	if err != nil {
		t.Fatal(err)
	}
	var kinds []string
	for _, s := range segments {
		kinds = append(kinds, s.Kind)
	}
	return kinds
}

func TestRetain(t *testing.T) {
	for _, kind := range DropList {
		if Retain(kind) {
			t.Errorf("Retain(%q) = true", kind)
		}
	}
	for _, kind := range []string{"IHDR", "PLTE", "IDAT", "IEND", "gAMA", "sRGB", "pHYs", "tRNS", "TEXT", "text"} {
		if !Retain(kind) {
			t.Errorf("Retain(%q) = false", kind)
		}
	}
}

func TestPNGScrubber_RemovesMetadata(t *testing.T) {
	input := withMetadata(t)
	original := append([]byte(nil), input...)

	attempt := NewPNGScrubber().Scrub(input, "image/png")
	if !attempt.OK() {
		t.Fatalf("Scrub() error = %v", attempt.Err)
	}
	if !bytes.Equal(input, original) {
		t.Fatal("input buffer was modified")
	}

	kinds := chunkKinds(t, attempt.Blob.Data)
	for _, k := range kinds {
		if !Retain(k) {
			t.Errorf("output still contains %s", k)
		}
	}

	// Surviving chunks keep their relative order
	var want []string
	for _, k := range chunkKinds(t, input) {
		if Retain(k) {
			want = append(want, k)
		}
	}
	if len(kinds) != len(want) {
		t.Fatalf("chunks = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("chunk[%d] = %s, want %s", i, kinds[i], want[i])
		}
	}

	if len(attempt.Dropped) != 4 {
		t.Errorf("dropped %d chunks, want 4", len(attempt.Dropped))
	}

	decoded, err := stdpng.Decode(bytes.NewReader(attempt.Blob.Data))
	if err != nil {
		t.Fatalf("scrubbed output does not decode: %v", err)
	}
	if r, _, _, _ := decoded.At(0, 0).RGBA(); r>>8 != 255 {
		t.Errorf("pixel (0,0) red = %d, want 255", r>>8)
	}
}

func TestPNGScrubber_Idempotent(t *testing.T) {
	s := NewPNGScrubber()
	first := s.Scrub(withMetadata(t), "image/png")
	if !first.OK() {
		t.Fatal(first.Err)
	}
	second := s.Scrub(first.Blob.Data, "image/png")
	if !second.OK() {
		t.Fatal(second.Err)
	}
	if !bytes.Equal(first.Blob.Data, second.Blob.Data) {
		t.Error("scrubbing twice changed the output")
	}
}

func TestPNGScrubber_CleanInputUnchanged(t *testing.T) {
	clean := encodedPNG(t)
	attempt := NewPNGScrubber().Scrub(clean, "image/png")
	if !attempt.OK() {
		t.Fatal(attempt.Err)
	}
	if !bytes.Equal(attempt.Blob.Data, clean) {
		t.Error("clean PNG was altered")
	}
}

func TestPNGScrubber_Malformed(t *testing.T) {
	good := withMetadata(t)

	badLength := append([]byte(nil), good...)
	// length field of the chunk after IHDR
	binary.BigEndian.PutUint32(badLength[33:], 0x7FFFFFF0)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"jpeg bytes", []byte{0xFF, 0xD8, 0xFF, 0xD9}, container.ErrSignature},
		{"empty", nil, container.ErrSignature},
		{"chunk past end", badLength, container.ErrTruncated},
		{"cut mid chunk", good[:40], container.ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempt := NewPNGScrubber().Scrub(tt.data, "image/png")
			if attempt.OK() {
				t.Fatal("Scrub() succeeded on malformed input")
			}
			if !errors.Is(attempt.Err, tt.want) {
				t.Errorf("error = %v, want %v", attempt.Err, tt.want)
			}
		})
	}
}

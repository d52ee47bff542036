package inspect

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/thvl3/scrubkit/pkg/container"
	"github.com/thvl3/scrubkit/pkg/imaging"
)

// tiffFixture lays out a little-endian TIFF block:
//
//	0   header, IFD0 at 8
//	8   IFD0: Make, Model, ExifIFD -> 68, GPSIFD -> 86
//	62  "Canon\0"
//	68  Exif IFD: ISO 400
//	86  GPS IFD: N 37/1 30/1 0/1, W 122/1 15/1 0/1
//	140 latitude rationals
//	164 longitude rationals
func tiffFixture() []byte {
	le := binary.LittleEndian
	b := make([]byte, 188)
	copy(b, "II\x2a\x00")
	le.PutUint32(b[4:], 8)

	entry := func(at int, tag, typ uint16, count, value uint32) {
		le.PutUint16(b[at:], tag)
		le.PutUint16(b[at+2:], typ)
		le.PutUint32(b[at+4:], count)
		le.PutUint32(b[at+8:], value)
	}
	rationals := func(at int, vals ...uint32) {
		for i, v := range vals {
			le.PutUint32(b[at+i*8:], v)
			le.PutUint32(b[at+i*8+4:], 1)
		}
	}

	le.PutUint16(b[8:], 4)
	entry(10, tagMake, typeASCII, 6, 62)
	entry(22, tagModel, typeASCII, 4, 0)
	copy(b[30:], "EOS\x00")
	entry(34, tagExifIFD, typeLong, 1, 68)
	entry(46, tagGPSIFD, typeLong, 1, 86)
	copy(b[62:], "Canon\x00")

	le.PutUint16(b[68:], 1)
	entry(70, tagISO, typeShort, 1, 400)

	le.PutUint16(b[86:], 4)
	entry(88, gpsLatitudeRef, typeASCII, 2, 0)
	copy(b[96:], "N\x00")
	entry(100, gpsLatitude, typeRational, 3, 140)
	entry(112, gpsLongitudeRef, typeASCII, 2, 0)
	copy(b[120:], "W\x00")
	entry(124, gpsLongitude, typeRational, 3, 164)

	rationals(140, 37, 30, 0)
	rationals(164, 122, 15, 0)
	return b
}

func jpegSegment(marker byte, payload []byte) []byte {
	n := len(payload) + 2
	return append([]byte{0xFF, marker, byte(n >> 8), byte(n)}, payload...)
}

func pngChunk(kind string, payload []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(len(payload)))
	buf.WriteString(kind)
	buf.Write(payload)
	crc := crc32.NewIEEE()
	crc.Write([]byte(kind))
	crc.Write(payload)
	binary.Write(&buf, binary.BigEndian, crc.Sum32())
	return buf.Bytes()
}

func jpegFixture(t *testing.T) []byte {
	t.Helper()
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, image.NewGray(image.Rect(0, 0, 8, 4)), nil); err != nil {
		t.Fatal(err)
	}
	clean := enc.Bytes()

	var buf bytes.Buffer
	buf.Write(clean[:2])
	buf.Write(jpegSegment(0xE1, append([]byte("Exif\x00\x00"), tiffFixture()...)))
	buf.Write(jpegSegment(0xE1, []byte(idXMP+"\x00<x:xmpmeta/>")))
	buf.Write(jpegSegment(0xFE, []byte("hello")))
	buf.Write(jpegSegment(0xE2, []byte("ICC_PROFILE\x00\x01\x01data")))
	buf.Write(clean[2:])
	buf.WriteString("SECRET")
	return buf.Bytes()
}

func pngFixture(t *testing.T) []byte {
	t.Helper()
	var enc bytes.Buffer
	if err := png.Encode(&enc, image.NewGray(image.Rect(0, 0, 5, 3))); err != nil {
		t.Fatal(err)
	}
	clean := enc.Bytes()

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	zw.Write([]byte("compressed words"))
	zw.Close()

	ihdrEnd := 8 + 25
	var buf bytes.Buffer
	buf.Write(clean[:ihdrEnd])
	buf.Write(pngChunk("eXIf", tiffFixture()))
	buf.Write(pngChunk("iCCP", []byte("sRGB\x00\x00profile")))
	buf.Write(pngChunk("tEXt", []byte("Author\x00someone")))
	buf.Write(pngChunk("zTXt", append([]byte("Comment\x00\x00"), z.Bytes()...)))
	buf.Write(pngChunk("iTXt", []byte("Title\x00\x00\x00\x00\x00hello")))
	buf.Write(pngChunk("iTXt", []byte(xmpKeyword+"\x00\x00\x00\x00\x00<x:xmpmeta/>")))
	buf.Write(clean[ihdrEnd:])
	buf.WriteString("TRAIL")
	return buf.Bytes()
}

func TestParseEXIF(t *testing.T) {
	ex, err := parseEXIF(tiffFixture())
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"Make":            "Canon",
		"Model":           "EOS",
		"ISO":             "400",
		"GPSLatitudeRef":  "N",
		"GPSLatitude":     "37 30 0",
		"GPSLongitudeRef": "W",
		"GPSLongitude":    "122 15 0",
	}
	for k, v := range want {
		if ex.Tags[k] != v {
			t.Errorf("tag %s = %q, want %q", k, ex.Tags[k], v)
		}
	}
	if !ex.HasGPS {
		t.Error("GPS IFD not detected")
	}
	lat, lon, ok := ex.Location()
	if !ok || lat != 37.5 || lon != -122.25 {
		t.Errorf("Location() = %v, %v, %v", lat, lon, ok)
	}
}

func TestParseEXIF_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte("II\x2a\x00")},
		{"byte order", []byte("XX\x2a\x00\x08\x00\x00\x00")},
		{"magic", []byte("II\x2b\x00\x08\x00\x00\x00")},
		{"ifd offset", []byte("II\x2a\x00\xff\x00\x00\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseEXIF(tt.data); !errors.Is(err, errTIFF) {
				t.Errorf("error = %v, want errTIFF", err)
			}
		})
	}
}

func TestInspect_JPEG(t *testing.T) {
	result, err := Inspect(jpegFixture(t), "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}

	if result.Width != 8 || result.Height != 4 {
		t.Errorf("dimensions = %dx%d, want 8x4", result.Width, result.Height)
	}
	if result.EXIF["Make"] != "Canon" || result.EXIF["ISO"] != "400" {
		t.Errorf("EXIF = %v", result.EXIF)
	}
	if !result.HasGPS || !result.HasXMP || !result.HasICC {
		t.Errorf("gps %v, xmp %v, icc %v", result.HasGPS, result.HasXMP, result.HasICC)
	}
	if result.TrailerLen != 6 {
		t.Errorf("trailer = %d, want 6", result.TrailerLen)
	}
	if got := result.ScrubbableCount(); got != 3 {
		t.Errorf("ScrubbableCount() = %d, want 3", got)
	}

	categories := map[string]string{}
	for _, f := range result.Findings {
		categories[f.Category] = f.Details
	}
	if categories[CategoryComment] != "hello" {
		t.Errorf("comment finding = %q", categories[CategoryComment])
	}
	if categories[CategoryGPS] != "37.500000, -122.250000" {
		t.Errorf("gps finding = %q", categories[CategoryGPS])
	}

	if result.Segments[0].Kind != "SOI" || result.Segments[1].Signature != "Exif" {
		t.Errorf("first segments = %+v", result.Segments[:2])
	}
	last := result.Segments[len(result.Segments)-1]
	if last.Kind != "SOS" || last.Scrubbed {
		t.Errorf("last segment = %+v", last)
	}
}

func TestInspect_PNG(t *testing.T) {
	result, err := Inspect(pngFixture(t), "image/png")
	if err != nil {
		t.Fatal(err)
	}

	if result.Width != 5 || result.Height != 3 {
		t.Errorf("dimensions = %dx%d, want 5x3", result.Width, result.Height)
	}
	wantText := map[string]string{
		"Author":  "someone",
		"Comment": "compressed words",
		"Title":   "hello",
	}
	for k, v := range wantText {
		if result.Text[k] != v {
			t.Errorf("text %s = %q, want %q", k, result.Text[k], v)
		}
	}
	if _, ok := result.Text[xmpKeyword]; ok {
		t.Error("XMP packet listed as plain text")
	}
	if !result.HasGPS || !result.HasXMP || !result.HasICC {
		t.Errorf("gps %v, xmp %v, icc %v", result.HasGPS, result.HasXMP, result.HasICC)
	}
	if result.EXIF["Model"] != "EOS" {
		t.Errorf("EXIF = %v", result.EXIF)
	}
	if result.TrailerLen != 5 {
		t.Errorf("trailer = %d, want 5", result.TrailerLen)
	}
	if got := result.ScrubbableCount(); got != 6 {
		t.Errorf("ScrubbableCount() = %d, want 6", got)
	}
	if last := result.Segments[len(result.Segments)-1]; last.Kind != "IEND" {
		t.Errorf("inventory ends with %s, want IEND", last.Kind)
	}
}

func TestInspect_Malformed(t *testing.T) {
	data := jpegFixture(t)
	// cut inside the EXIF segment
	result, err := Inspect(data[:40], "image/jpeg")
	if !errors.Is(err, container.ErrTruncated) {
		t.Fatalf("error = %v, want ErrTruncated", err)
	}
	if result == nil || len(result.Segments) != 1 {
		t.Fatalf("partial inventory = %+v", result)
	}
}

func TestInspect_TypeResolution(t *testing.T) {
	// declared type unknown, container sniffed
	result, err := Inspect(pngFixture(t), "application/octet-stream")
	if err != nil {
		t.Fatal(err)
	}
	if result.Width != 5 {
		t.Errorf("width = %d", result.Width)
	}

	if _, err := Inspect([]byte("GIF89a...."), "image/gif"); !errors.Is(err, imaging.ErrUnsupportedType) {
		t.Errorf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		data []byte
		want string
	}{
		{container.PNGSignature, "image/png"},
		{[]byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg"},
		{[]byte{0xFF, 0xD8}, ""},
		{[]byte("GIF89a"), ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := Sniff(tt.data); got != tt.want {
			t.Errorf("Sniff(% x) = %q, want %q", tt.data, got, tt.want)
		}
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		payload string
		wantErr bool
	}{
		{"no separator", "tEXt", "Author", true},
		{"bad method", "zTXt", "k\x00\x01xx", true},
		{"bad stream", "zTXt", "k\x00\x00notzlib", true},
		{"short itxt", "iTXt", "k\x00\x00", true},
		{"itxt no lang", "iTXt", "k\x00\x00\x00en", true},
		{"plain", "tEXt", "k\x00v", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := decodeText(tt.kind, []byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Errorf("decodeText() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPNGChunkName(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"IHDR", "Image header"},
		{"tEXt", "Text"},
		{"prVt", "Unknown ancillary chunk"},
		{"ABCD", "Unknown critical chunk"},
	}
	for _, tt := range tests {
		if got := pngChunkName(tt.kind); got != tt.want {
			t.Errorf("pngChunkName(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestInspect_PNGPrivateChunk(t *testing.T) {
	var enc bytes.Buffer
	if err := png.Encode(&enc, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	clean := enc.Bytes()
	ihdrEnd := 8 + 25

	var buf bytes.Buffer
	buf.Write(clean[:ihdrEnd])
	buf.Write(pngChunk("prVt", []byte("vendor data")))
	buf.Write(clean[ihdrEnd:])

	result, err := Inspect(buf.Bytes(), "image/png")
	if err != nil {
		t.Fatal(err)
	}
	seg := result.Segments[2]
	if seg.Kind != "prVt" || seg.Name != "Unknown ancillary chunk" || seg.Scrubbed {
		t.Errorf("segment = %+v", seg)
	}
}

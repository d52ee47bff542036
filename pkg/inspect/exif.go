package inspect

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errTIFF = errors.New("invalid TIFF structure")

// EXIF tag IDs read by the inventory
const (
	tagMake             = 0x010F
	tagModel            = 0x0110
	tagOrientation      = 0x0112
	tagSoftware         = 0x0131
	tagDateTime         = 0x0132
	tagArtist           = 0x013B
	tagCopyright        = 0x8298
	tagExposureTime     = 0x829A
	tagFNumber          = 0x829D
	tagExifIFD          = 0x8769
	tagGPSIFD           = 0x8825
	tagISO              = 0x8827
	tagDateTimeOriginal = 0x9003
	tagLensModel        = 0xA434
	tagBodySerial       = 0xA431
)

// GPS IFD tag IDs
const (
	gpsLatitudeRef  = 0x0001
	gpsLatitude     = 0x0002
	gpsLongitudeRef = 0x0003
	gpsLongitude    = 0x0004
	gpsAltitudeRef  = 0x0005
	gpsAltitude     = 0x0006
	gpsTimeStamp    = 0x0007
	gpsDateStamp    = 0x001D
)

// TIFF field types
const (
	typeByte      = 1
	typeASCII     = 2
	typeShort     = 3
	typeLong      = 4
	typeRational  = 5
	typeUndefined = 7
	typeSLong     = 9
	typeSRational = 10
)

var exifTagNames = map[uint16]string{
	tagMake:             "Make",
	tagModel:            "Model",
	tagOrientation:      "Orientation",
	tagSoftware:         "Software",
	tagDateTime:         "DateTime",
	tagArtist:           "Artist",
	tagCopyright:        "Copyright",
	tagExposureTime:     "ExposureTime",
	tagFNumber:          "FNumber",
	tagISO:              "ISO",
	tagDateTimeOriginal: "DateTimeOriginal",
	tagLensModel:        "LensModel",
	tagBodySerial:       "BodySerialNumber",
}

var gpsTagNames = map[uint16]string{
	gpsLatitudeRef:  "GPSLatitudeRef",
	gpsLatitude:     "GPSLatitude",
	gpsLongitudeRef: "GPSLongitudeRef",
	gpsLongitude:    "GPSLongitude",
	gpsAltitudeRef:  "GPSAltitudeRef",
	gpsAltitude:     "GPSAltitude",
	gpsTimeStamp:    "GPSTimeStamp",
	gpsDateStamp:    "GPSDateStamp",
}

// maxIFDDepth bounds pointer chasing through nested IFDs
const maxIFDDepth = 4

// exifData is the decoded subset of an EXIF block
type exifData struct {
	Tags   map[string]string
	HasGPS bool

	lat, lon []float64
}

// Location returns decimal degrees when both coordinates are present
func (e *exifData) Location() (lat, lon float64, ok bool) {
	if len(e.lat) != 3 || len(e.lon) != 3 {
		return 0, 0, false
	}
	lat = e.lat[0] + e.lat[1]/60 + e.lat[2]/3600
	lon = e.lon[0] + e.lon[1]/60 + e.lon[2]/3600
	if strings.EqualFold(e.Tags["GPSLatitudeRef"], "S") {
		lat = -lat
	}
	if strings.EqualFold(e.Tags["GPSLongitudeRef"], "W") {
		lon = -lon
	}
	return lat, lon, true
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

type tiffReader struct {
	data  []byte
	order binary.ByteOrder
}

// parseEXIF decodes a TIFF structure as found after "Exif\0\0" in a JPEG
// APP1 segment or as the whole payload of a PNG eXIf chunk.
func parseEXIF(data []byte) (*exifData, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: header is %d bytes", errTIFF, len(data))
	}

	r := &tiffReader{data: data}
	switch string(data[:2]) {
	case "II":
		r.order = binary.LittleEndian
	case "MM":
		r.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: byte order %q", errTIFF, data[:2])
	}
	if r.order.Uint16(data[2:4]) != 42 {
		return nil, fmt.Errorf("%w: bad magic", errTIFF)
	}

	ex := &exifData{Tags: make(map[string]string)}
	first := int(r.order.Uint32(data[4:8]))
	if err := r.walk(ex, first, exifTagNames, map[int]bool{}, 0); err != nil {
		return ex, err
	}
	return ex, nil
}

func (r *tiffReader) walk(ex *exifData, offset int, names map[uint16]string, visited map[int]bool, depth int) error {
	if depth > maxIFDDepth || visited[offset] {
		return nil
	}
	visited[offset] = true

	entries, err := r.readIFD(offset)
	if err != nil {
		return err
	}

	for _, e := range entries {
		switch e.tag {
		case tagExifIFD:
			if ptr, ok := r.uint(e); ok {
				if err := r.walk(ex, int(ptr), exifTagNames, visited, depth+1); err != nil {
					return err
				}
			}
			continue
		case tagGPSIFD:
			ex.HasGPS = true
			if ptr, ok := r.uint(e); ok {
				if err := r.walk(ex, int(ptr), gpsTagNames, visited, depth+1); err != nil {
					return err
				}
			}
			continue
		}

		name, ok := names[e.tag]
		if !ok {
			continue
		}
		ex.Tags[name] = r.format(e)

		if names[gpsLatitude] != "" {
			switch e.tag {
			case gpsLatitude:
				ex.lat = r.rationals(e)
			case gpsLongitude:
				ex.lon = r.rationals(e)
			}
		}
	}
	return nil
}

func (r *tiffReader) readIFD(offset int) ([]ifdEntry, error) {
	if offset < 8 || offset+2 > len(r.data) {
		return nil, fmt.Errorf("%w: IFD offset %d out of bounds", errTIFF, offset)
	}
	n := int(r.order.Uint16(r.data[offset:]))
	pos := offset + 2

	entries := make([]ifdEntry, 0, n)
	for i := 0; i < n; i++ {
		if pos+12 > len(r.data) {
			return entries, fmt.Errorf("%w: IFD entry %d truncated", errTIFF, i)
		}
		e := ifdEntry{
			tag:   r.order.Uint16(r.data[pos:]),
			typ:   r.order.Uint16(r.data[pos+2:]),
			count: r.order.Uint32(r.data[pos+4:]),
		}

		size := int64(typeSize(e.typ)) * int64(e.count)
		if size <= 4 {
			e.value = r.data[pos+8 : pos+8+int(size)]
		} else {
			at := int64(r.order.Uint32(r.data[pos+8:]))
			if at+size <= int64(len(r.data)) {
				e.value = r.data[at : at+size]
			}
		}

		entries = append(entries, e)
		pos += 12
	}
	return entries, nil
}

func typeSize(typ uint16) int {
	switch typ {
	case typeShort:
		return 2
	case typeLong, typeSLong:
		return 4
	case typeRational, typeSRational:
		return 8
	default:
		return 1
	}
}

func (r *tiffReader) uint(e ifdEntry) (uint32, bool) {
	switch {
	case e.typ == typeShort && len(e.value) >= 2:
		return uint32(r.order.Uint16(e.value)), true
	case (e.typ == typeLong || e.typ == typeSLong) && len(e.value) >= 4:
		return r.order.Uint32(e.value), true
	}
	return 0, false
}

func (r *tiffReader) rationals(e ifdEntry) []float64 {
	if e.typ != typeRational && e.typ != typeSRational {
		return nil
	}
	var out []float64
	for i := 0; i+8 <= len(e.value); i += 8 {
		num := r.order.Uint32(e.value[i:])
		den := r.order.Uint32(e.value[i+4:])
		if den == 0 {
			return nil
		}
		if e.typ == typeSRational {
			out = append(out, float64(int32(num))/float64(int32(den)))
		} else {
			out = append(out, float64(num)/float64(den))
		}
	}
	return out
}

// format renders a tag value as text
func (r *tiffReader) format(e ifdEntry) string {
	switch e.typ {
	case typeASCII:
		return strings.TrimSpace(strings.TrimRight(string(e.value), "\x00"))

	case typeShort:
		parts := make([]string, 0, len(e.value)/2)
		for i := 0; i+2 <= len(e.value); i += 2 {
			parts = append(parts, strconv.Itoa(int(r.order.Uint16(e.value[i:]))))
		}
		return strings.Join(parts, " ")

	case typeLong, typeSLong:
		parts := make([]string, 0, len(e.value)/4)
		for i := 0; i+4 <= len(e.value); i += 4 {
			v := r.order.Uint32(e.value[i:])
			if e.typ == typeSLong {
				parts = append(parts, strconv.Itoa(int(int32(v))))
			} else {
				parts = append(parts, strconv.FormatUint(uint64(v), 10))
			}
		}
		return strings.Join(parts, " ")

	case typeRational, typeSRational:
		parts := make([]string, 0, len(e.value)/8)
		for i := 0; i+8 <= len(e.value); i += 8 {
			num := int64(r.order.Uint32(e.value[i:]))
			den := int64(r.order.Uint32(e.value[i+4:]))
			if e.typ == typeSRational {
				num, den = int64(int32(num)), int64(int32(den))
			}
			if den != 0 && num%den == 0 {
				parts = append(parts, strconv.FormatInt(num/den, 10))
			} else {
				parts = append(parts, fmt.Sprintf("%d/%d", num, den))
			}
		}
		return strings.Join(parts, " ")

	case typeByte, typeUndefined:
		if len(e.value) <= 8 {
			parts := make([]string, len(e.value))
			for i, b := range e.value {
				parts[i] = strconv.Itoa(int(b))
			}
			return strings.Join(parts, " ")
		}
		return fmt.Sprintf("%d bytes", len(e.value))
	}
	return ""
}

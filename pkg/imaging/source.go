package imaging

import (
	"fmt"
	"strings"

	"github.com/vincent-petithory/dataurl"
)

// IsDataURL reports whether s looks like a data: URL.
func IsDataURL(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}

// ParseDataURL decodes a data: URL into its bytes and declared mime type.
func ParseDataURL(s string) ([]byte, string, error) {
	du, err := dataurl.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, "", fmt.Errorf("%w: data URL: %v", ErrDecode, err)
	}
	return du.Data, NormalizeType(du.MediaType.ContentType()), nil
}

// EncodeDataURL renders data as a base64 data: URL of the given type.
func EncodeDataURL(data []byte, mimeType string) string {
	return dataurl.New(data, NormalizeType(mimeType)).String()
}

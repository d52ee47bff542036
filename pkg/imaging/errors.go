package imaging

import "errors"

var (
	// ErrUnsupportedType is returned when no codec handles the mime type.
	ErrUnsupportedType = errors.New("imaging: unsupported type")

	// ErrDecode indicates the source bytes could not be decoded to pixels.
	ErrDecode = errors.New("imaging: decode failed")

	// ErrEncode indicates the pixel buffer could not be encoded.
	ErrEncode = errors.New("imaging: encode failed")
)

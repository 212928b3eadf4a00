package imaging

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const base64Marker = ";base64,"

// DataURL builds a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + base64Marker + base64.StdEncoding.EncodeToString(data)
}

func PNGDataURL(data []byte) string {
	return DataURL("image/png", data)
}

func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// ParseDataURL splits a base64 data URL into its media type and payload.
func ParseDataURL(s string) (string, []byte, error) {
	if !IsDataURL(s) {
		return "", nil, fmt.Errorf("%w: not a data url", ErrInvalidImage)
	}

	head, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), base64Marker)
	if !ok {
		return "", nil, fmt.Errorf("%w: data url is not base64 encoded", ErrInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return head, data, nil
}

// DecodeImageString accepts either a data URL or bare base64 and decodes the image.
func DecodeImageString(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if IsDataURL(s) {
		_, data, err := ParseDataURL(s)
		return data, err
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return data, nil
}

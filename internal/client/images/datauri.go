package images

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrNotDataURI = errors.New("not a base64 data URI")

const dataPrefix = "data:"

// IsDataURI reports whether ref embeds its bytes rather than pointing to a URL.
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, dataPrefix)
}

// EncodeDataURI returns data:<mediaType>;base64,<payload>.
func EncodeDataURI(mediaType string, data []byte) string {
	return dataPrefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI decodes a base64 data URI into its media type and bytes.
func ParseDataURI(ref string) (string, []byte, error) {
	if !IsDataURI(ref) {
		return "", nil, ErrNotDataURI
	}
	meta, payload, ok := strings.Cut(ref[len(dataPrefix):], ",")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, ErrNotDataURI
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotDataURI, err)
	}
	return mediaType, data, nil
}

// extension picks a file extension for an image media type.
func extension(mediaType string) string {
	switch mediaType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".bin"
}

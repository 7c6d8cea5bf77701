package images

import (
	"mime"
	"strings"
)

const DefaultMediaType = "application/octet-stream"

// ParseMediaType normalizes a stored content type for a response header.
// Anything absent or malformed becomes application/octet-stream; it never fails.
func ParseMediaType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return DefaultMediaType
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return DefaultMediaType
	}
	// mime accepts bare tokens like "image" (valid for dispositions, not here)
	major, minor, ok := strings.Cut(mediaType, "/")
	if !ok || major == "" || minor == "" || strings.Contains(minor, "/") {
		return DefaultMediaType
	}
	formatted := mime.FormatMediaType(mediaType, params)
	if formatted == "" {
		return DefaultMediaType
	}
	return formatted
}

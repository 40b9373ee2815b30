package services

import "strings"

const pngDataURLPrefix = "data:image/png;base64,"

// NormalizeImage accepts a data URL or raw base64 payload and returns the stored data URL form.
// The payload itself is opaque; only its encoded length is checked against maxLen.
func NormalizeImage(input string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", ErrInvalidImage
	}
	payload := trimmed
	if strings.HasPrefix(trimmed, "data:") {
		_, after, found := strings.Cut(trimmed, ",")
		if !found {
			return "", ErrInvalidImage
		}
		payload = after
	}
	if payload == "" {
		return "", ErrInvalidImage
	}
	if maxLen > 0 && len(payload) > maxLen {
		return "", ErrPayloadTooLarge
	}
	return pngDataURLPrefix + payload, nil
}

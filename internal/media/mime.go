package media

import (
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"folio/internal/models"
)

const fallbackMediaType = "application/octet-stream"

func normalizeMediaType(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	parsed, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return "", fmt.Errorf("invalid media type %q", raw)
	}
	return strings.ToLower(strings.TrimSpace(parsed)), nil
}

// resolveMediaType prefers the declared type and falls back to sniffing the payload.
func resolveMediaType(declared string, data []byte) (string, models.MediaKind, error) {
	mediaType, err := normalizeMediaType(declared)
	if err != nil {
		return "", "", err
	}
	if mediaType == "" || mediaType == fallbackMediaType {
		sniffed, err := normalizeMediaType(mimetype.Detect(data).String())
		if err == nil && sniffed != "" {
			mediaType = sniffed
		}
	}
	if mediaType == "" {
		mediaType = fallbackMediaType
	}
	return mediaType, models.KindFromMIME(mediaType), nil
}

func normalizeAllowedTypes(raw []string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, value := range raw {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		// Bare families such as "image/*" are kept as prefixes.
		if strings.HasSuffix(value, "/*") {
			out[strings.TrimSuffix(value, "*")] = struct{}{}
			continue
		}
		mediaType, err := normalizeMediaType(value)
		if err != nil || mediaType == "" {
			continue
		}
		out[mediaType] = struct{}{}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mediaTypeAllowed(allowed map[string]struct{}, mediaType string) bool {
	if len(allowed) == 0 {
		return true
	}
	if _, ok := allowed[mediaType]; ok {
		return true
	}
	if i := strings.IndexByte(mediaType, '/'); i > 0 {
		if _, ok := allowed[mediaType[:i+1]]; ok {
			return true
		}
	}
	return false
}

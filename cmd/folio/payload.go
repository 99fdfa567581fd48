package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"folio/internal/media"
	"folio/internal/models"
)

// loadFilePayload reads a local file into a payload. The MIME type is left for the
// media store to sniff.
func loadFilePayload(path string, limit int64) (models.FilePayload, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if limit > 0 && info.Size() > limit {
		return nil, models.ValidationError("cli.payload", "%s exceeds the %d byte limit", filepath.Base(path), limit)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return models.BytesPayload{FileName: filepath.Base(path), Data: data}, nil
}

// parseMediaArg turns `SOURCE[::ALT]` into a media input. Sources that look like
// locators are kept as external references; anything else is read from disk.
func parseMediaArg(raw string, limit int64) (models.MediaInput, error) {
	source, alt, _ := strings.Cut(raw, "::")
	source = strings.TrimSpace(source)
	in := models.MediaInput{Alt: strings.TrimSpace(alt)}
	if source == "" {
		return in, fmt.Errorf("media source is required")
	}
	if isLocator(source) {
		in.Locator = source
		in.Kind = guessKindFromName(source)
		return in, nil
	}
	payload, err := loadFilePayload(source, limit)
	if err != nil {
		return in, err
	}
	in.Payload = payload
	in.Name = payload.Name()
	return in, nil
}

func parseMediaArgs(raws []string, limit int64) ([]models.MediaInput, error) {
	inputs := make([]models.MediaInput, 0, len(raws))
	for _, raw := range raws {
		in, err := parseMediaArg(raw, limit)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func isLocator(source string) bool {
	return strings.Contains(source, "://") || strings.HasPrefix(source, "data:") || media.IsSessionLocator(source)
}

func guessKindFromName(source string) models.MediaKind {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".mp4", ".webm", ".mov", ".m4v", ".ogv":
		return models.MediaKindVideo
	default:
		return models.MediaKindImage
	}
}

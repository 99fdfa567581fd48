package models

import (
	"fmt"
	"strings"
)

// MediaKind describes how a stored payload is rendered.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
	MediaKindFile  MediaKind = "file"
)

var validMediaKinds = map[MediaKind]struct{}{
	MediaKindImage: {},
	MediaKindVideo: {},
	MediaKindFile:  {},
}

// ParseMediaKind validates a raw kind string.
func ParseMediaKind(raw string) (MediaKind, error) {
	value := MediaKind(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("media kind is required")
	}
	if _, ok := validMediaKinds[value]; !ok {
		return "", fmt.Errorf("invalid media kind: %s", value)
	}
	return value, nil
}

// IsVisual reports whether the kind can appear in a publication gallery.
func (k MediaKind) IsVisual() bool {
	return k == MediaKindImage || k == MediaKindVideo
}

// KindFromMIME maps a MIME type to a media kind.
func KindFromMIME(mimeType string) MediaKind {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return MediaKindImage
	case strings.HasPrefix(mimeType, "video/"):
		return MediaKindVideo
	default:
		return MediaKindFile
	}
}

// FilePayload is an already-read file handed to the core by the presentation layer.
type FilePayload interface {
	Name() string
	MimeType() string
	Size() int64
	ReadAll() ([]byte, error)
}

// BytesPayload is an in-memory FilePayload.
type BytesPayload struct {
	FileName string
	MIME     string
	Data     []byte
}

var _ FilePayload = BytesPayload{}

func (p BytesPayload) Name() string     { return p.FileName }
func (p BytesPayload) MimeType() string { return p.MIME }
func (p BytesPayload) Size() int64      { return int64(len(p.Data)) }

// ReadAll returns a copy of the payload bytes.
func (p BytesPayload) ReadAll() ([]byte, error) {
	out := make([]byte, len(p.Data))
	copy(out, p.Data)
	return out, nil
}

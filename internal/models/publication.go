package models

import (
	"fmt"
	"maps"
	"strings"
)

// AttachmentKind tags the single-file attachment slot of a publication.
type AttachmentKind string

const (
	AttachmentNone AttachmentKind = "none"
	AttachmentFile AttachmentKind = "file"
)

// FileAttachment is the tagged single-file slot (a document, a flyer).
// Locator, Name, MimeType and BlobID are only meaningful when Kind is AttachmentFile.
type FileAttachment struct {
	Kind     AttachmentKind `json:"kind" yaml:"kind"`
	Locator  string         `json:"locator,omitempty" yaml:"locator,omitempty"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	MimeType string         `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	BlobID   string         `json:"blob_id,omitempty" yaml:"blob_id,omitempty"`
}

// NoAttachment returns the empty attachment variant.
func NoAttachment() FileAttachment {
	return FileAttachment{Kind: AttachmentNone}
}

// IsNone reports whether the slot is empty.
func (a FileAttachment) IsNone() bool {
	return a.Kind == "" || a.Kind == AttachmentNone
}

// Normalize folds the zero value into AttachmentNone and drops stray fields.
func (a FileAttachment) Normalize() FileAttachment {
	if a.IsNone() {
		return NoAttachment()
	}
	return a
}

// Validate checks the variant is well formed.
func (a FileAttachment) Validate() error {
	switch a.Kind {
	case "", AttachmentNone:
		return nil
	case AttachmentFile:
		if strings.TrimSpace(a.Locator) == "" {
			return fmt.Errorf("file attachment locator is required")
		}
		return nil
	default:
		return fmt.Errorf("invalid attachment kind: %s", a.Kind)
	}
}

// ImageRef points at the hero image of a publication.
type ImageRef struct {
	Locator string `json:"locator" yaml:"locator"`
	BlobID  string `json:"blob_id,omitempty" yaml:"blob_id,omitempty"`
}

// MediaRef is one gallery entry. BlobID is set iff the blob store owns the payload;
// entries without it are read-only external locators.
type MediaRef struct {
	Kind    MediaKind      `json:"kind" yaml:"kind"`
	Locator string         `json:"locator" yaml:"locator"`
	Name    string         `json:"name,omitempty" yaml:"name,omitempty"`
	Alt     string         `json:"alt,omitempty" yaml:"alt,omitempty"`
	BlobID  string         `json:"blob_id,omitempty" yaml:"blob_id,omitempty"`
	Meta    map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Owned reports whether the blob store owns the entry's payload.
func (m MediaRef) Owned() bool {
	return m.BlobID != ""
}

// Publication is one stored publication record.
type Publication struct {
	ID           string         `json:"id" yaml:"id"`
	Title        string         `json:"title" yaml:"title"`
	Description  string         `json:"description" yaml:"description"`
	Content      string         `json:"content" yaml:"content"`
	Category     string         `json:"category" yaml:"category"`
	Author       string         `json:"author" yaml:"author"`
	Date         string         `json:"date" yaml:"date"`
	PrimaryImage *ImageRef      `json:"primary_image,omitempty" yaml:"primary_image,omitempty"`
	File         FileAttachment `json:"file" yaml:"file"`
	Media        []MediaRef     `json:"media,omitempty" yaml:"media,omitempty"`
}

// Clone returns a deep copy safe to hand out of a store.
func (p Publication) Clone() Publication {
	out := p
	if p.PrimaryImage != nil {
		img := *p.PrimaryImage
		out.PrimaryImage = &img
	}
	if p.Media != nil {
		out.Media = make([]MediaRef, len(p.Media))
		for i, m := range p.Media {
			if m.Meta != nil {
				m.Meta = maps.Clone(m.Meta)
			}
			out.Media[i] = m
		}
	}
	return out
}

// OwnedMediaBlobIDs lists blob ids of owned gallery entries in order.
func (p Publication) OwnedMediaBlobIDs() []string {
	var ids []string
	for _, m := range p.Media {
		if m.Owned() {
			ids = append(ids, m.BlobID)
		}
	}
	return ids
}

// MediaInput is one gallery item in a draft. Payload-bearing items are stored in the
// blob store; items with only a Locator are kept as external, read-only references.
type MediaInput struct {
	Kind    MediaKind
	Locator string
	Name    string
	Alt     string
	Payload FilePayload
	Meta    map[string]any
}

// Draft is the input of a publication create.
type Draft struct {
	Title        string
	Description  string
	Content      string
	Category     string
	Author       string
	Date         string
	PrimaryImage string
	File         FilePayload
	Media        []MediaInput
}

// Changes is a partial publication update. Nil pointers leave fields untouched.
// Media replaces the gallery when non-nil or when ReplaceMedia is set.
type Changes struct {
	Title        *string
	Description  *string
	Content      *string
	Category     *string
	Author       *string
	Date         *string
	PrimaryImage *string
	File         FilePayload
	Media        []MediaInput
	ReplaceMedia bool
}

// ReplacesMedia reports whether the update carries a new gallery.
func (c Changes) ReplacesMedia() bool {
	return c.ReplaceMedia || c.Media != nil
}

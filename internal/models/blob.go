package models

import (
	"strings"
	"time"
)

// Blob is the durable metadata row of one stored media payload.
type Blob struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	Kind      MediaKind `json:"kind"`
	SHA256    string    `json:"sha256"`
	SizeBytes int64     `json:"size_bytes"`
	BlobKey   string    `json:"blob_key"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentOwnerTag is the owner tag used for a publication's single-file attachment.
// It keeps the attachment out of the publication's media listing.
func AttachmentOwnerTag(publicationID string) string {
	return publicationID + attachmentOwnerSuffix
}

// IsAttachmentOwnerTag reports whether ownerID was built by AttachmentOwnerTag.
func IsAttachmentOwnerTag(ownerID string) bool {
	return len(ownerID) > len(attachmentOwnerSuffix) && strings.HasSuffix(ownerID, attachmentOwnerSuffix)
}

const attachmentOwnerSuffix = "/file"

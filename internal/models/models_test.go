package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseMediaKind(t *testing.T) {
	got, err := ParseMediaKind(" IMAGE ")
	if err != nil {
		t.Fatalf("parse kind: %v", err)
	}
	if got != MediaKindImage {
		t.Fatalf("expected %q, got %q", MediaKindImage, got)
	}

	if _, err := ParseMediaKind("audio"); err == nil {
		t.Fatal("expected invalid kind error")
	}
}

func TestKindFromMIME(t *testing.T) {
	tests := map[string]MediaKind{
		"image/png":       MediaKindImage,
		"Video/MP4":       MediaKindVideo,
		"application/pdf": MediaKindFile,
		"":                MediaKindFile,
	}
	for mimeType, want := range tests {
		if got := KindFromMIME(mimeType); got != want {
			t.Fatalf("KindFromMIME(%q): expected %q, got %q", mimeType, want, got)
		}
	}
}

func TestParseReactionType(t *testing.T) {
	got, err := ParseReactionType("Dislike")
	if err != nil {
		t.Fatalf("parse reaction: %v", err)
	}
	if got != ReactionDislike {
		t.Fatalf("expected dislike, got %q", got)
	}
	if _, err := ParseReactionType("love"); err == nil {
		t.Fatal("expected invalid reaction error")
	}
}

func TestFileAttachmentVariant(t *testing.T) {
	var zero FileAttachment
	if !zero.IsNone() {
		t.Fatal("expected zero attachment to be none")
	}
	if got := zero.Normalize(); got.Kind != AttachmentNone {
		t.Fatalf("expected normalized kind none, got %q", got.Kind)
	}

	file := FileAttachment{Kind: AttachmentFile}
	if err := file.Validate(); err == nil {
		t.Fatal("expected missing locator error")
	}
	file.Locator = "session:abc"
	if err := file.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestPublicationCloneIsDeep(t *testing.T) {
	pub := Publication{
		ID:           "p1",
		PrimaryImage: &ImageRef{Locator: "asset://a.jpg"},
		Media:        []MediaRef{{Kind: MediaKindImage, Locator: "x", BlobID: "b1", Meta: map[string]any{"k": "v"}}},
	}
	clone := pub.Clone()
	clone.PrimaryImage.Locator = "changed"
	clone.Media[0].Locator = "changed"
	clone.Media[0].Meta["k"] = "changed"

	if pub.PrimaryImage.Locator != "asset://a.jpg" {
		t.Fatal("primary image shared with clone")
	}
	if pub.Media[0].Locator != "x" || pub.Media[0].Meta["k"] != "v" {
		t.Fatal("media shared with clone")
	}
	if ids := pub.OwnedMediaBlobIDs(); len(ids) != 1 || ids[0] != "b1" {
		t.Fatalf("unexpected owned ids: %v", ids)
	}
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ValidationError("create", "title is required"))
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected validation match")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("unexpected not found match")
	}

	limited := RateLimitedError("comment", "slow down")
	if !errors.Is(limited, ErrValidation) || !errors.Is(limited, ErrRateLimited) {
		t.Fatal("expected rate limit to match validation and rate limited")
	}

	notFound := NotFoundError("delete", "publication", "p9")
	if KindOf(notFound) != KindNotFound {
		t.Fatalf("expected not_found kind, got %q", KindOf(notFound))
	}
	if notFound.Error() != `delete: publication "p9" not found` {
		t.Fatalf("unexpected message %q", notFound.Error())
	}

	if StorageError("persist", nil) != nil {
		t.Fatal("expected nil storage error for nil input")
	}
	if KindOf(StorageError("persist", notFound)) != KindNotFound {
		t.Fatal("expected classified errors to pass through StorageError")
	}
}

func TestBytesPayloadReadAllCopies(t *testing.T) {
	p := BytesPayload{FileName: "a.png", MIME: "image/png", Data: []byte("abc")}
	data, err := p.ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	data[0] = 'z'
	if string(p.Data) != "abc" {
		t.Fatal("ReadAll must not alias payload data")
	}
	if p.Size() != 3 {
		t.Fatalf("expected size 3, got %d", p.Size())
	}
}

func TestIsAttachmentOwnerTag(t *testing.T) {
	tests := map[string]bool{
		AttachmentOwnerTag("pub1"): true,
		"pub1":                     false,
		"/file":                    false,
		"pub1/files":               false,
	}
	for owner, want := range tests {
		if got := IsAttachmentOwnerTag(owner); got != want {
			t.Fatalf("IsAttachmentOwnerTag(%q) = %v, want %v", owner, got, want)
		}
	}
}

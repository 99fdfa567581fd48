package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"folio/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestKVRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if _, ok, err := st.GetValue(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}

	if err := st.PutValues(ctx, []KeyValue{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}); err != nil {
		t.Fatalf("put values: %v", err)
	}
	if err := st.PutValues(ctx, []KeyValue{{Key: "a", Value: "3"}}, "b"); err != nil {
		t.Fatalf("overwrite and delete: %v", err)
	}

	got, ok, err := st.GetValue(ctx, "a")
	if err != nil || !ok || got != "3" {
		t.Fatalf("expected a=3, got %q ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := st.GetValue(ctx, "b"); ok {
		t.Fatal("expected b to be deleted")
	}
}

func TestPutValueIfAbsentKeepsFirstValue(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	first, err := st.PutValueIfAbsent(ctx, "visitor-id", "v1")
	if err != nil {
		t.Fatalf("first put: %v", err)
	}
	second, err := st.PutValueIfAbsent(ctx, "visitor-id", "v2")
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if first != "v1" || second != "v1" {
		t.Fatalf("expected v1 both times, got %q and %q", first, second)
	}
}

func TestMediaBlobLifecycle(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rows := []*models.Blob{
		{ID: "p1_a", OwnerID: "p1", Name: "a.png", MimeType: "image/png", Kind: models.MediaKindImage, SHA256: "aa", SizeBytes: 2, BlobKey: "sha256/aa/aa/aa", CreatedAt: now},
		{ID: "p1_b", OwnerID: "p1", Name: "b.mp4", MimeType: "video/mp4", Kind: models.MediaKindVideo, SHA256: "bb", SizeBytes: 3, BlobKey: "sha256/bb/bb/bb", CreatedAt: now},
		{ID: "p2_a", OwnerID: "p2", Name: "a.png", MimeType: "image/png", Kind: models.MediaKindImage, SHA256: "aa", SizeBytes: 2, BlobKey: "sha256/aa/aa/aa", CreatedAt: now},
	}
	for _, row := range rows {
		if err := st.InsertMediaBlob(ctx, row); err != nil {
			t.Fatalf("insert %s: %v", row.ID, err)
		}
	}

	dup := *rows[0]
	if err := st.InsertMediaBlob(ctx, &dup); !IsUniqueConstraint(err) {
		t.Fatalf("expected unique constraint error, got %v", err)
	}

	owned, err := st.ListMediaBlobsByOwner(ctx, "p1")
	if err != nil {
		t.Fatalf("list p1: %v", err)
	}
	if len(owned) != 2 || owned[0].ID != "p1_a" || owned[1].ID != "p1_b" {
		t.Fatalf("expected p1 blobs in insertion order, got %#v", owned)
	}
	if owned[1].Kind != models.MediaKindVideo || owned[1].Name != "b.mp4" {
		t.Fatalf("unexpected scanned row: %#v", owned[1])
	}

	owners, err := st.ListMediaBlobOwners(ctx)
	if err != nil {
		t.Fatalf("owners: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("expected 2 owners, got %v", owners)
	}

	deleted, lastRef, err := st.DeleteMediaBlob(ctx, "p1_a")
	if err != nil {
		t.Fatalf("delete p1_a: %v", err)
	}
	if deleted == nil || lastRef {
		t.Fatalf("expected shared key to remain referenced, deleted=%v lastRef=%v", deleted, lastRef)
	}

	deleted, lastRef, err = st.DeleteMediaBlob(ctx, "p2_a")
	if err != nil {
		t.Fatalf("delete p2_a: %v", err)
	}
	if deleted == nil || !lastRef {
		t.Fatalf("expected last reference, deleted=%v lastRef=%v", deleted, lastRef)
	}

	deleted, _, err = st.DeleteMediaBlob(ctx, "p2_a")
	if err != nil || deleted != nil {
		t.Fatalf("expected idempotent delete, deleted=%v err=%v", deleted, err)
	}

	keys, err := st.DeleteAllMediaBlobs(ctx)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if len(keys) != 1 || keys[0] != "sha256/bb/bb/bb" {
		t.Fatalf("unexpected keys: %v", keys)
	}
	if got, _ := st.GetMediaBlob(ctx, "p1_b"); got != nil {
		t.Fatalf("expected p1_b removed, got %#v", got)
	}
}

func TestInsertMediaBlobValidation(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	tests := []models.Blob{
		{OwnerID: "p1", BlobKey: "k"},
		{ID: "x", BlobKey: "k"},
		{ID: "x", OwnerID: "p1"},
		{ID: "x", OwnerID: "p1", BlobKey: "k", SizeBytes: -1},
	}
	for i := range tests {
		if err := st.InsertMediaBlob(ctx, &tests[i]); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

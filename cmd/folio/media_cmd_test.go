package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"folio/internal/models"
)

func TestPublicationsWithBlobs(t *testing.T) {
	pubs := []models.Publication{
		{ID: "plain"},
		{ID: "external", Media: []models.MediaRef{{Kind: models.MediaKindImage, Locator: "https://example.org/a.png"}}},
		{ID: "gallery", Media: []models.MediaRef{{Kind: models.MediaKindImage, BlobID: "gallery_1"}}},
		{ID: "doc", File: models.FileAttachment{Kind: models.AttachmentFile, BlobID: "doc/file_1"}},
	}

	got := publicationsWithBlobs(pubs)
	if strings.Join(got, ",") != "gallery,doc" {
		t.Fatalf("unexpected ids %v", got)
	}
}

func TestMediaClearWarnsAboutDanglingRecords(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	var created models.Publication
	err := withApp(ctx, cfg, func(a *app) error {
		var err error
		created, err = a.publications.Create(ctx, models.Draft{
			Title:       "Sortie au musée",
			Description: "Photos",
			Content:     "Classe de CM2.",
			Media: []models.MediaInput{{
				Payload: models.BytesPayload{FileName: "musee.png", Data: []byte("\x89PNG\r\n\x1a\n0000")},
			}},
		})
		return err
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	jsonOutput := false
	var stderr bytes.Buffer
	cmd := newMediaClearCmd(cfg, &jsonOutput)
	cmd.SetArgs([]string{"--yes"})
	cmd.SetErr(&stderr)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("media clear: %v", err)
	}
	if !strings.Contains(stderr.String(), created.ID) {
		t.Fatalf("expected warning naming %s, got %q", created.ID, stderr.String())
	}

	cmd = newMediaClearCmd(cfg, &jsonOutput)
	cmd.SetArgs([]string{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected clear without --yes to be refused")
	}
}

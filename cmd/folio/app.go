package main

import (
	"context"
	"fmt"
	"log/slog"

	"folio/internal/blobstore"
	"folio/internal/config"
	"folio/internal/ledger"
	"folio/internal/media"
	"folio/internal/publication"
	"folio/internal/settings"
	"folio/internal/store"
)

// app holds the services one CLI invocation works with.
type app struct {
	db           *store.Store
	media        *media.Store
	publications *publication.Store
	ledger       *ledger.Ledger
	settings     *settings.Store
}

func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := slog.Default()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}

	cas, err := blobstore.NewLocalCAS(cfg.BlobDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open blob dir %s: %w", cfg.BlobDir, err)
	}

	mediaStore := media.New(db, cas, logger, media.Options{
		MaxBytes:          max(cfg.Media.MaxMediaBytes, cfg.Media.MaxFileBytes),
		AllowedMediaTypes: cfg.Media.AllowedMediaTypes,
	})
	if err := mediaStore.Open(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	pubs := publication.New(db, mediaStore, logger, publication.Options{
		MaxMediaItems: cfg.Media.MaxMediaItems,
		MaxMediaBytes: cfg.Media.MaxMediaBytes,
		MaxFileBytes:  cfg.Media.MaxFileBytes,
	})
	if _, err := pubs.Load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &app{
		db:           db,
		media:        mediaStore,
		publications: pubs,
		ledger: ledger.New(db, db, logger, ledger.Options{
			CommentMaxLength:  cfg.Ledger.CommentMaxLength,
			AuthorMaxLength:   cfg.Ledger.AuthorMaxLength,
			CommentsPerMinute: cfg.Ledger.CommentsPerMinute,
			CommentBurst:      cfg.Ledger.CommentBurst,
		}),
		settings: settings.New(db, logger),
	}, nil
}

func (a *app) Close() error {
	if a == nil {
		return nil
	}
	return a.db.Close()
}

// withApp opens the services, runs fn and closes them.
func withApp(ctx context.Context, cfg *config.Config, fn func(*app) error) (err error) {
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(a)
}

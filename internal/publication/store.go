// Package publication is the durable, versioned store of publication records.
package publication

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"folio/internal/media"
	"folio/internal/models"
	"folio/internal/store"
)

const (
	// CurrentSchemaVersion is the record shape written by this package.
	CurrentSchemaVersion = 3

	schemaVersionKey = "publications-schema-version"
	legacyRecordsKey = "publications"

	defaultMaxMediaItems        = 10
	defaultMaxMediaBytes  int64 = 50 << 20
	defaultMaxFileBytes   int64 = 10 << 20
	defaultRehydrateLimit       = 4
)

func recordsKey(version int) string {
	return fmt.Sprintf("publications-v%d", version)
}

// BlobStore is the subset of the media store used for owned payloads.
type BlobStore interface {
	Store(ctx context.Context, payload models.FilePayload, ownerID string) (media.Stored, error)
	ResolveLocator(ctx context.Context, id string) (string, bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]media.Entry, error)
	Owners(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
	Release(locator string) bool
	Sweep(ctx context.Context, apply bool) (media.SweepResult, error)
}

var _ BlobStore = (*media.Store)(nil)

// Options configures limits and the seed set.
type Options struct {
	MaxMediaItems  int
	MaxMediaBytes  int64
	MaxFileBytes   int64
	RehydrateLimit int
	// Seed replaces the built-in sample set when non-nil.
	Seed []models.Publication
}

// Store holds the publication records in memory and persists every mutation.
type Store struct {
	kv     store.KVStore
	blobs  BlobStore
	logger *slog.Logger
	opts   Options

	mu        sync.Mutex
	records   []models.Publication
	ready     chan struct{}
	readyOnce sync.Once
}

// New constructs a record store. Nothing is read until Load.
func New(kv store.KVStore, blobs BlobStore, logger *slog.Logger, opts Options) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxMediaItems <= 0 {
		opts.MaxMediaItems = defaultMaxMediaItems
	}
	if opts.MaxMediaBytes <= 0 {
		opts.MaxMediaBytes = defaultMaxMediaBytes
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = defaultMaxFileBytes
	}
	if opts.RehydrateLimit <= 0 {
		opts.RehydrateLimit = defaultRehydrateLimit
	}
	return &Store{
		kv:     kv,
		blobs:  blobs,
		logger: logger.With("component", "publication"),
		opts:   opts,
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the first Load has completed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

func (s *Store) waitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns a snapshot of every record, most recent first.
func (s *Store) List(ctx context.Context) ([]models.Publication, error) {
	if err := s.waitReady(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.records), nil
}

// Get returns one record.
func (s *Store) Get(ctx context.Context, id string) (models.Publication, error) {
	if err := s.waitReady(ctx); err != nil {
		return models.Publication{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Publication{}, models.NotFoundError("publication.get", "publication", id)
	}
	return s.records[i].Clone(), nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// persist writes the current record set under the current key.
func (s *Store) persist(ctx context.Context, records []models.Publication) error {
	data, err := s.encode(records)
	if err != nil {
		return err
	}
	if err := s.kv.PutValue(ctx, recordsKey(CurrentSchemaVersion), string(data)); err != nil {
		return models.StorageError("publication.persist", err)
	}
	return nil
}

// encode serializes records, retrying once without media metadata when a record
// carries values JSON cannot represent.
func (s *Store) encode(records []models.Publication) ([]byte, error) {
	data, err := json.Marshal(records)
	if err == nil {
		return data, nil
	}
	s.logger.Warn("record serialization failed, retrying without media metadata", "err", err)
	data, retryErr := json.Marshal(stripMeta(records))
	if retryErr != nil {
		return nil, models.StorageError("publication.encode", retryErr)
	}
	return data, nil
}

func stripMeta(records []models.Publication) []models.Publication {
	out := cloneAll(records)
	for i := range out {
		for j := range out[i].Media {
			out[i].Media[j].Meta = nil
		}
	}
	return out
}

func cloneAll(records []models.Publication) []models.Publication {
	out := make([]models.Publication, len(records))
	for i := range records {
		out[i] = records[i].Clone()
	}
	return out
}

// releaseLocators drops every session locator a record holds.
func (s *Store) releaseLocators(pub models.Publication) {
	if pub.PrimaryImage != nil {
		s.blobs.Release(pub.PrimaryImage.Locator)
	}
	if !pub.File.IsNone() {
		s.blobs.Release(pub.File.Locator)
	}
	for _, m := range pub.Media {
		s.blobs.Release(m.Locator)
	}
}

// deleteBlobs removes owned blobs after a committed mutation. Failures leave orphans
// that PruneOrphans reclaims.
func (s *Store) deleteBlobs(ctx context.Context, ids []string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, id); err != nil {
			s.logger.Warn("blob cleanup failed", "blob_id", id, "err", err)
		}
	}
}

// Export writes the records as YAML.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	records, err := s.List(ctx)
	if err != nil {
		return err
	}
	return encodeYAML(w, records)
}

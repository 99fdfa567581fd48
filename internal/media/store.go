// Package media stores binary payloads for publications. Payload bytes live in a
// content-addressed blobstore; metadata rows live in SQLite; readers get
// process-local session locators that are regenerated on demand.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/maruel/ksid"

	"folio/internal/blobstore"
	"folio/internal/models"
	"folio/internal/store"
)

// DefaultMaxBytes caps one media payload.
const DefaultMaxBytes int64 = 50 << 20

// Options configures payload policy.
type Options struct {
	MaxBytes          int64
	AllowedMediaTypes []string
}

// Stored is the result of one Store call.
type Stored struct {
	ID        string           `json:"id"`
	Locator   string           `json:"locator"`
	Kind      models.MediaKind `json:"kind"`
	MimeType  string           `json:"mime_type"`
	Name      string           `json:"name"`
	SizeBytes int64            `json:"size_bytes"`
}

// Entry is one listed blob with a fresh locator.
type Entry struct {
	ID        string           `json:"id"`
	OwnerID   string           `json:"owner_id"`
	Locator   string           `json:"locator"`
	Kind      models.MediaKind `json:"kind"`
	Name      string           `json:"name"`
	MimeType  string           `json:"mime_type"`
	SizeBytes int64            `json:"size_bytes"`
	SHA256    string           `json:"sha256"`
}

// Store owns media payloads keyed by blob id.
type Store struct {
	meta   store.MediaBlobStore
	cas    blobstore.BlobStore
	logger *slog.Logger

	maxBytes int64
	allowed  map[string]struct{}

	mu       sync.Mutex
	opened   bool
	locators *locatorRegistry
}

// New constructs a media store over a metadata table and a byte store.
func New(meta store.MediaBlobStore, cas blobstore.BlobStore, logger *slog.Logger, opts Options) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{
		meta:     meta,
		cas:      cas,
		logger:   logger.With("component", "media"),
		maxBytes: maxBytes,
		allowed:  normalizeAllowedTypes(opts.AllowedMediaTypes),
		locators: newLocatorRegistry(),
	}
}

// Open prepares the store. It is safe to call more than once.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked(ctx)
}

func (s *Store) openLocked(ctx context.Context) error {
	if s.opened {
		return nil
	}
	if s.meta == nil || s.cas == nil {
		return fmt.Errorf("media store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.meta.ListMediaBlobOwners(ctx); err != nil {
		return models.StorageError("media.open", err)
	}
	s.opened = true
	s.logger.Debug("media store opened")
	return nil
}

// Store persists payload under ownerID and issues a session locator for it.
// The media type allow-list does not apply to attachment owner tags.
func (s *Store) Store(ctx context.Context, payload models.FilePayload, ownerID string) (Stored, error) {
	const op = "media.store"
	var zero Stored

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return zero, models.ValidationError(op, "owner id is required")
	}
	if payload == nil {
		return zero, models.ValidationError(op, "payload is required")
	}
	if payload.Size() > s.maxBytes {
		return zero, models.ValidationError(op, "%s exceeds the %d byte limit", displayName(payload.Name()), s.maxBytes)
	}

	data, err := payload.ReadAll()
	if err != nil {
		return zero, models.StorageError(op, fmt.Errorf("read payload: %w", err))
	}
	if int64(len(data)) > s.maxBytes {
		return zero, models.ValidationError(op, "%s exceeds the %d byte limit", displayName(payload.Name()), s.maxBytes)
	}

	mediaType, kind, err := resolveMediaType(payload.MimeType(), data)
	if err != nil {
		return zero, models.ValidationError(op, "%v", err)
	}
	if !models.IsAttachmentOwnerTag(ownerID) && !mediaTypeAllowed(s.allowed, mediaType) {
		return zero, models.ValidationError(op, "media type %s is not allowed", mediaType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openLocked(ctx); err != nil {
		return zero, err
	}

	put, err := s.cas.Put(ctx, bytes.NewReader(data))
	if err != nil {
		return zero, models.StorageError(op, err)
	}

	blob := &models.Blob{
		ID:        ownerID + "_" + ksid.NewID().String(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(payload.Name()),
		MimeType:  mediaType,
		Kind:      kind,
		SHA256:    put.SHA256,
		SizeBytes: put.SizeBytes,
		BlobKey:   put.Key,
	}
	if err := s.meta.InsertMediaBlob(ctx, blob); err != nil {
		s.dropUnreferencedKey(ctx, put.Key)
		if store.IsUniqueConstraint(err) {
			return zero, fmt.Errorf("%s: blob id %s already exists", op, blob.ID)
		}
		return zero, models.StorageError(op, err)
	}

	locator := s.locators.issue(blob.ID)
	s.logger.Debug("blob stored", "id", blob.ID, "owner", ownerID, "kind", kind, "bytes", blob.SizeBytes)
	return Stored{
		ID:        blob.ID,
		Locator:   locator,
		Kind:      kind,
		MimeType:  mediaType,
		Name:      blob.Name,
		SizeBytes: blob.SizeBytes,
	}, nil
}

// ResolveLocator issues a fresh locator for a stored blob. ok is false for unknown ids.
func (s *Store) ResolveLocator(ctx context.Context, id string) (string, bool, error) {
	if err := s.Open(ctx); err != nil {
		return "", false, err
	}
	blob, err := s.meta.GetMediaBlob(ctx, strings.TrimSpace(id))
	if err != nil {
		return "", false, models.StorageError("media.resolve", err)
	}
	if blob == nil {
		return "", false, nil
	}
	return s.locators.issue(blob.ID), true, nil
}

// Get returns the metadata row of a blob, or nil when unknown.
func (s *Store) Get(ctx context.Context, id string) (*models.Blob, error) {
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	blob, err := s.meta.GetMediaBlob(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, models.StorageError("media.get", err)
	}
	return blob, nil
}

// ListByOwner lists an owner's blobs in insertion order with fresh locators.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]Entry, error) {
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	blobs, err := s.meta.ListMediaBlobsByOwner(ctx, strings.TrimSpace(ownerID))
	if err != nil {
		return nil, models.StorageError("media.list", err)
	}
	entries := make([]Entry, 0, len(blobs))
	for _, blob := range blobs {
		entries = append(entries, Entry{
			ID:        blob.ID,
			OwnerID:   blob.OwnerID,
			Locator:   s.locators.issue(blob.ID),
			Kind:      blob.Kind,
			Name:      blob.Name,
			MimeType:  blob.MimeType,
			SizeBytes: blob.SizeBytes,
			SHA256:    blob.SHA256,
		})
	}
	return entries, nil
}

// Owners lists every owner tag with at least one blob.
func (s *Store) Owners(ctx context.Context) ([]string, error) {
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	owners, err := s.meta.ListMediaBlobOwners(ctx)
	if err != nil {
		return nil, models.StorageError("media.owners", err)
	}
	return owners, nil
}

// Delete removes a blob and releases its locators. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "media.delete"
	id = strings.TrimSpace(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openLocked(ctx); err != nil {
		return err
	}

	blob, lastRef, err := s.meta.DeleteMediaBlob(ctx, id)
	if err != nil {
		return models.StorageError(op, err)
	}
	released := s.locators.releaseBlob(id)
	if blob == nil {
		return nil
	}
	if lastRef {
		if err := s.cas.Delete(ctx, blob.BlobKey); err != nil {
			return models.StorageError(op, err)
		}
	}
	s.logger.Debug("blob deleted", "id", id, "owner", blob.OwnerID, "released_locators", released, "object_removed", lastRef)
	return nil
}

// Clear removes every blob and every payload object.
func (s *Store) Clear(ctx context.Context) error {
	const op = "media.clear"

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openLocked(ctx); err != nil {
		return err
	}

	if _, err := s.meta.DeleteAllMediaBlobs(ctx); err != nil {
		return models.StorageError(op, err)
	}
	keys, err := s.cas.Keys(ctx)
	if err != nil {
		return models.StorageError(op, err)
	}
	var errs []error
	for _, key := range keys {
		if err := s.cas.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	released := s.locators.releaseAll()
	s.logger.Info("media store cleared", "objects", len(keys), "released_locators", released)
	if len(errs) > 0 {
		return models.StorageError(op, errors.Join(errs...))
	}
	return nil
}

// OpenLocator opens the payload behind a session locator.
func (s *Store) OpenLocator(ctx context.Context, locator string) (io.ReadCloser, error) {
	id, ok := s.locators.lookup(strings.TrimSpace(locator))
	if !ok {
		return nil, models.NotFoundError("media.open_locator", "locator", locator)
	}
	return s.open(ctx, "media.open_locator", id)
}

// Read returns the payload bytes of a blob.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	rc, err := s.open(ctx, "media.read", strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, models.StorageError("media.read", err)
	}
	return data, nil
}

func (s *Store) open(ctx context.Context, op, id string) (io.ReadCloser, error) {
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	blob, err := s.meta.GetMediaBlob(ctx, id)
	if err != nil {
		return nil, models.StorageError(op, err)
	}
	if blob == nil {
		return nil, models.NotFoundError(op, "blob", id)
	}
	rc, err := s.cas.Open(ctx, blob.BlobKey)
	if err != nil {
		return nil, models.StorageError(op, err)
	}
	return rc, nil
}

// Release forgets a session locator. Unknown locators are ignored.
func (s *Store) Release(locator string) bool {
	return s.locators.release(strings.TrimSpace(locator))
}

// LiveLocators returns the number of locators currently tracked.
func (s *Store) LiveLocators() int {
	return s.locators.len()
}

// SweepResult reports one sweep of unreferenced payload objects.
type SweepResult struct {
	CandidateCount int   `json:"candidate_count"`
	DeletedCount   int   `json:"deleted_count"`
	FailedCount    int   `json:"failed_count"`
	ReclaimedBytes int64 `json:"reclaimed_bytes"`
	DryRun         bool  `json:"dry_run"`
}

// Sweep removes payload objects that no metadata row references.
func (s *Store) Sweep(ctx context.Context, apply bool) (SweepResult, error) {
	const op = "media.sweep"
	result := SweepResult{DryRun: !apply}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openLocked(ctx); err != nil {
		return result, err
	}

	referenced, err := s.meta.ListMediaBlobKeys(ctx)
	if err != nil {
		return result, models.StorageError(op, err)
	}
	live := make(map[string]struct{}, len(referenced))
	for _, key := range referenced {
		live[key] = struct{}{}
	}

	keys, err := s.cas.Keys(ctx)
	if err != nil {
		return result, models.StorageError(op, err)
	}
	for _, key := range keys {
		if _, ok := live[key]; ok {
			continue
		}
		result.CandidateCount++
		size := s.objectSize(ctx, key)
		if !apply {
			result.ReclaimedBytes += size
			continue
		}
		if err := s.cas.Delete(ctx, key); err != nil {
			result.FailedCount++
			s.logger.Warn("sweep delete failed", "key", key, "err", err)
			continue
		}
		result.DeletedCount++
		result.ReclaimedBytes += size
	}
	return result, nil
}

func (s *Store) objectSize(ctx context.Context, key string) int64 {
	rc, err := s.cas.Open(ctx, key)
	if err != nil {
		return 0
	}
	defer rc.Close()
	n, _ := io.Copy(io.Discard, rc)
	return n
}

// dropUnreferencedKey removes a freshly written object when no row points at it.
func (s *Store) dropUnreferencedKey(ctx context.Context, key string) {
	keys, err := s.meta.ListMediaBlobKeys(ctx)
	if err != nil {
		return
	}
	for _, k := range keys {
		if k == key {
			return
		}
	}
	if err := s.cas.Delete(ctx, key); err != nil {
		s.logger.Warn("drop orphan object failed", "key", key, "err", err)
	}
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "payload"
	}
	return name
}

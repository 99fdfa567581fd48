package publication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"folio/internal/models"
	"folio/internal/store"
)

// Load reads, migrates or heals the persisted records, rehydrates media locators and
// marks the store ready. It may be called again; ids and order are stable.
func (s *Store) Load(ctx context.Context) ([]models.Publication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(ctx)
	if err != nil {
		return nil, err
	}

	previous := s.records
	if err := s.rehydrate(ctx, records); err != nil {
		return nil, err
	}
	for _, pub := range previous {
		s.releaseLocators(pub)
	}

	s.records = records
	s.readyOnce.Do(func() { close(s.ready) })
	s.logger.Debug("publications loaded", "count", len(records))
	return cloneAll(records), nil
}

func (s *Store) readRecords(ctx context.Context) ([]models.Publication, error) {
	rawVersion, hasVersion, err := s.kv.GetValue(ctx, schemaVersionKey)
	if err != nil {
		return nil, models.StorageError("publication.load", err)
	}

	if hasVersion {
		version, err := parseSchemaVersion(rawVersion)
		if err != nil {
			s.logger.Warn("unreadable schema version, treating records as legacy", "version", rawVersion)
			return s.migrate(ctx, 1, legacyRecordsKey)
		}
		if version == CurrentSchemaVersion {
			return s.readCurrent(ctx)
		}
		if version > CurrentSchemaVersion {
			return nil, models.StorageError("publication.load", fmt.Errorf("schema version %d is newer than supported version %d", version, CurrentSchemaVersion))
		}
		return s.migrate(ctx, version, recordsKey(version))
	}
	return s.migrate(ctx, 1, legacyRecordsKey)
}

// readCurrent parses records already in the current shape and heals to the seed set
// when they are missing or structurally invalid.
func (s *Store) readCurrent(ctx context.Context) ([]models.Publication, error) {
	value, ok, err := s.kv.GetValue(ctx, recordsKey(CurrentSchemaVersion))
	if err != nil {
		return nil, models.StorageError("publication.load", err)
	}

	var records []models.Publication
	if !ok {
		err = errors.New("records missing")
	} else {
		records, err = parseCurrent(value)
	}
	if err == nil {
		return dedupe(records), nil
	}

	s.logger.Warn("persisted publications are corrupt, restoring the seed set", "err", models.CorruptionError("publication.load", err))
	seed, err := s.seed()
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, seed); err != nil {
		return nil, err
	}
	return seed, nil
}

func parseCurrent(value string) ([]models.Publication, error) {
	var records []models.Publication
	if err := json.Unmarshal([]byte(value), &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("no records")
	}
	for i := range records {
		if err := validateRecord(records[i]); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records[i].File = records[i].File.Normalize()
	}
	return records, nil
}

func validateRecord(pub models.Publication) error {
	if strings.TrimSpace(pub.ID) == "" {
		return errors.New("id is required")
	}
	if err := pub.File.Validate(); err != nil {
		return err
	}
	for _, m := range pub.Media {
		if _, err := models.ParseMediaKind(string(m.Kind)); err != nil {
			return err
		}
	}
	return nil
}

// migrate upgrades the records stored under fromKey, merges the seed set and writes
// the result together with the current version.
func (s *Store) migrate(ctx context.Context, from int, fromKey string) ([]models.Publication, error) {
	value, ok, err := s.kv.GetValue(ctx, fromKey)
	if err != nil {
		return nil, models.StorageError("publication.migrate", err)
	}

	var persisted []models.Publication
	if ok {
		var raw []rawRecord
		if err := json.Unmarshal([]byte(value), &raw); err != nil {
			s.logger.Warn("previous publications are unreadable, discarding them", "key", fromKey, "err", models.CorruptionError("publication.migrate", err))
		} else if persisted, err = migrateRecords(raw, from); err != nil {
			s.logger.Warn("previous publications could not be migrated, discarding them", "key", fromKey, "from", from, "err", err)
			persisted = nil
		}
	}

	seed, err := s.seed()
	if err != nil {
		return nil, err
	}
	merged := dedupe(append(persisted, seed...))

	data, err := s.encode(merged)
	if err != nil {
		return nil, err
	}
	puts := []store.KeyValue{
		{Key: recordsKey(CurrentSchemaVersion), Value: string(data)},
		{Key: schemaVersionKey, Value: strconv.Itoa(CurrentSchemaVersion)},
	}
	var deletes []string
	if ok && fromKey != recordsKey(CurrentSchemaVersion) {
		deletes = append(deletes, fromKey)
	}
	if err := s.kv.PutValues(ctx, puts, deletes...); err != nil {
		return nil, models.StorageError("publication.migrate", err)
	}

	s.logger.Info("publications migrated", "from", from, "to", CurrentSchemaVersion, "persisted", len(persisted), "total", len(merged))
	return merged, nil
}

// dedupe keeps the first record of every id.
func dedupe(records []models.Publication) []models.Publication {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.Publication, 0, len(records))
	for _, pub := range records {
		if _, ok := seen[pub.ID]; ok {
			continue
		}
		seen[pub.ID] = struct{}{}
		out = append(out, pub)
	}
	return out
}

// rehydrate replaces stale locators with fresh ones derived from owned blobs.
func (s *Store) rehydrate(ctx context.Context, records []models.Publication) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.RehydrateLimit)
	for i := range records {
		g.Go(func() error {
			return s.rehydrateOne(gctx, &records[i])
		})
	}
	return g.Wait()
}

func (s *Store) rehydrateOne(ctx context.Context, pub *models.Publication) error {
	entries, err := s.blobs.ListByOwner(ctx, pub.ID)
	if err != nil {
		return fmt.Errorf("rehydrate %s: %w", pub.ID, err)
	}
	if len(entries) > 0 {
		alts := map[string]string{}
		for _, m := range pub.Media {
			if m.Owned() && m.Alt != "" {
				alts[m.BlobID] = m.Alt
			}
		}
		media := make([]models.MediaRef, 0, len(entries))
		for _, e := range entries {
			alt := alts[e.ID]
			if alt == "" {
				alt = pub.Title
			}
			kind := e.Kind
			if !kind.IsVisual() {
				kind = models.MediaKindImage
			}
			media = append(media, models.MediaRef{Kind: kind, Locator: e.Locator, Name: e.Name, Alt: alt, BlobID: e.ID})
		}
		pub.Media = media
	}

	if !pub.File.IsNone() && pub.File.BlobID != "" {
		locator, ok, err := s.blobs.ResolveLocator(ctx, pub.File.BlobID)
		if err != nil {
			return fmt.Errorf("rehydrate %s attachment: %w", pub.ID, err)
		}
		if ok {
			pub.File.Locator = locator
		} else {
			s.logger.Warn("attachment blob missing", "publication", pub.ID, "blob_id", pub.File.BlobID)
		}
	}

	if pub.PrimaryImage != nil && pub.PrimaryImage.BlobID != "" {
		if pub.PrimaryImage.BlobID == pub.File.BlobID && !pub.File.IsNone() {
			pub.PrimaryImage.Locator = pub.File.Locator
			return nil
		}
		locator, ok, err := s.blobs.ResolveLocator(ctx, pub.PrimaryImage.BlobID)
		if err != nil {
			return fmt.Errorf("rehydrate %s primary image: %w", pub.ID, err)
		}
		if ok {
			pub.PrimaryImage.Locator = locator
		}
	}
	return nil
}

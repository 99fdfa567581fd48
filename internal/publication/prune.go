package publication

import (
	"context"

	"folio/internal/media"
	"folio/internal/models"
)

// PruneResult reports one orphan sweep.
type PruneResult struct {
	Orphans      []string          `json:"orphans"`
	DeletedCount int               `json:"deleted_count"`
	FailedCount  int               `json:"failed_count"`
	Objects      media.SweepResult `json:"objects"`
	DryRun       bool              `json:"dry_run"`
}

// PruneOrphans deletes blobs no record references, for example after a crash between
// a blob write and the record persist, then sweeps unreferenced payload objects.
func (s *Store) PruneOrphans(ctx context.Context, dryRun bool) (PruneResult, error) {
	const op = "publication.prune"
	result := PruneResult{DryRun: dryRun, Orphans: []string{}}

	if err := s.waitReady(ctx); err != nil {
		return result, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	referenced := map[string]struct{}{}
	for _, pub := range s.records {
		for _, id := range pub.OwnedMediaBlobIDs() {
			referenced[id] = struct{}{}
		}
		if pub.File.BlobID != "" {
			referenced[pub.File.BlobID] = struct{}{}
		}
		if pub.PrimaryImage != nil && pub.PrimaryImage.BlobID != "" {
			referenced[pub.PrimaryImage.BlobID] = struct{}{}
		}
	}

	owners, err := s.blobs.Owners(ctx)
	if err != nil {
		return result, models.StorageError(op, err)
	}
	for _, owner := range owners {
		entries, err := s.blobs.ListByOwner(ctx, owner)
		if err != nil {
			return result, models.StorageError(op, err)
		}
		for _, e := range entries {
			s.blobs.Release(e.Locator)
			if _, ok := referenced[e.ID]; ok {
				continue
			}
			result.Orphans = append(result.Orphans, e.ID)
		}
	}

	if !dryRun {
		for _, id := range result.Orphans {
			if err := s.blobs.Delete(ctx, id); err != nil {
				result.FailedCount++
				s.logger.Warn("orphan delete failed", "blob_id", id, "err", err)
				continue
			}
			result.DeletedCount++
		}
	}

	objects, err := s.blobs.Sweep(ctx, !dryRun)
	if err != nil {
		return result, err
	}
	result.Objects = objects

	s.logger.Info("orphan prune finished", "orphans", len(result.Orphans), "deleted", result.DeletedCount, "dry_run", dryRun)
	return result, nil
}

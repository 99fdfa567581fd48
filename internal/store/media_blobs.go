package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"folio/internal/models"
)

const mediaBlobColumns = "id, owner_id, name, mime_type, kind, sha256, size_bytes, blob_key, created_at"

// InsertMediaBlob inserts one blob metadata row. A duplicate id surfaces as a
// unique-constraint error.
func (s *Store) InsertMediaBlob(ctx context.Context, blob *models.Blob) error {
	if blob == nil {
		return fmt.Errorf("blob is required")
	}
	blob.ID = strings.TrimSpace(blob.ID)
	blob.OwnerID = strings.TrimSpace(blob.OwnerID)
	blob.BlobKey = strings.TrimSpace(blob.BlobKey)
	if blob.ID == "" {
		return fmt.Errorf("blob id is required")
	}
	if blob.OwnerID == "" {
		return fmt.Errorf("blob owner_id is required")
	}
	if blob.BlobKey == "" {
		return fmt.Errorf("blob_key is required")
	}
	if blob.SizeBytes < 0 {
		return fmt.Errorf("size_bytes must be >= 0")
	}
	if blob.CreatedAt.IsZero() {
		blob.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media_blobs (`+mediaBlobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		blob.ID,
		blob.OwnerID,
		nullIfEmpty(blob.Name),
		blob.MimeType,
		string(blob.Kind),
		blob.SHA256,
		blob.SizeBytes,
		blob.BlobKey,
		dbFormatTime(blob.CreatedAt),
	)
	return err
}

// GetMediaBlob returns one blob row, or nil when absent.
func (s *Store) GetMediaBlob(ctx context.Context, id string) (*models.Blob, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+mediaBlobColumns+` FROM media_blobs WHERE id = ?`, id)
	return scanMediaBlob(row)
}

// ListMediaBlobsByOwner lists an owner's blobs in insertion order.
func (s *Store) ListMediaBlobsByOwner(ctx context.Context, ownerID string) ([]models.Blob, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+mediaBlobColumns+` FROM media_blobs WHERE owner_id = ? ORDER BY created_at ASC, rowid ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMediaBlobs(rows)
}

// ListMediaBlobOwners lists distinct owner tags.
func (s *Store) ListMediaBlobOwners(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, "SELECT DISTINCT owner_id FROM media_blobs ORDER BY owner_id ASC")
}

// ListMediaBlobKeys lists distinct CAS keys referenced by any row.
func (s *Store) ListMediaBlobKeys(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, "SELECT DISTINCT blob_key FROM media_blobs ORDER BY blob_key ASC")
}

// DeleteMediaBlob removes one row. It returns the deleted row (nil when absent) and
// whether no remaining row references the same CAS key.
func (s *Store) DeleteMediaBlob(ctx context.Context, id string) (_ *models.Blob, lastRef bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	blob, err := scanMediaBlob(tx.QueryRowContext(ctx, `SELECT `+mediaBlobColumns+` FROM media_blobs WHERE id = ?`, id))
	if err != nil {
		return nil, false, err
	}
	if blob == nil {
		err = tx.Commit()
		return nil, false, err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM media_blobs WHERE id = ?", id); err != nil {
		return nil, false, err
	}

	var remaining int
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM media_blobs WHERE blob_key = ?", blob.BlobKey).Scan(&remaining); err != nil {
		return nil, false, err
	}

	if err = tx.Commit(); err != nil {
		return nil, false, err
	}
	return blob, remaining == 0, nil
}

// DeleteAllMediaBlobs removes every row and returns the CAS keys they referenced.
func (s *Store) DeleteAllMediaBlobs(ctx context.Context) (_ []string, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, "SELECT DISTINCT blob_key FROM media_blobs")
	if err != nil {
		return nil, err
	}
	keys := []string{}
	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, key)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if _, err = tx.ExecContext(ctx, "DELETE FROM media_blobs"); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Store) listStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, rows.Err()
}

func collectMediaBlobs(rows *sql.Rows) ([]models.Blob, error) {
	blobs := []models.Blob{}
	for rows.Next() {
		blob, err := scanMediaBlob(rows)
		if err != nil {
			return nil, err
		}
		if blob != nil {
			blobs = append(blobs, *blob)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return blobs, nil
}

func scanMediaBlob(scanner interface {
	Scan(dest ...any) error
}) (*models.Blob, error) {
	blob := models.Blob{}
	var name sql.NullString
	var kind, createdAt string

	err := scanner.Scan(
		&blob.ID,
		&blob.OwnerID,
		&name,
		&blob.MimeType,
		&kind,
		&blob.SHA256,
		&blob.SizeBytes,
		&blob.BlobKey,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	blob.Name = name.String
	blob.Kind = models.MediaKind(kind)
	parsed, err := dbParseTime(createdAt)
	if err != nil {
		return nil, err
	}
	blob.CreatedAt = parsed
	return &blob, nil
}

package store

import (
	"context"
	"database/sql"
	"time"
)

// KeyValue is one opaque persisted record.
type KeyValue struct {
	Key   string
	Value string
}

// GetValue returns the value under key and whether it exists.
func (s *Store) GetValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// PutValues writes puts and removes deletes in one transaction.
func (s *Store) PutValues(ctx context.Context, puts []KeyValue, deletes ...string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := dbFormatTime(time.Now())
	for _, kv := range puts {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, kv.Key, kv.Value, now); err != nil {
			return err
		}
	}
	for _, key := range deletes {
		if _, err = tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// PutValue writes a single key.
func (s *Store) PutValue(ctx context.Context, key, value string) error {
	return s.PutValues(ctx, []KeyValue{{Key: key, Value: value}})
}

// PutValueIfAbsent stores value under key unless the key exists, and returns the
// value that ended up stored.
func (s *Store) PutValueIfAbsent(ctx context.Context, key, value string) (string, error) {
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, dbFormatTime(time.Now()),
	); err != nil {
		return "", err
	}
	stored, _, err := s.GetValue(ctx, key)
	return stored, err
}

// DeleteValue removes key. Missing keys are ignored.
func (s *Store) DeleteValue(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return err
}

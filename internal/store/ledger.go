package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"folio/internal/models"
)

// ReactionMutator computes the next aggregate and actor reaction from the current ones.
// agg is nil when the publication has no aggregate yet; an empty nextActor removes the
// actor's row.
type ReactionMutator func(agg *models.ReactionAggregate, current models.ReactionType) (next models.ReactionAggregate, nextActor models.ReactionType, err error)

// GetReactionAggregate returns the aggregate for a publication, or nil when absent.
func (s *Store) GetReactionAggregate(ctx context.Context, publicationID string) (*models.ReactionAggregate, error) {
	return scanReactionAggregate(s.db.QueryRowContext(ctx,
		"SELECT publication_id, count, active_type, updated_at FROM reactions WHERE publication_id = ?",
		publicationID,
	))
}

// GetUserReaction returns the actor's reaction, or "" when none.
func (s *Store) GetUserReaction(ctx context.Context, publicationID, actorID string) (models.ReactionType, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT type FROM user_reactions WHERE publication_id = ? AND actor_id = ?",
		publicationID, actorID,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return models.ReactionType(value), nil
}

// CountUserReactions counts actors with a reaction on a publication.
func (s *Store) CountUserReactions(ctx context.Context, publicationID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_reactions WHERE publication_id = ?", publicationID).Scan(&count)
	return count, err
}

// UpdateReaction runs fn against the current aggregate and actor row and writes both
// results in one transaction, so the two tables never diverge.
func (s *Store) UpdateReaction(ctx context.Context, publicationID, actorID string, fn ReactionMutator) (_ models.ReactionAggregate, _ models.ReactionType, err error) {
	var zero models.ReactionAggregate
	if fn == nil {
		return zero, "", fmt.Errorf("reaction mutator is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	agg, err := scanReactionAggregate(tx.QueryRowContext(ctx,
		"SELECT publication_id, count, active_type, updated_at FROM reactions WHERE publication_id = ?",
		publicationID,
	))
	if err != nil {
		return zero, "", err
	}

	var current string
	err = tx.QueryRowContext(ctx,
		"SELECT type FROM user_reactions WHERE publication_id = ? AND actor_id = ?",
		publicationID, actorID,
	).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		return zero, "", err
	}
	err = nil

	next, nextActor, err := fn(agg, models.ReactionType(current))
	if err != nil {
		return zero, "", err
	}
	next.PublicationID = publicationID
	if next.Count < 0 {
		next.Count = 0
	}
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = time.Now().UTC()
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO reactions (publication_id, count, active_type, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(publication_id) DO UPDATE SET
			count = excluded.count, active_type = excluded.active_type, updated_at = excluded.updated_at
	`, publicationID, next.Count, string(next.ActiveType), dbFormatTime(next.UpdatedAt)); err != nil {
		return zero, "", err
	}

	if nextActor == "" {
		_, err = tx.ExecContext(ctx, "DELETE FROM user_reactions WHERE publication_id = ? AND actor_id = ?", publicationID, actorID)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_reactions (publication_id, actor_id, type, reacted_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(publication_id, actor_id) DO UPDATE SET type = excluded.type, reacted_at = excluded.reacted_at
		`, publicationID, actorID, string(nextActor), dbFormatTime(next.UpdatedAt))
	}
	if err != nil {
		return zero, "", err
	}

	if err = tx.Commit(); err != nil {
		return zero, "", err
	}
	return next, nextActor, nil
}

// InsertComment stores one comment attributed to actorID.
func (s *Store) InsertComment(ctx context.Context, comment *models.Comment, actorID string) error {
	if comment == nil {
		return fmt.Errorf("comment is required")
	}
	if strings.TrimSpace(comment.ID) == "" {
		return fmt.Errorf("comment id is required")
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, publication_id, author, content, created_at, actor_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, comment.ID, comment.PublicationID, comment.Author, comment.Content, dbFormatTime(comment.CreatedAt), nullIfEmpty(actorID))
	return err
}

// CountCommentsSince counts comments attributed to actorID created at or after since.
func (s *Store) CountCommentsSince(ctx context.Context, actorID string, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM comments
		WHERE actor_id = ? AND julianday(created_at) >= julianday(?)
	`, actorID, dbFormatTime(since)).Scan(&n)
	return n, err
}

// ListComments lists a publication's comments newest first.
func (s *Store) ListComments(ctx context.Context, publicationID string) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, publication_id, author, content, created_at
		FROM comments
		WHERE publication_id = ?
		ORDER BY julianday(created_at) DESC, rowid DESC
	`, publicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		var createdAt string
		if err := rows.Scan(&c.ID, &c.PublicationID, &c.Author, &c.Content, &createdAt); err != nil {
			return nil, err
		}
		parsed, err := dbParseTime(createdAt)
		if err != nil {
			return nil, err
		}
		c.CreatedAt = parsed
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

// CommentIDExists checks whether a comment id is taken.
func (s *Store) CommentIDExists(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM comments WHERE id = ? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanReactionAggregate(scanner interface {
	Scan(dest ...any) error
}) (*models.ReactionAggregate, error) {
	agg := models.ReactionAggregate{}
	var activeType, updatedAt string
	err := scanner.Scan(&agg.PublicationID, &agg.Count, &activeType, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	agg.ActiveType = models.ReactionType(activeType)
	parsed, err := dbParseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	agg.UpdatedAt = parsed
	return &agg, nil
}

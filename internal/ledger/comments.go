package ledger

import (
	"context"
	"strings"
	"unicode/utf8"

	"folio/internal/models"
	"folio/internal/store"
)

// AddComment appends a comment to a publication. A blank author becomes the default
// anonymous label; blank or over-long content is rejected.
func (l *Ledger) AddComment(ctx context.Context, publicationID, actorID, author, content string) (models.Comment, error) {
	const op = "ledger.add_comment"
	var zero models.Comment

	publicationID = strings.TrimSpace(publicationID)
	actorID = strings.TrimSpace(actorID)
	author = strings.TrimSpace(author)
	content = strings.TrimSpace(content)

	if publicationID == "" {
		return zero, models.ValidationError(op, "publication id is required")
	}
	if content == "" {
		return zero, models.ValidationError(op, "comment content is required")
	}
	if n := utf8.RuneCountInString(content); n > l.opts.CommentMaxLength {
		return zero, models.ValidationError(op, "comment is %d characters, limit is %d", n, l.opts.CommentMaxLength)
	}
	if author == "" {
		author = models.DefaultCommentAuthor
	}
	if n := utf8.RuneCountInString(author); n > l.opts.AuthorMaxLength {
		return zero, models.ValidationError(op, "author name is %d characters, limit is %d", n, l.opts.AuthorMaxLength)
	}
	if !l.limiter.allow(actorID) {
		return zero, models.RateLimitedError(op, "too many comments, try again later")
	}
	if actorID != "" {
		recent, err := l.store.CountCommentsSince(ctx, actorID, l.now().Add(-l.limiter.window()))
		if err != nil {
			return zero, models.StorageError(op, err)
		}
		if recent >= l.opts.CommentBurst {
			return zero, models.RateLimitedError(op, "too many comments, try again later")
		}
	}

	id, err := store.GenerateCommentID(func(candidate string) (bool, error) {
		return l.store.CommentIDExists(ctx, candidate)
	})
	if err != nil {
		return zero, models.StorageError(op, err)
	}

	comment := models.Comment{
		ID:            id,
		PublicationID: publicationID,
		Author:        author,
		Content:       content,
		CreatedAt:     l.now(),
	}
	if err := l.store.InsertComment(ctx, &comment, actorID); err != nil {
		return zero, models.StorageError(op, err)
	}

	l.logger.Debug("comment added", "publication", publicationID, "id", id)
	return comment, nil
}

// GetComments lists a publication's comments, newest first.
func (l *Ledger) GetComments(ctx context.Context, publicationID string) ([]models.Comment, error) {
	comments, err := l.store.ListComments(ctx, strings.TrimSpace(publicationID))
	if err != nil {
		return nil, models.StorageError("ledger.get_comments", err)
	}
	return comments, nil
}

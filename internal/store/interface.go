package store

import (
	"context"
	"time"

	"folio/internal/models"
)

// KVStore persists opaque string records under string keys.
type KVStore interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	PutValue(ctx context.Context, key, value string) error
	PutValues(ctx context.Context, puts []KeyValue, deletes ...string) error
	PutValueIfAbsent(ctx context.Context, key, value string) (string, error)
	DeleteValue(ctx context.Context, key string) error
}

// MediaBlobStore persists blob metadata rows. Payload bytes live in the blobstore package.
type MediaBlobStore interface {
	InsertMediaBlob(ctx context.Context, blob *models.Blob) error
	GetMediaBlob(ctx context.Context, id string) (*models.Blob, error)
	ListMediaBlobsByOwner(ctx context.Context, ownerID string) ([]models.Blob, error)
	ListMediaBlobOwners(ctx context.Context) ([]string, error)
	ListMediaBlobKeys(ctx context.Context) ([]string, error)
	DeleteMediaBlob(ctx context.Context, id string) (*models.Blob, bool, error)
	DeleteAllMediaBlobs(ctx context.Context) ([]string, error)
}

// LedgerStore persists reactions and comments.
type LedgerStore interface {
	GetReactionAggregate(ctx context.Context, publicationID string) (*models.ReactionAggregate, error)
	GetUserReaction(ctx context.Context, publicationID, actorID string) (models.ReactionType, error)
	CountUserReactions(ctx context.Context, publicationID string) (int, error)
	UpdateReaction(ctx context.Context, publicationID, actorID string, fn ReactionMutator) (models.ReactionAggregate, models.ReactionType, error)
	InsertComment(ctx context.Context, comment *models.Comment, actorID string) error
	ListComments(ctx context.Context, publicationID string) ([]models.Comment, error)
	CommentIDExists(ctx context.Context, id string) (bool, error)
	CountCommentsSince(ctx context.Context, actorID string, since time.Time) (int, error)
}

var (
	_ KVStore        = (*Store)(nil)
	_ MediaBlobStore = (*Store)(nil)
	_ LedgerStore    = (*Store)(nil)
)

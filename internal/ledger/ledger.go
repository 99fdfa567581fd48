// Package ledger keeps per-publication reactions and comments left by anonymous
// visitors. Publications are referenced by id only and never validated here.
package ledger

import (
	"log/slog"
	"time"

	"folio/internal/store"
)

const (
	defaultCommentMaxLength  = 500
	defaultAuthorMaxLength   = 50
	defaultCommentsPerMinute = 6
	defaultCommentBurst      = 3
)

// Options configures comment limits.
type Options struct {
	CommentMaxLength  int
	AuthorMaxLength   int
	CommentsPerMinute int
	CommentBurst      int
}

func (o Options) withDefaults() Options {
	if o.CommentMaxLength <= 0 {
		o.CommentMaxLength = defaultCommentMaxLength
	}
	if o.AuthorMaxLength <= 0 {
		o.AuthorMaxLength = defaultAuthorMaxLength
	}
	if o.CommentsPerMinute <= 0 {
		o.CommentsPerMinute = defaultCommentsPerMinute
	}
	if o.CommentBurst <= 0 {
		o.CommentBurst = defaultCommentBurst
	}
	return o
}

// Ledger owns reaction aggregates, per-actor reactions and comments.
type Ledger struct {
	store   store.LedgerStore
	kv      store.KVStore
	logger  *slog.Logger
	opts    Options
	limiter *actorLimiter
	now     func() time.Time
}

// New constructs a Ledger.
func New(st store.LedgerStore, kv store.KVStore, logger *slog.Logger, opts Options) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	return &Ledger{
		store:   st,
		kv:      kv,
		logger:  logger.With("component", "ledger"),
		opts:    opts,
		limiter: newActorLimiter(opts.CommentsPerMinute, opts.CommentBurst),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

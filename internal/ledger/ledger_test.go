package ledger

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/models"
	"folio/internal/store"
)

func newTestLedger(t *testing.T, opts Options) (*Ledger, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "folio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, st, nil, opts), st
}

func TestGetReactionUnknownPublication(t *testing.T) {
	l, _ := newTestLedger(t, Options{})

	got, err := l.GetReaction(context.Background(), "nope", "visitor_a")
	require.NoError(t, err)
	assert.Equal(t, models.Reaction{PublicationID: "nope", ActiveType: models.ReactionLike}, got)
}

func TestToggleReactionCycle(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	ctx := context.Background()

	want := []struct {
		count int
		actor models.ReactionType
	}{
		{1, models.ReactionLike},
		{0, ""},
		{1, models.ReactionLike},
		{0, ""},
	}
	for i, w := range want {
		got, err := l.ToggleReaction(ctx, "p1", "visitor_a", models.ReactionLike)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, w.count, got.Count, "step %d", i)
		assert.Equal(t, w.actor, got.ActorReaction, "step %d", i)
	}
}

func TestToggleReactionSwapKeepsCount(t *testing.T) {
	l, st := newTestLedger(t, Options{})
	ctx := context.Background()

	_, err := l.ToggleReaction(ctx, "p1", "visitor_a", models.ReactionLike)
	require.NoError(t, err)
	_, err = l.ToggleReaction(ctx, "p1", "visitor_b", models.ReactionLike)
	require.NoError(t, err)

	got, err := l.ToggleReaction(ctx, "p1", "visitor_a", models.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, models.ReactionDislike, got.ActiveType)
	assert.Equal(t, models.ReactionDislike, got.ActorReaction)

	n, err := st.CountUserReactions(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, got.Count, n)

	seenByB, err := l.GetReaction(ctx, "p1", "visitor_b")
	require.NoError(t, err)
	assert.Equal(t, models.ReactionLike, seenByB.ActorReaction)
	assert.Equal(t, 2, seenByB.Count)
}

func TestToggleReactionCountMatchesActorRows(t *testing.T) {
	l, st := newTestLedger(t, Options{})
	ctx := context.Background()

	steps := []struct {
		actor string
		kind  models.ReactionType
	}{
		{"a", models.ReactionLike},
		{"b", models.ReactionDislike},
		{"c", models.ReactionLike},
		{"b", models.ReactionDislike},
		{"a", models.ReactionDislike},
		{"c", models.ReactionLike},
		{"a", models.ReactionDislike},
	}
	for _, step := range steps {
		got, err := l.ToggleReaction(ctx, "p1", step.actor, step.kind)
		require.NoError(t, err)
		n, err := st.CountUserReactions(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, n, got.Count)
		assert.GreaterOrEqual(t, got.Count, 0)
	}
}

func TestToggleReactionValidation(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	ctx := context.Background()

	_, err := l.ToggleReaction(ctx, "p1", "visitor_a", "love")
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = l.ToggleReaction(ctx, " ", "visitor_a", models.ReactionLike)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = l.ToggleReaction(ctx, "p1", "", models.ReactionLike)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAddCommentDefaultsAuthor(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	ctx := context.Background()

	_, err := l.AddComment(ctx, "p1", "visitor_a", "", "  ")
	assert.ErrorIs(t, err, models.ErrValidation)

	comment, err := l.AddComment(ctx, "p1", "visitor_a", "", "Hello")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCommentAuthor, comment.Author)
	assert.Equal(t, "Hello", comment.Content)
	assert.True(t, strings.HasPrefix(comment.ID, "cm-"))

	comments, err := l.GetComments(ctx, "p1")
	require.NoError(t, err)
	require.NotEmpty(t, comments)
	assert.Equal(t, comment.ID, comments[0].ID)
}

func TestGetCommentsNewestFirst(t *testing.T) {
	l, _ := newTestLedger(t, Options{CommentBurst: 10})
	ctx := context.Background()
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for _, text := range []string{"un", "deux", "trois"} {
		_, err := l.AddComment(ctx, "p1", "visitor_a", " Marie ", text)
		require.NoError(t, err)
	}

	comments, err := l.GetComments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "trois", comments[0].Content)
	assert.Equal(t, "un", comments[2].Content)
	assert.Equal(t, "Marie", comments[0].Author)

	empty, err := l.GetComments(ctx, "other")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestAddCommentLengthLimits(t *testing.T) {
	l, _ := newTestLedger(t, Options{CommentBurst: 10})
	ctx := context.Background()

	_, err := l.AddComment(ctx, "p1", "visitor_a", "", strings.Repeat("é", 501))
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = l.AddComment(ctx, "p1", "visitor_a", strings.Repeat("a", 51), "ok")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = l.AddComment(ctx, "p1", "visitor_a", strings.Repeat("a", 50), strings.Repeat("é", 500))
	assert.NoError(t, err)
}

func TestAddCommentRateLimited(t *testing.T) {
	l, _ := newTestLedger(t, Options{CommentsPerMinute: 1, CommentBurst: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := l.AddComment(ctx, "p1", "visitor_a", "", "spam")
		require.NoError(t, err)
	}
	_, err := l.AddComment(ctx, "p1", "visitor_a", "", "spam")
	assert.ErrorIs(t, err, models.ErrRateLimited)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = l.AddComment(ctx, "p1", "visitor_b", "", "hello")
	assert.NoError(t, err)
}

func TestAddCommentRateLimitSurvivesReopen(t *testing.T) {
	first, st := newTestLedger(t, Options{CommentsPerMinute: 1, CommentBurst: 3})
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		_, err := first.AddComment(ctx, "p1", "visitor_a", "", "hello")
		require.NoError(t, err)
	}

	second := New(st, st, nil, Options{CommentsPerMinute: 1, CommentBurst: 3})
	second.now = func() time.Time { return base.Add(30 * time.Second) }
	_, err := second.AddComment(ctx, "p2", "visitor_a", "", "again")
	assert.ErrorIs(t, err, models.ErrRateLimited)

	_, err = second.AddComment(ctx, "p2", "visitor_b", "", "other actor")
	assert.NoError(t, err)

	third := New(st, st, nil, Options{CommentsPerMinute: 1, CommentBurst: 3})
	third.now = func() time.Time { return base.Add(3*time.Minute + time.Second) }
	_, err = third.AddComment(ctx, "p2", "visitor_a", "", "later")
	assert.NoError(t, err)

	comments, err := third.GetComments(ctx, "p2")
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestVisitorIDIsStable(t *testing.T) {
	l, st := newTestLedger(t, Options{})
	ctx := context.Background()

	first, err := l.VisitorID(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first, "visitor_"))

	second, err := New(st, st, nil, Options{}).VisitorID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

package ledger

import (
	"context"
	"strings"

	"folio/internal/models"
)

// GetReaction returns the aggregate of a publication as seen by actorID. Unknown
// publications yield a zero count.
func (l *Ledger) GetReaction(ctx context.Context, publicationID, actorID string) (models.Reaction, error) {
	const op = "ledger.get_reaction"
	publicationID = strings.TrimSpace(publicationID)
	actorID = strings.TrimSpace(actorID)

	out := models.Reaction{PublicationID: publicationID, ActiveType: models.ReactionLike}
	agg, err := l.store.GetReactionAggregate(ctx, publicationID)
	if err != nil {
		return out, models.StorageError(op, err)
	}
	if agg != nil {
		out.Count = agg.Count
		out.ActiveType = agg.ActiveType
	}
	if actorID != "" {
		mine, err := l.store.GetUserReaction(ctx, publicationID, actorID)
		if err != nil {
			return out, models.StorageError(op, err)
		}
		out.ActorReaction = mine
	}
	return out, nil
}

// ToggleReaction applies one reaction click:
//   - first reaction on the publication creates the aggregate with count 1
//   - the actor's current type again retracts it and decrements (floored at 0)
//   - a different type swaps the actor's reaction and leaves the count unchanged
//   - otherwise the actor's reaction is added and the count incremented
func (l *Ledger) ToggleReaction(ctx context.Context, publicationID, actorID string, reaction models.ReactionType) (models.Reaction, error) {
	const op = "ledger.toggle_reaction"
	publicationID = strings.TrimSpace(publicationID)
	actorID = strings.TrimSpace(actorID)

	if publicationID == "" {
		return models.Reaction{}, models.ValidationError(op, "publication id is required")
	}
	if actorID == "" {
		return models.Reaction{}, models.ValidationError(op, "actor id is required")
	}
	reaction, err := models.ParseReactionType(string(reaction))
	if err != nil {
		return models.Reaction{}, models.ValidationError(op, "%v", err)
	}

	now := l.now()
	agg, actor, err := l.store.UpdateReaction(ctx, publicationID, actorID, func(agg *models.ReactionAggregate, current models.ReactionType) (models.ReactionAggregate, models.ReactionType, error) {
		if agg == nil {
			return models.ReactionAggregate{Count: 1, ActiveType: reaction, UpdatedAt: now}, reaction, nil
		}
		next := *agg
		next.UpdatedAt = now
		switch current {
		case reaction:
			next.Count = max(0, next.Count-1)
			return next, "", nil
		case "":
			next.Count++
		}
		next.ActiveType = reaction
		return next, reaction, nil
	})
	if err != nil {
		return models.Reaction{}, models.StorageError(op, err)
	}

	l.logger.Debug("reaction toggled", "publication", publicationID, "actor", actorID, "type", reaction, "count", agg.Count)
	return models.Reaction{
		PublicationID: publicationID,
		Count:         agg.Count,
		ActiveType:    agg.ActiveType,
		ActorReaction: actor,
	}, nil
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// ReactionType is the kind of reaction a visitor leaves on a publication.
type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

// DefaultCommentAuthor is recorded when a commenter leaves the name blank.
const DefaultCommentAuthor = "Anonyme"

// ParseReactionType validates a raw reaction type.
func ParseReactionType(raw string) (ReactionType, error) {
	value := ReactionType(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case ReactionLike, ReactionDislike:
		return value, nil
	case "":
		return "", fmt.Errorf("reaction type is required")
	default:
		return "", fmt.Errorf("invalid reaction type: %s", value)
	}
}

// ReactionAggregate is the persisted per-publication counter.
// ActiveType is the type of the last state-changing event and is informational only.
type ReactionAggregate struct {
	PublicationID string       `json:"publication_id"`
	Count         int          `json:"count"`
	ActiveType    ReactionType `json:"active_type"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Reaction is the aggregate as seen by one actor.
type Reaction struct {
	PublicationID string       `json:"publication_id"`
	Count         int          `json:"count"`
	ActiveType    ReactionType `json:"active_type"`
	ActorReaction ReactionType `json:"actor_reaction,omitempty"`
}

// Comment is one visitor comment on a publication.
type Comment struct {
	ID            string    `json:"id"`
	PublicationID string    `json:"publication_id"`
	Author        string    `json:"author"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

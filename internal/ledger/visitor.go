package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"folio/internal/models"
)

const visitorIDKey = "visitor-id"

// VisitorID returns this device's actor id, creating and persisting it on first use.
func (l *Ledger) VisitorID(ctx context.Context) (string, error) {
	const op = "ledger.visitor_id"
	existing, ok, err := l.kv.GetValue(ctx, visitorIDKey)
	if err != nil {
		return "", models.StorageError(op, err)
	}
	if ok && strings.TrimSpace(existing) != "" {
		return existing, nil
	}
	id, err := l.kv.PutValueIfAbsent(ctx, visitorIDKey, "visitor_"+uuid.NewString())
	if err != nil {
		return "", models.StorageError(op, err)
	}
	return id, nil
}

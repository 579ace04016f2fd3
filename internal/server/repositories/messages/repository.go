// Package messages declares the repository contract for message rows,
// including the ordered range queries backing cursor pagination.
package messages

import (
	"context"
	"time"

	"github.com/dmitrijs2005/messenger/internal/server/models"
)

// Repository defines message persistence. Range queries order by
// (created_at, id) so that ordering stays stable even if two messages share
// a timestamp at the storage engine's precision.
type Repository interface {
	// Create stores a new message with a fresh id and returns it with the
	// storage-assigned creation timestamp.
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)

	// GetInMessenger loads a message only if it belongs to the messenger;
	// otherwise common.ErrNotFound.
	GetInMessenger(ctx context.Context, id, messengerID string) (*models.Message, error)

	// UpdateTextBySender replaces the text and sets the edited flag, but
	// only when senderID authored the message; otherwise common.ErrNotFound.
	UpdateTextBySender(ctx context.Context, id, senderID, text string) (*models.Message, error)

	// DeleteBySender removes the message only when senderID authored it,
	// returning the owning messenger id; otherwise common.ErrNotFound.
	DeleteBySender(ctx context.Context, id, senderID string) (messengerID string, err error)

	// ListBefore returns up to limit messages created strictly before ts,
	// newest first.
	ListBefore(ctx context.Context, messengerID string, ts time.Time, limit int) ([]*models.Message, error)

	// ListAfter returns up to limit messages created strictly after ts,
	// oldest first.
	ListAfter(ctx context.Context, messengerID string, ts time.Time, limit int) ([]*models.Message, error)

	// CountAfter counts messages created strictly after ts, or all messages
	// of the messenger when ts is nil.
	CountAfter(ctx context.Context, messengerID string, ts *time.Time) (int64, error)
}

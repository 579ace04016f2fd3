// Package readrecords declares the repository contract for last-read marks.
package readrecords

import (
	"context"
	"time"

	"github.com/dmitrijs2005/messenger/internal/server/models"
)

// Repository stores one last-read timestamp per (user, messenger) pair.
type Repository interface {
	// Upsert records readAt for the pair, replacing any previous value.
	Upsert(ctx context.Context, userID, messengerID string, readAt time.Time) error

	// Get returns the pair's record, or common.ErrNotFound when the user
	// has never marked the messenger as read.
	Get(ctx context.Context, userID, messengerID string) (*models.ReadRecord, error)
}

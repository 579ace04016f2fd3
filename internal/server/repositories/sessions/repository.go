// Package sessions declares the repository contract for persisted sessions.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/messenger/internal/server/models"
)

// Repository defines operations for creating, querying, and destroying
// session rows. The revocation whitelist is maintained separately by the
// session manager; these rows are advisory from the validity standpoint.
type Repository interface {
	// Create stores a new session with a fresh id and returns it.
	Create(ctx context.Context, session *models.Session) (*models.Session, error)

	// ListByUser returns all sessions owned by a user.
	ListByUser(ctx context.Context, userID string) ([]*models.Session, error)

	// FindByRefreshToken looks a session up by its opaque refresh token.
	// Implementations return common.ErrNotFound when the token is unknown.
	FindByRefreshToken(ctx context.Context, token string) (*models.Session, error)

	// Touch bumps the session's last-used timestamp to now.
	Touch(ctx context.Context, id string) error

	// Delete removes a session by id. Deleting a non-existent session is
	// not an error.
	Delete(ctx context.Context, id string) error

	// DeleteAllExcept removes every session of the user except the given one.
	DeleteAllExcept(ctx context.Context, userID string, keepID string) error
}

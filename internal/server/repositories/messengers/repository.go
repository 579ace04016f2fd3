// Package messengers declares the repository contract for conversations and
// their member sets.
package messengers

import (
	"context"

	"github.com/dmitrijs2005/messenger/internal/server/models"
)

// Repository defines membership-scoped access to messengers. Lookups that
// take both a messenger id and a user id resolve the row only when the user
// is a member, so "absent" and "not a member" are indistinguishable.
type Repository interface {
	// Create stores a new messenger with a fresh id and returns it.
	Create(ctx context.Context, m *models.Messenger) (*models.Messenger, error)

	// GetForMember loads the messenger only if userID is a member;
	// otherwise it returns common.ErrNotFound.
	GetForMember(ctx context.Context, messengerID, userID string) (*models.Messenger, error)

	// ListByMember returns messengers where userID is a member.
	ListByMember(ctx context.Context, userID string) ([]*models.Messenger, error)

	// IsMember reports whether userID is in the messenger's member set.
	IsMember(ctx context.Context, messengerID, userID string) (bool, error)

	// AddMember inserts a membership row; adding an existing member is a no-op.
	AddMember(ctx context.Context, messengerID, userID string) error

	// RemoveMember deletes a membership row.
	RemoveMember(ctx context.Context, messengerID, userID string) error

	// MemberIDs returns the ids of all members of the messenger.
	MemberIDs(ctx context.Context, messengerID string) ([]string, error)

	// SetPinnedMessage updates the pinned message reference; nil unpins.
	SetPinnedMessage(ctx context.Context, messengerID string, messageID *string) error

	// Delete removes a messenger; messages and memberships cascade.
	Delete(ctx context.Context, messengerID string) error
}

package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/messenger/internal/common"
	"github.com/dmitrijs2005/messenger/internal/server/models"
	"github.com/dmitrijs2005/messenger/internal/server/repositories/repomanager"
)

// AccessService answers authorization questions for messengers and
// messages. Lookups are membership-scoped in a single query, so callers
// never observe a load-then-check gap, and a denied caller cannot tell a
// missing messenger from one they are not a member of.
//
// It also satisfies events.AccessChecker, which is how fan-out filters
// re-evaluate membership per delivered event.
type AccessService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewAccessService constructs an AccessService.
func NewAccessService(db *sql.DB, m repomanager.RepositoryManager) *AccessService {
	return &AccessService{db: db, repomanager: m}
}

// CanAccessMessenger reports whether userID is in the messenger's member set.
func (s *AccessService) CanAccessMessenger(ctx context.Context, userID, messengerID string) (bool, error) {
	repo := s.repomanager.Messengers(s.db)
	return repo.IsMember(ctx, messengerID, userID)
}

// RequireMember loads the messenger only if userID is a member; otherwise it
// fails with common.ErrNotFound.
func (s *AccessService) RequireMember(ctx context.Context, messengerID, userID string) (*models.Messenger, error) {
	repo := s.repomanager.Messengers(s.db)
	return repo.GetForMember(ctx, messengerID, userID)
}

// RequireAdmin fails with common.ErrForbidden unless userID is the
// messenger's admin. The messenger must already have been resolved through
// a membership-scoped lookup.
func (s *AccessService) RequireAdmin(m *models.Messenger, userID string) error {
	if m.AdminID != userID {
		return common.ErrForbidden
	}
	return nil
}

// RequireSender fails with common.ErrForbidden unless userID authored the
// message.
func (s *AccessService) RequireSender(userID string, msg *models.Message) error {
	if msg.SenderID != userID {
		return common.ErrForbidden
	}
	return nil
}

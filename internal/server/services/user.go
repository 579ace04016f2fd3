package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/messenger/internal/common"
	"github.com/dmitrijs2005/messenger/internal/server/auth"
	"github.com/dmitrijs2005/messenger/internal/server/models"
	"github.com/dmitrijs2005/messenger/internal/server/repositories/repomanager"
)

// UserService provides account operations:
//   - SignUp: create a user and open its first session
//   - LogIn: verify credentials, evict stale sessions, open a session
//   - ChangePassword / DeleteAccount: explicit account mutations
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionService
}

// NewUserService constructs a UserService using repositories and the
// session manager.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, sessions *SessionService) *UserService {
	return &UserService{db: db, repomanager: m, sessions: sessions}
}

// SignUp registers a new user and returns the token pair of its first
// session. A taken login yields common.ErrConflict.
func (s *UserService) SignUp(ctx context.Context, login, password string) (*Tokens, error) {
	if login == "" || password == "" {
		return nil, common.ErrInvalidArgument
	}

	saltedPassword, err := auth.SaltPassword(password)
	if err != nil {
		return nil, common.ErrInternal
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.Create(ctx, &models.User{Login: login, SaltedPassword: saltedPassword})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.sessions.OpenSession(ctx, user)
}

// LogIn verifies the login/password pair and opens a new session, evicting
// the least-recently-used one first when the user is at the session cap.
// Unknown logins and wrong passwords are indistinguishable.
func (s *UserService) LogIn(ctx context.Context, login, password string) (*Tokens, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if err := auth.VerifyPassword(user.SaltedPassword, password); err != nil {
		return nil, common.ErrUnauthorized
	}

	sessions, err := s.repomanager.Sessions(s.db).ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}

	// Eviction completes before the new session opens, so the cap is never
	// observably exceeded.
	if err := s.sessions.TerminateOutdatedSessions(ctx, sessions); err != nil {
		return nil, fmt.Errorf("error terminating outdated sessions: %w", err)
	}

	return s.sessions.OpenSession(ctx, user)
}

// Self returns the caller's account metadata.
func (s *UserService) Self(ctx context.Context, callerID string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	return repo.GetByID(ctx, callerID)
}

// ChangePassword verifies the old password and replaces the stored hash.
func (s *UserService) ChangePassword(ctx context.Context, callerID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return common.ErrInvalidArgument
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, callerID)
	if err != nil {
		return err
	}

	if err := auth.VerifyPassword(user.SaltedPassword, oldPassword); err != nil {
		return common.ErrUnauthorized
	}

	saltedPassword, err := auth.SaltPassword(newPassword)
	if err != nil {
		return common.ErrInternal
	}
	return repo.UpdatePassword(ctx, callerID, saltedPassword)
}

// DeleteAccount verifies the password and removes the user. Every session id
// is revoked from the whitelist before the row delete cascades, so no token
// of the deleted account validates afterwards.
func (s *UserService) DeleteAccount(ctx context.Context, callerID, password string) error {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, callerID)
	if err != nil {
		return err
	}

	if err := auth.VerifyPassword(user.SaltedPassword, password); err != nil {
		return common.ErrUnauthorized
	}

	sessions, err := s.repomanager.Sessions(s.db).ListByUser(ctx, callerID)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	for _, session := range sessions {
		s.sessions.whitelist.Revoke(session.ID)
	}

	return repo.Delete(ctx, callerID)
}

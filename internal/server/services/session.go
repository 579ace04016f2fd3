// Package services contains server-side business logic. This file implements
// SessionService, which manages the session lifecycle: issuing and revoking
// access/refresh token pairs, evicting stale sessions, and validating bearer
// tokens into a caller context.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/messenger/internal/common"
	"github.com/dmitrijs2005/messenger/internal/server/auth"
	"github.com/dmitrijs2005/messenger/internal/server/config"
	"github.com/dmitrijs2005/messenger/internal/server/models"
	"github.com/dmitrijs2005/messenger/internal/server/repositories/repomanager"
)

// refreshTokenBytes is the entropy of the opaque refresh token: 32 random
// bytes (256 bits), hex encoded.
const refreshTokenBytes = 32

// maxSessionsPerUser caps concurrent sessions. When a user logging in
// already holds this many, the least-recently-used one is evicted first.
const maxSessionsPerUser = 5

// Tokens bundles the opaque refresh token and the signed access token
// returned by login/signup.
type Tokens struct {
	RefreshToken string
	AccessToken  string
}

// SessionService owns the session lifecycle and the revocation whitelist.
// The whitelist, not the session table, is the single source of truth for
// token validity: revocation removes the whitelist entry before the row, so
// an interrupted close still fails closed.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	whitelist   auth.Whitelist
	jwtSecret   []byte
	freshness   time.Duration
}

// NewSessionService constructs a SessionService from repositories, the
// process-wide whitelist, and server config.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, wl auth.Whitelist, cfg *config.Config) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		whitelist:   wl,
		jwtSecret:   []byte(cfg.SecretKey),
		freshness:   cfg.AccessTokenFreshness,
	}
}

// OpenSession creates a session for the user and returns its token pair.
// The row is persisted before the whitelist entry is added: a crash in
// between leaves a session that can never validate, never the reverse.
func (s *SessionService) OpenSession(ctx context.Context, user *models.User) (*Tokens, error) {
	refreshToken, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return nil, common.ErrInternal
	}

	repo := s.repomanager.Sessions(s.db)
	session, err := repo.Create(ctx, &models.Session{UserID: user.ID, RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	s.whitelist.Accept(session.ID)

	accessToken, err := auth.GenerateAccessToken(auth.Context{CallerID: user.ID, SessionID: session.ID}, s.jwtSecret)
	if err != nil {
		return nil, common.ErrInternal
	}

	return &Tokens{RefreshToken: refreshToken, AccessToken: accessToken}, nil
}

// CloseSession revokes the session. The whitelist entry goes first so the
// session is already invalid while its row still exists; the row delete is
// advisory cleanup.
func (s *SessionService) CloseSession(ctx context.Context, sessionID string) error {
	s.whitelist.Revoke(sessionID)

	repo := s.repomanager.Sessions(s.db)
	if err := repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// CloseAllSessionsExceptCurrent closes every session of the caller except
// the one identified by the caller context, and returns the surviving one.
func (s *SessionService) CloseAllSessionsExceptCurrent(ctx context.Context, caller auth.Context) (*models.Session, error) {
	repo := s.repomanager.Sessions(s.db)

	sessions, err := repo.ListByUser(ctx, caller.CallerID)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}

	var current *models.Session
	for _, session := range sessions {
		if session.ID == caller.SessionID {
			current = session
			continue
		}
		s.whitelist.Revoke(session.ID)
	}
	if current == nil {
		return nil, common.ErrNotFound
	}

	if err := repo.DeleteAllExcept(ctx, caller.CallerID, caller.SessionID); err != nil {
		return nil, fmt.Errorf("error deleting sessions: %w", err)
	}
	return current, nil
}

// TerminateOutdatedSessions enforces the session cap before a new session is
// opened: when the user already holds maxSessionsPerUser sessions or more,
// the one with the oldest last-used timestamp is closed. Ties keep the first
// session encountered; ordering among ties is undefined.
func (s *SessionService) TerminateOutdatedSessions(ctx context.Context, sessions []*models.Session) error {
	if len(sessions) < maxSessionsPerUser {
		return nil
	}

	oldest := sessions[0]
	for _, session := range sessions[1:] {
		if oldest.LastUsed.After(session.LastUsed) {
			oldest = session
		}
	}

	return s.CloseSession(ctx, oldest.ID)
}

// ValidateAccessToken turns a bearer token into a caller context. The check
// is two-stage: signature plus freshness first (a stolen token cannot be
// replayed past the freshness window even if the whitelist were bypassed),
// then whitelist membership (a revoked session is rejected even with a
// cryptographically valid, fresh signature).
func (s *SessionService) ValidateAccessToken(ctx context.Context, token string) (*auth.Context, error) {
	caller, err := auth.ParseAccessToken(token, s.jwtSecret, s.freshness)
	if err != nil {
		return nil, err
	}

	if !s.whitelist.Check(caller.SessionID) {
		return nil, common.ErrSessionRevoked
	}

	return caller, nil
}

// RefreshAccessToken mints a fresh access token for the session holding the
// given refresh token and bumps its last-used timestamp. The whitelist entry
// is re-accepted: the whitelist is derivable from the session table, so a
// live session row re-validates after a process restart.
func (s *SessionService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	repo := s.repomanager.Sessions(s.db)

	session, err := repo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		return "", fmt.Errorf("error searching session: %w", err)
	}

	if err := repo.Touch(ctx, session.ID); err != nil {
		return "", fmt.Errorf("error touching session: %w", err)
	}
	s.whitelist.Accept(session.ID)

	accessToken, err := auth.GenerateAccessToken(auth.Context{CallerID: session.UserID, SessionID: session.ID}, s.jwtSecret)
	if err != nil {
		return "", common.ErrInternal
	}
	return accessToken, nil
}

// Sessions returns the list of all caller's active sessions.
func (s *SessionService) Sessions(ctx context.Context, callerID string) ([]*models.Session, error) {
	repo := s.repomanager.Sessions(s.db)
	return repo.ListByUser(ctx, callerID)
}

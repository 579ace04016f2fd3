package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/messenger/internal/common"
	"github.com/dmitrijs2005/messenger/internal/dbx"
	"github.com/dmitrijs2005/messenger/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements the sessions Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new session row and returns it with id and last_used set.
func (r *PostgresRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	query := `
		INSERT INTO sessions (id, user_id, refresh_token)
		VALUES ($1, $2, $3)
		RETURNING last_used
	`
	session.ID = uuid.NewString()
	err := r.db.QueryRowContext(ctx, query, session.ID, session.UserID, session.RefreshToken).Scan(&session.LastUsed)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return session, nil
}

// ListByUser returns all sessions owned by userID.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Session, error) {
	query := `
		SELECT id, user_id, refresh_token, last_used FROM sessions
		WHERE user_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Session
	for rows.Next() {
		s := &models.Session{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.LastUsed); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// FindByRefreshToken returns the session holding the given refresh token,
// or common.ErrNotFound.
func (r *PostgresRepository) FindByRefreshToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT id, user_id, refresh_token, last_used FROM sessions
		WHERE refresh_token = $1
	`
	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.LastUsed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// Touch bumps last_used to the current time.
func (r *PostgresRepository) Touch(ctx context.Context, id string) error {
	query := `
		UPDATE sessions SET last_used = now()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes a session by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM sessions
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteAllExcept removes every session of userID except keepID.
func (r *PostgresRepository) DeleteAllExcept(ctx context.Context, userID string, keepID string) error {
	query := `
		DELETE FROM sessions
		WHERE user_id = $1 AND id <> $2
	`
	if _, err := r.db.ExecContext(ctx, query, userID, keepID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Package users provides a PostgreSQL-backed repository for user accounts.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/messenger/internal/common"
	"github.com/dmitrijs2005/messenger/internal/dbx"
	"github.com/dmitrijs2005/messenger/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository implements CRUD operations for users over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. A taken login yields common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, login, salted_password)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	user.ID = uuid.NewString()
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Login, user.SaltedPassword).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// GetByLogin returns the user with the given login, or common.ErrNotFound.
func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `
		SELECT id, login, salted_password, created_at FROM users
		WHERE login = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, login))
}

// GetByID returns the user with the given id, or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, login, salted_password, created_at FROM users
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// UpdatePassword replaces the stored salted password hash.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, saltedPassword string) error {
	query := `
		UPDATE users SET salted_password = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, saltedPassword); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes a user; sessions, memberships, and read records cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM users
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Login, &user.SaltedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

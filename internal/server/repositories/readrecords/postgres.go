package readrecords

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/messenger/internal/common"
	"github.com/dmitrijs2005/messenger/internal/dbx"
	"github.com/dmitrijs2005/messenger/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements the readrecords Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts or replaces the last-read mark for (userID, messengerID).
func (r *PostgresRepository) Upsert(ctx context.Context, userID, messengerID string, readAt time.Time) error {
	query := `
		INSERT INTO read_records (id, user_id, messenger_id, read_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, messenger_id) DO UPDATE SET read_at = EXCLUDED.read_at
	`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, messengerID, readAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the last-read mark for (userID, messengerID).
func (r *PostgresRepository) Get(ctx context.Context, userID, messengerID string) (*models.ReadRecord, error) {
	query := `
		SELECT id, user_id, messenger_id, read_at FROM read_records
		WHERE user_id = $1 AND messenger_id = $2
	`
	rec := &models.ReadRecord{}
	err := r.db.QueryRowContext(ctx, query, userID, messengerID).Scan(&rec.ID, &rec.UserID, &rec.MessengerID, &rec.ReadAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

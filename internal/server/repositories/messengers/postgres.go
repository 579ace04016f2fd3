package messengers

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

// PostgresRepository implements the messengers Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new messenger row.
func (r *PostgresRepository) Create(ctx context.Context, m *models.Messenger) (*models.Messenger, error) {
	query := `
		INSERT INTO messengers (id, title, admin_id)
		VALUES ($1, $2, $3)
	`
	m.ID = uuid.NewString()
	if _, err := r.db.ExecContext(ctx, query, m.ID, m.Title, m.AdminID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

// GetForMember resolves the messenger through a membership join, so a
// non-member caller gets common.ErrNotFound whether or not the row exists.
func (r *PostgresRepository) GetForMember(ctx context.Context, messengerID, userID string) (*models.Messenger, error) {
	query := `
		SELECT m.id, m.title, m.admin_id, m.pinned_message_id
		FROM messengers m
		INNER JOIN messenger_members mm ON mm.messenger_id = m.id
		WHERE m.id = $1 AND mm.user_id = $2
	`
	m := &models.Messenger{}
	err := r.db.QueryRowContext(ctx, query, messengerID, userID).Scan(&m.ID, &m.Title, &m.AdminID, &m.PinnedMessageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

// ListByMember returns all messengers where userID is a member.
func (r *PostgresRepository) ListByMember(ctx context.Context, userID string) ([]*models.Messenger, error) {
	query := `
		SELECT m.id, m.title, m.admin_id, m.pinned_message_id
		FROM messengers m
		INNER JOIN messenger_members mm ON mm.messenger_id = m.id
		WHERE mm.user_id = $1
		ORDER BY m.title, m.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Messenger
	for rows.Next() {
		m := &models.Messenger{}
		if err := rows.Scan(&m.ID, &m.Title, &m.AdminID, &m.PinnedMessageID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// IsMember reports whether userID is in the messenger's member set.
func (r *PostgresRepository) IsMember(ctx context.Context, messengerID, userID string) (bool, error) {
	query := `
		SELECT COUNT(*) FROM messenger_members
		WHERE messenger_id = $1 AND user_id = $2
	`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, messengerID, userID).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// AddMember inserts a membership row, ignoring duplicates.
func (r *PostgresRepository) AddMember(ctx context.Context, messengerID, userID string) error {
	query := `
		INSERT INTO messenger_members (messenger_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, messengerID, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership row.
func (r *PostgresRepository) RemoveMember(ctx context.Context, messengerID, userID string) error {
	query := `
		DELETE FROM messenger_members
		WHERE messenger_id = $1 AND user_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, messengerID, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// MemberIDs returns the ids of all members of the messenger.
func (r *PostgresRepository) MemberIDs(ctx context.Context, messengerID string) ([]string, error) {
	query := `
		SELECT user_id FROM messenger_members
		WHERE messenger_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, messengerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

// SetPinnedMessage updates the pinned message reference; nil unpins.
func (r *PostgresRepository) SetPinnedMessage(ctx context.Context, messengerID string, messageID *string) error {
	query := `
		UPDATE messengers SET pinned_message_id = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, messengerID, messageID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes a messenger; messages and memberships cascade via FKs.
func (r *PostgresRepository) Delete(ctx context.Context, messengerID string) error {
	query := `
		DELETE FROM messengers
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, messengerID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

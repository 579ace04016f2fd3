package messages

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

// PostgresRepository implements the messages Repository over dbx.DBTX.
// Bind it to a REPEATABLE READ transaction to get the snapshot-consistent
// reads the "around" window requires.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const messageColumns = `id, messenger_id, sender_id, text, responds_to_id, created_at, is_edited`

// Create inserts a new message row.
func (r *PostgresRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query := `
		INSERT INTO messages (id, messenger_id, sender_id, text, responds_to_id, is_edited)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING created_at
	`
	msg.ID = uuid.NewString()
	msg.IsEdited = false
	err := r.db.QueryRowContext(ctx, query,
		msg.ID, msg.MessengerID, msg.SenderID, msg.Text, msg.RespondsToID).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return msg, nil
}

// GetInMessenger loads a message scoped to its messenger.
func (r *PostgresRepository) GetInMessenger(ctx context.Context, id, messengerID string) (*models.Message, error) {
	query := `
		SELECT ` + messageColumns + ` FROM messages
		WHERE id = $1 AND messenger_id = $2
	`
	return scanOne(r.db.QueryRowContext(ctx, query, id, messengerID))
}

// UpdateTextBySender edits the message in one sender-scoped statement, so
// there is no separate load-then-check step visible to the caller.
func (r *PostgresRepository) UpdateTextBySender(ctx context.Context, id, senderID, text string) (*models.Message, error) {
	query := `
		UPDATE messages SET text = $3, is_edited = TRUE
		WHERE id = $1 AND sender_id = $2
		RETURNING ` + messageColumns + `
	`
	return scanOne(r.db.QueryRowContext(ctx, query, id, senderID, text))
}

// DeleteBySender removes the message in one sender-scoped statement and
// reports which messenger it belonged to.
func (r *PostgresRepository) DeleteBySender(ctx context.Context, id, senderID string) (string, error) {
	query := `
		DELETE FROM messages
		WHERE id = $1 AND sender_id = $2
		RETURNING messenger_id
	`
	var messengerID string
	err := r.db.QueryRowContext(ctx, query, id, senderID).Scan(&messengerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return messengerID, nil
}

// ListBefore returns up to limit messages created strictly before ts,
// ordered newest first. Ties on created_at are broken by id.
func (r *PostgresRepository) ListBefore(ctx context.Context, messengerID string, ts time.Time, limit int) ([]*models.Message, error) {
	query := `
		SELECT ` + messageColumns + ` FROM messages
		WHERE messenger_id = $1 AND created_at < $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	return r.list(ctx, query, messengerID, ts, limit)
}

// ListAfter returns up to limit messages created strictly after ts,
// ordered oldest first. Ties on created_at are broken by id.
func (r *PostgresRepository) ListAfter(ctx context.Context, messengerID string, ts time.Time, limit int) ([]*models.Message, error) {
	query := `
		SELECT ` + messageColumns + ` FROM messages
		WHERE messenger_id = $1 AND created_at > $2
		ORDER BY created_at ASC, id ASC
		LIMIT $3
	`
	return r.list(ctx, query, messengerID, ts, limit)
}

// CountAfter counts messages created strictly after ts (all when ts is nil).
func (r *PostgresRepository) CountAfter(ctx context.Context, messengerID string, ts *time.Time) (int64, error) {
	var (
		row *sql.Row
	)
	if ts == nil {
		row = r.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM messages
			WHERE messenger_id = $1
		`, messengerID)
	} else {
		row = r.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM messages
			WHERE messenger_id = $1 AND created_at > $2
		`, messengerID, *ts)
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.MessengerID, &m.SenderID, &m.Text, &m.RespondsToID, &m.CreatedAt, &m.IsEdited); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func scanOne(row *sql.Row) (*models.Message, error) {
	m := &models.Message{}
	err := row.Scan(&m.ID, &m.MessengerID, &m.SenderID, &m.Text, &m.RespondsToID, &m.CreatedAt, &m.IsEdited)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/messenger/internal/common"
	"github.com/dmitrijs2005/messenger/internal/dbx"
	"github.com/dmitrijs2005/messenger/internal/logging"
	"github.com/dmitrijs2005/messenger/internal/server/events"
	"github.com/dmitrijs2005/messenger/internal/server/models"
	"github.com/dmitrijs2005/messenger/internal/server/pubsub"
	"github.com/dmitrijs2005/messenger/internal/server/repositories/repomanager"
)

// Pagination window sizes. A before/after request returns at most
// windowLimit messages; an around request returns at most aroundBefore
// earlier plus the anchor plus aroundAfter later messages.
const (
	windowLimit  = 30
	aroundBefore = 14
	aroundAfter  = 15
)

// Window selects exactly one way to bound a page of message history:
// strictly before a timestamp, strictly after one, or around an anchor
// message. Anything else is an invalid argument.
type Window struct {
	Before *time.Time
	After  *time.Time
	Around *string
}

func (w Window) validate() error {
	n := 0
	if w.Before != nil {
		n++
	}
	if w.After != nil {
		n++
	}
	if w.Around != nil {
		n++
	}
	if n != 1 {
		return common.ErrInvalidArgument
	}
	return nil
}

// MessageService posts, edits, deletes, and pages through messages. Every
// operation resolves its target through a membership- or sender-scoped
// lookup, and mutations publish to the broker after the write is committed.
type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *AccessService
	broker      *pubsub.Broker
	logger      logging.Logger
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *sql.DB, m repomanager.RepositoryManager, access *AccessService, broker *pubsub.Broker, logger logging.Logger) *MessageService {
	return &MessageService{
		db:          db,
		repomanager: m,
		access:      access,
		broker:      broker,
		logger:      logger.With("module", "message_service"),
	}
}

// Post creates a message in the messenger. The caller must be a member; a
// responds-to reference must point at a message of the same messenger.
func (s *MessageService) Post(ctx context.Context, callerID, messengerID, text string, respondsToID *string) (*models.Message, error) {
	if text == "" {
		return nil, common.ErrInvalidArgument
	}
	if _, err := s.access.RequireMember(ctx, messengerID, callerID); err != nil {
		return nil, err
	}

	repo := s.repomanager.Messages(s.db)

	if respondsToID != nil {
		if _, err := repo.GetInMessenger(ctx, *respondsToID, messengerID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrInvalidArgument
			}
			return nil, err
		}
	}

	msg, err := repo.Create(ctx, &models.Message{
		MessengerID:  messengerID,
		SenderID:     callerID,
		Text:         text,
		RespondsToID: respondsToID,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating message: %w", err)
	}

	s.broker.Publish(ctx, events.Event{
		Topic:       events.TopicMessagePosted,
		MessengerID: messengerID,
		MessageID:   msg.ID,
		Message:     msg,
	})
	return msg, nil
}

// Edit replaces the message text and marks it edited. The sender-scoped
// update conflates "no such message" and "not the sender" into one denial.
func (s *MessageService) Edit(ctx context.Context, callerID, messageID, newText string) (*models.Message, error) {
	if newText == "" {
		return nil, common.ErrInvalidArgument
	}

	repo := s.repomanager.Messages(s.db)
	msg, err := repo.UpdateTextBySender(ctx, messageID, callerID, newText)
	if err != nil {
		return nil, err
	}

	s.broker.Publish(ctx, events.Event{
		Topic:       events.TopicMessageEdited,
		MessengerID: msg.MessengerID,
		MessageID:   msg.ID,
		Message:     msg,
	})
	return msg, nil
}

// Delete removes the message. Sender-scoped, same conflation as Edit.
func (s *MessageService) Delete(ctx context.Context, callerID, messageID string) error {
	repo := s.repomanager.Messages(s.db)
	messengerID, err := repo.DeleteBySender(ctx, messageID, callerID)
	if err != nil {
		return err
	}

	s.broker.Publish(ctx, events.Event{
		Topic:       events.TopicMessageDeleted,
		MessengerID: messengerID,
		MessageID:   messageID,
	})
	return nil
}

// FindMany serves a page of the messenger's history bounded by the window,
// in ascending (chronological) order. The around window runs its two range
// reads inside one REPEATABLE READ transaction: without a single snapshot,
// a message inserted between the reads could appear twice or be missed.
func (s *MessageService) FindMany(ctx context.Context, callerID, messengerID string, window Window) ([]*models.Message, error) {
	if err := window.validate(); err != nil {
		return nil, err
	}
	if _, err := s.access.RequireMember(ctx, messengerID, callerID); err != nil {
		return nil, err
	}

	repo := s.repomanager.Messages(s.db)

	switch {
	case window.Before != nil:
		page, err := repo.ListBefore(ctx, messengerID, *window.Before, windowLimit)
		if err != nil {
			return nil, err
		}
		reverse(page)
		return page, nil

	case window.After != nil:
		return repo.ListAfter(ctx, messengerID, *window.After, windowLimit)

	default:
		return s.findAround(ctx, messengerID, *window.Around)
	}
}

func (s *MessageService) findAround(ctx context.Context, messengerID, anchorID string) ([]*models.Message, error) {
	repo := s.repomanager.Messages(s.db)

	anchor, err := repo.GetInMessenger(ctx, anchorID, messengerID)
	if err != nil {
		return nil, err
	}

	var result []*models.Message
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err = dbx.WithTx(ctx, s.db, opts, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Messages(tx)

		before, err := repoTx.ListBefore(ctx, messengerID, anchor.CreatedAt, aroundBefore)
		if err != nil {
			return err
		}
		after, err := repoTx.ListAfter(ctx, messengerID, anchor.CreatedAt, aroundAfter)
		if err != nil {
			return err
		}

		reverse(before)
		result = make([]*models.Message, 0, len(before)+1+len(after))
		result = append(result, before...)
		result = append(result, anchor)
		result = append(result, after...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of the messenger's messages created strictly
// after the given timestamp, or all of them when it is nil. The semantics
// match FindMany's ordering, so it composes with read records into unread
// counts.
func (s *MessageService) Count(ctx context.Context, callerID, messengerID string, after *time.Time) (int64, error) {
	if _, err := s.access.RequireMember(ctx, messengerID, callerID); err != nil {
		return 0, err
	}
	repo := s.repomanager.Messages(s.db)
	return repo.CountAfter(ctx, messengerID, after)
}

func reverse(msgs []*models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

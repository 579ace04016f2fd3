package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/messenger/internal/common"
	"github.com/dmitrijs2005/messenger/internal/dbx"
	"github.com/dmitrijs2005/messenger/internal/logging"
	"github.com/dmitrijs2005/messenger/internal/server/events"
	"github.com/dmitrijs2005/messenger/internal/server/models"
	"github.com/dmitrijs2005/messenger/internal/server/pubsub"
	"github.com/dmitrijs2005/messenger/internal/server/repositories/repomanager"
)

// MessengerService manages conversations: creation, deletion, membership,
// and pins. All reads and mutations are gated through AccessService, and
// live-relevant mutations publish to the broker only after the state change
// is committed, so concurrently evaluated delivery filters observe the
// post-change membership.
type MessengerService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *AccessService
	broker      *pubsub.Broker
	logger      logging.Logger
}

// NewMessengerService constructs a MessengerService.
func NewMessengerService(db *sql.DB, m repomanager.RepositoryManager, access *AccessService, broker *pubsub.Broker, logger logging.Logger) *MessengerService {
	return &MessengerService{
		db:          db,
		repomanager: m,
		access:      access,
		broker:      broker,
		logger:      logger.With("module", "messenger_service"),
	}
}

// ActiveMessengers returns the messengers where the caller is a member.
func (s *MessengerService) ActiveMessengers(ctx context.Context, callerID string) ([]*models.Messenger, error) {
	repo := s.repomanager.Messengers(s.db)
	return repo.ListByMember(ctx, callerID)
}

// Create makes a new messenger with the caller as admin and the given users
// as the initial member list. The admin is always a member. Unknown member
// ids are skipped, mirroring a lookup-by-ids that silently drops absentees.
func (s *MessengerService) Create(ctx context.Context, callerID, title string, memberIDs []string) (*models.Messenger, error) {
	if title == "" {
		return nil, common.ErrInvalidArgument
	}

	var (
		messenger *models.Messenger
		invited   []string
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Messengers(tx)
		usersRepo := s.repomanager.Users(tx)

		var err error
		messenger, err = repo.Create(ctx, &models.Messenger{Title: title, AdminID: callerID})
		if err != nil {
			return err
		}
		if err := repo.AddMember(ctx, messenger.ID, callerID); err != nil {
			return err
		}

		for _, id := range memberIDs {
			if id == callerID {
				continue
			}
			if _, err := usersRepo.GetByID(ctx, id); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					continue
				}
				return err
			}
			if err := repo.AddMember(ctx, messenger.ID, id); err != nil {
				return err
			}
			invited = append(invited, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error creating messenger: %w", err)
	}

	for _, id := range invited {
		s.broker.Publish(ctx, events.Event{
			Topic:       events.TopicUserInvited,
			MessengerID: messenger.ID,
			UserID:      id,
		})
	}
	return messenger, nil
}

// Delete removes a messenger. Only the admin may delete; non-members get
// common.ErrNotFound before the admin check ever runs. Messages, membership
// rows, and the pin reference cascade. The deletion event is addressed to
// each former member individually: after the cascade no membership row is
// left for a messenger-scoped filter to admit.
func (s *MessengerService) Delete(ctx context.Context, callerID, messengerID string) error {
	messenger, err := s.access.RequireMember(ctx, messengerID, callerID)
	if err != nil {
		return err
	}
	if err := s.access.RequireAdmin(messenger, callerID); err != nil {
		return err
	}

	repo := s.repomanager.Messengers(s.db)
	memberIDs, err := repo.MemberIDs(ctx, messengerID)
	if err != nil {
		return err
	}

	if err := repo.Delete(ctx, messengerID); err != nil {
		return fmt.Errorf("error deleting messenger: %w", err)
	}

	for _, id := range memberIDs {
		s.broker.Publish(ctx, events.Event{
			Topic:       events.TopicMessengerDeleted,
			MessengerID: messengerID,
			UserID:      id,
		})
	}
	return nil
}

// Leave removes the caller from the member set. The admin cannot leave; it
// must delete the messenger instead. Membership is checked against the
// target messenger id, and the event goes out only after the removal is
// committed, so the leaver's own filters already fail.
func (s *MessengerService) Leave(ctx context.Context, callerID, messengerID string) error {
	messenger, err := s.access.RequireMember(ctx, messengerID, callerID)
	if err != nil {
		return err
	}
	if messenger.AdminID == callerID {
		return common.ErrForbidden
	}

	repo := s.repomanager.Messengers(s.db)
	if err := repo.RemoveMember(ctx, messengerID, callerID); err != nil {
		return fmt.Errorf("error removing member: %w", err)
	}

	s.broker.Publish(ctx, events.Event{
		Topic:       events.TopicUserLeft,
		MessengerID: messengerID,
		UserID:      callerID,
	})
	return nil
}

// InviteUser adds a user to the member set. Admin only. An unknown invitee
// is a bad foreign reference, not a denial.
func (s *MessengerService) InviteUser(ctx context.Context, callerID, messengerID, userID string) error {
	messenger, err := s.access.RequireMember(ctx, messengerID, callerID)
	if err != nil {
		return err
	}
	if err := s.access.RequireAdmin(messenger, callerID); err != nil {
		return err
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidArgument
		}
		return err
	}

	repo := s.repomanager.Messengers(s.db)
	if err := repo.AddMember(ctx, messengerID, userID); err != nil {
		return fmt.Errorf("error adding member: %w", err)
	}

	s.broker.Publish(ctx, events.Event{
		Topic:       events.TopicUserInvited,
		MessengerID: messengerID,
		UserID:      userID,
	})
	return nil
}

// PinMessage sets or clears the messenger's pinned message. Admin only. A
// non-nil message id must reference a message of this messenger.
func (s *MessengerService) PinMessage(ctx context.Context, callerID, messengerID string, messageID *string) (*models.Messenger, error) {
	messenger, err := s.access.RequireMember(ctx, messengerID, callerID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireAdmin(messenger, callerID); err != nil {
		return nil, err
	}

	if messageID != nil {
		if _, err := s.repomanager.Messages(s.db).GetInMessenger(ctx, *messageID, messengerID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrInvalidArgument
			}
			return nil, err
		}
	}

	repo := s.repomanager.Messengers(s.db)
	if err := repo.SetPinnedMessage(ctx, messengerID, messageID); err != nil {
		return nil, fmt.Errorf("error setting pinned message: %w", err)
	}
	messenger.PinnedMessageID = messageID

	s.broker.Publish(ctx, events.Event{
		Topic:       events.TopicPinChanged,
		MessengerID: messengerID,
		PinnedID:    messageID,
	})
	return messenger, nil
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/messenger/internal/common"
	"github.com/dmitrijs2005/messenger/internal/server/events"
	"github.com/dmitrijs2005/messenger/internal/server/models"
	"github.com/dmitrijs2005/messenger/internal/server/pubsub"
	"github.com/stretchr/testify/require"
)

// collectEvents subscribes to everything on the broker and returns a drain
// function yielding the events delivered so far.
func collectEvents(t *testing.T, broker *pubsub.Broker) func() []events.Event {
	t.Helper()
	sub := broker.Subscribe(context.Background(), matchAll{})
	t.Cleanup(sub.Close)

	var collected []events.Event
	return func() []events.Event {
		for {
			select {
			case ev := <-sub.C:
				collected = append(collected, ev)
			case <-time.After(100 * time.Millisecond):
				return collected
			}
		}
	}
}

type matchAll struct{}

func (matchAll) Match(context.Context, events.Event) bool { return true }

func newMessengerService(t *testing.T, rm *fakeRepoManager) (*MessengerService, func() []events.Event) {
	t.Helper()
	broker := pubsub.NewBroker(noopLogger{})
	t.Cleanup(broker.Close)
	access := NewAccessService(nil, rm)
	return NewMessengerService(nil, rm, access, broker, noopLogger{}), collectEvents(t, broker)
}

func TestMessengerCreate_AddsAdminAndMembers(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var added []string
	rm := &fakeRepoManager{
		messengers: &fakeMessengersRepo{
			create: func(ctx context.Context, m *models.Messenger) (*models.Messenger, error) {
				m.ID = "m1"
				return m, nil
			},
			addMember: func(ctx context.Context, messengerID, userID string) error {
				require.Equal(t, "m1", messengerID)
				added = append(added, userID)
				return nil
			},
		},
		users: &fakeUsersRepo{
			getByID: func(ctx context.Context, id string) (*models.User, error) {
				if id == "ghost" {
					return nil, common.ErrNotFound
				}
				return &models.User{ID: id}, nil
			},
		},
	}
	broker := pubsub.NewBroker(noopLogger{})
	t.Cleanup(broker.Close)
	drain := collectEvents(t, broker)
	s := NewMessengerService(db, rm, NewAccessService(db, rm), broker, noopLogger{})

	messenger, err := s.Create(context.Background(), "admin", "team chat", []string{"bob", "ghost", "admin", "carol"})
	require.NoError(t, err)
	require.Equal(t, "m1", messenger.ID)
	require.Equal(t, "admin", messenger.AdminID)
	require.Equal(t, []string{"admin", "bob", "carol"}, added, "admin joins first; unknown ids are skipped; the admin is not added twice")
	require.NoError(t, mock.ExpectationsWereMet())

	evs := drain()
	require.Len(t, evs, 2)
	for i, userID := range []string{"bob", "carol"} {
		require.Equal(t, events.TopicUserInvited, evs[i].Topic)
		require.Equal(t, "m1", evs[i].MessengerID)
		require.Equal(t, userID, evs[i].UserID)
	}
}

func TestMessengerCreate_EmptyTitle(t *testing.T) {
	s, _ := newMessengerService(t, &fakeRepoManager{})

	_, err := s.Create(context.Background(), "admin", "", nil)
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestMessengerDelete_AdminOnly(t *testing.T) {
	rm := &fakeRepoManager{
		messengers: &fakeMessengersRepo{
			getForMember: func(ctx context.Context, messengerID, userID string) (*models.Messenger, error) {
				return &models.Messenger{ID: messengerID, AdminID: "admin"}, nil
			},
		},
	}
	s, _ := newMessengerService(t, rm)

	err := s.Delete(context.Background(), "bob", "m1")
	require.ErrorIs(t, err, common.ErrForbidden)
}

func TestMessengerDelete_NonMemberSeesNotFound(t *testing.T) {
	rm := &fakeRepoManager{
		messengers: &fakeMessengersRepo{
			getForMember: func(ctx context.Context, messengerID, userID string) (*models.Messenger, error) {
				return nil, common.ErrNotFound
			},
		},
	}
	s, _ := newMessengerService(t, rm)

	err := s.Delete(context.Background(), "stranger", "m1")
	require.ErrorIs(t, err, common.ErrNotFound, "a non-member cannot tell a missing messenger from a denied one")
}

func TestMessengerDelete_NotifiesFormerMembers(t *testing.T) {
	deleted := false
	rm := &fakeRepoManager{
		messengers: &fakeMessengersRepo{
			getForMember: func(ctx context.Context, messengerID, userID string) (*models.Messenger, error) {
				return &models.Messenger{ID: messengerID, AdminID: "admin"}, nil
			},
			memberIDs: func(ctx context.Context, messengerID string) ([]string, error) {
				return []string{"admin", "bob"}, nil
			},
			deleteMessenger: func(ctx context.Context, messengerID string) error {
				deleted = true
				return nil
			},
		},
	}
	s, drain := newMessengerService(t, rm)

	require.NoError(t, s.Delete(context.Background(), "admin", "m1"))
	require.True(t, deleted)

	evs := drain()
	require.Len(t, evs, 2, "each former member is addressed individually")
	for i, userID := range []string{"admin", "bob"} {
		require.Equal(t, events.TopicMessengerDeleted, evs[i].Topic)
		require.Equal(t, "m1", evs[i].MessengerID)
		require.Equal(t, userID, evs[i].UserID)
	}
}

func TestMessengerLeave(t *testing.T) {
	removed := false
	rm := &fakeRepoManager{
		messengers: &fakeMessengersRepo{
			getForMember: func(ctx context.Context, messengerID, userID string) (*models.Messenger, error) {
				require.Equal(t, "m1", messengerID, "membership is checked against the target messenger")
				return &models.Messenger{ID: messengerID, AdminID: "admin"}, nil
			},
			removeMember: func(ctx context.Context, messengerID, userID string) error {
				require.Equal(t, "m1", messengerID)
				require.Equal(t, "bob", userID)
				removed = true
				return nil
			},
		},
	}
	s, drain := newMessengerService(t, rm)

	require.NoError(t, s.Leave(context.Background(), "bob", "m1"))
	require.True(t, removed)

	evs := drain()
	require.Len(t, evs, 1)
	require.Equal(t, events.TopicUserLeft, evs[0].Topic)
	require.Equal(t, "bob", evs[0].UserID)
}

func TestMessengerLeave_AdminCannotLeave(t *testing.T) {
	rm := &fakeRepoManager{
		messengers: &fakeMessengersRepo{
			getForMember: func(ctx context.Context, messengerID, userID string) (*models.Messenger, error) {
				return &models.Messenger{ID: messengerID, AdminID: "admin"}, nil
			},
		},
	}
	s, _ := newMessengerService(t, rm)

	err := s.Leave(context.Background(), "admin", "m1")
	require.ErrorIs(t, err, common.ErrForbidden)
}

func TestInviteUser(t *testing.T) {
	added := false
	rm := &fakeRepoManager{
		messengers: &fakeMessengersRepo{
			getForMember: func(ctx context.Context, messengerID, userID string) (*models.Messenger, error) {
				return &models.Messenger{ID: messengerID, AdminID: "admin"}, nil
			},
			addMember: func(ctx context.Context, messengerID, userID string) error {
				added = true
				return nil
			},
		},
		users: &fakeUsersRepo{
			getByID: func(ctx context.Context, id string) (*models.User, error) {
				if id == "ghost" {
					return nil, common.ErrNotFound
				}
				return &models.User{ID: id}, nil
			},
		},
	}
	s, drain := newMessengerService(t, rm)

	err := s.InviteUser(context.Background(), "bob", "m1", "carol")
	require.ErrorIs(t, err, common.ErrForbidden, "only the admin invites")

	err = s.InviteUser(context.Background(), "admin", "m1", "ghost")
	require.ErrorIs(t, err, common.ErrInvalidArgument, "an unknown invitee is a bad reference, not a denial")

	require.NoError(t, s.InviteUser(context.Background(), "admin", "m1", "carol"))
	require.True(t, added)

	evs := drain()
	require.Len(t, evs, 1)
	require.Equal(t, events.TopicUserInvited, evs[0].Topic)
	require.Equal(t, "carol", evs[0].UserID)
}

func TestPinMessage(t *testing.T) {
	var pinned *string
	rm := &fakeRepoManager{
		messengers: &fakeMessengersRepo{
			getForMember: func(ctx context.Context, messengerID, userID string) (*models.Messenger, error) {
				return &models.Messenger{ID: messengerID, AdminID: "admin"}, nil
			},
			setPinnedMessage: func(ctx context.Context, messengerID string, messageID *string) error {
				pinned = messageID
				return nil
			},
		},
		messages: &fakeMessagesRepo{
			getInMessenger: func(ctx context.Context, id, messengerID string) (*models.Message, error) {
				if id == "foreign" {
					return nil, common.ErrNotFound
				}
				return &models.Message{ID: id, MessengerID: messengerID}, nil
			},
		},
	}
	s, drain := newMessengerService(t, rm)

	foreign := "foreign"
	_, err := s.PinMessage(context.Background(), "admin", "m1", &foreign)
	require.ErrorIs(t, err, common.ErrInvalidArgument, "the pinned message must belong to the messenger")

	msgID := "msg-1"
	messenger, err := s.PinMessage(context.Background(), "admin", "m1", &msgID)
	require.NoError(t, err)
	require.NotNil(t, messenger.PinnedMessageID)
	require.Equal(t, "msg-1", *messenger.PinnedMessageID)
	require.NotNil(t, pinned)

	messenger, err = s.PinMessage(context.Background(), "admin", "m1", nil)
	require.NoError(t, err)
	require.Nil(t, messenger.PinnedMessageID)
	require.Nil(t, pinned)

	evs := drain()
	require.Len(t, evs, 2)
	require.Equal(t, events.TopicPinChanged, evs[0].Topic)
	require.Equal(t, "msg-1", *evs[0].PinnedID)
	require.Nil(t, evs[1].PinnedID)
}

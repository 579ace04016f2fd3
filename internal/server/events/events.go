// Package events defines the domain events published by the messenger core
// and the per-subscriber filters that gate their delivery.
package events

import (
	"context"

	"github.com/dmitrijs2005/messenger/internal/server/models"
)

// Topic names a kind of domain event.
type Topic string

const (
	TopicMessagePosted    Topic = "message.posted"
	TopicMessageEdited    Topic = "message.edited"
	TopicMessageDeleted   Topic = "message.deleted"
	TopicUserInvited      Topic = "messenger.user_invited"
	TopicUserLeft         Topic = "messenger.user_left"
	TopicPinChanged       Topic = "messenger.pin_changed"
	TopicMessengerDeleted Topic = "messenger.deleted"
)

// Event is one published domain event. MessengerID is set for
// messenger-scoped topics; UserID carries the affected user for membership
// events (the invited or departed user).
type Event struct {
	Topic       Topic           `json:"topic"`
	MessengerID string          `json:"messengerId,omitempty"`
	UserID      string          `json:"userId,omitempty"`
	MessageID   string          `json:"messageId,omitempty"`
	Message     *models.Message `json:"message,omitempty"`
	PinnedID    *string         `json:"pinnedMessageId,omitempty"`
}

// AccessChecker answers membership questions at delivery time. It is the
// seam through which filters consult Access Control without capturing live
// entity references.
type AccessChecker interface {
	CanAccessMessenger(ctx context.Context, userID, messengerID string) (bool, error)
}

// Filter decides, per delivered event, whether a subscriber receives it.
// Filters are re-evaluated on every delivery rather than cached at
// subscribe time: a subscriber that loses membership mid-stream stops
// receiving messenger-scoped events on its next evaluated delivery.
type Filter interface {
	Match(ctx context.Context, ev Event) bool
}

// MessengerFilter admits events of one messenger, and only while the
// subscriber is still a member.
type MessengerFilter struct {
	MessengerID string
	UserID      string
	Access      AccessChecker
}

func (f MessengerFilter) Match(ctx context.Context, ev Event) bool {
	if ev.MessengerID != f.MessengerID {
		return false
	}
	ok, err := f.Access.CanAccessMessenger(ctx, f.UserID, ev.MessengerID)
	if err != nil {
		return false
	}
	return ok
}

// UserFilter admits user-scoped events addressed to one user, e.g. the
// invitation stream.
type UserFilter struct {
	UserID string
}

func (f UserFilter) Match(ctx context.Context, ev Event) bool {
	return ev.UserID == f.UserID
}

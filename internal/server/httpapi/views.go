package httpapi

import (
	"time"

	"github.com/dmitrijs2005/messenger/internal/server/models"
)

// JSON projections of the domain models. Password material never appears
// in a view.

type tokensView struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type userView struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionView struct {
	ID       string    `json:"id"`
	LastUsed time.Time `json:"lastUsed"`
}

type messengerView struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	AdminID         string  `json:"adminId"`
	PinnedMessageID *string `json:"pinnedMessageId,omitempty"`
}

type messageView struct {
	ID           string    `json:"id"`
	MessengerID  string    `json:"messengerId"`
	SenderID     string    `json:"senderId"`
	Text         string    `json:"text"`
	RespondsToID *string   `json:"respondsToId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	IsEdited     bool      `json:"isEdited"`
}

func viewUser(u *models.User) userView {
	return userView{ID: u.ID, Login: u.Login, CreatedAt: u.CreatedAt}
}

func viewSession(s *models.Session) sessionView {
	return sessionView{ID: s.ID, LastUsed: s.LastUsed}
}

func viewMessenger(m *models.Messenger) messengerView {
	return messengerView{ID: m.ID, Title: m.Title, AdminID: m.AdminID, PinnedMessageID: m.PinnedMessageID}
}

func viewMessage(m *models.Message) messageView {
	return messageView{
		ID:           m.ID,
		MessengerID:  m.MessengerID,
		SenderID:     m.SenderID,
		Text:         m.Text,
		RespondsToID: m.RespondsToID,
		CreatedAt:    m.CreatedAt,
		IsEdited:     m.IsEdited,
	}
}

func viewSessions(list []*models.Session) []sessionView {
	out := make([]sessionView, 0, len(list))
	for _, s := range list {
		out = append(out, viewSession(s))
	}
	return out
}

func viewMessengers(list []*models.Messenger) []messengerView {
	out := make([]messengerView, 0, len(list))
	for _, m := range list {
		out = append(out, viewMessenger(m))
	}
	return out
}

func viewMessages(list []*models.Message) []messageView {
	out := make([]messageView, 0, len(list))
	for _, m := range list {
		out = append(out, viewMessage(m))
	}
	return out
}

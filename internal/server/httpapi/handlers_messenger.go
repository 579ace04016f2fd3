package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/messenger/internal/common"
	"github.com/dmitrijs2005/messenger/internal/server/services"
	"github.com/gorilla/mux"
)

type createMessengerRequest struct {
	Title     string   `json:"title"`
	MemberIDs []string `json:"memberIds"`
}

type inviteRequest struct {
	UserID string `json:"userId"`
}

type pinRequest struct {
	MessageID *string `json:"messageId"`
}

// handleActiveMessengers lists the messengers where the caller is a member.
func (s *Server) handleActiveMessengers(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	list, err := s.messengers.ActiveMessengers(r.Context(), caller.CallerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewMessengers(list))
}

// handleCreateMessenger creates a messenger with the caller as admin.
func (s *Server) handleCreateMessenger(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	var req createMessengerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	messenger, err := s.messengers.Create(r.Context(), caller.CallerID, req.Title, req.MemberIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, viewMessenger(messenger))
}

// handleDeleteMessenger deletes a messenger (admin only).
func (s *Server) handleDeleteMessenger(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	messengerID := mux.Vars(r)["id"]

	if err := s.messengers.Delete(r.Context(), caller.CallerID, messengerID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

// handleLeaveMessenger removes the caller from the member set.
func (s *Server) handleLeaveMessenger(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	messengerID := mux.Vars(r)["id"]

	if err := s.messengers.Leave(r.Context(), caller.CallerID, messengerID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

// handleInviteUser adds a user to the member set (admin only).
func (s *Server) handleInviteUser(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	messengerID := mux.Vars(r)["id"]

	var req inviteRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.messengers.InviteUser(r.Context(), caller.CallerID, messengerID, req.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

// handlePinMessage sets or clears the pinned message (admin only).
func (s *Server) handlePinMessage(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	messengerID := mux.Vars(r)["id"]

	var req pinRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	messenger, err := s.messengers.PinMessage(r.Context(), caller.CallerID, messengerID, req.MessageID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewMessenger(messenger))
}

// handleMarkRead upserts the caller's last-read mark for the messenger.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	messengerID := mux.Vars(r)["id"]

	if err := s.readRecords.MarkRead(r.Context(), caller.CallerID, messengerID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

// handleUnreadCount returns the caller's unread message count.
func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	messengerID := mux.Vars(r)["id"]

	count, err := s.readRecords.UnreadCount(r.Context(), caller.CallerID, messengerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

// handleFindMessages serves one page of message history. Exactly one of the
// before, after, or around query parameters must be given; before and after
// are RFC 3339 timestamps, around is a message id.
func (s *Server) handleFindMessages(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	messengerID := mux.Vars(r)["id"]

	window, err := windowFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.messages.FindMany(r.Context(), caller.CallerID, messengerID, window)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewMessages(list))
}

func windowFromQuery(r *http.Request) (services.Window, error) {
	var window services.Window
	q := r.URL.Query()

	if v := q.Get("before"); v != "" {
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return window, common.ErrInvalidArgument
		}
		window.Before = &ts
	}
	if v := q.Get("after"); v != "" {
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return window, common.ErrInvalidArgument
		}
		window.After = &ts
	}
	if v := q.Get("around"); v != "" {
		window.Around = &v
	}
	return window, nil
}

package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

type postMessageRequest struct {
	Text         string  `json:"text"`
	RespondsToID *string `json:"respondsToId"`
}

type editMessageRequest struct {
	NewText string `json:"newText"`
}

// handlePostMessage creates a message in the messenger.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	messengerID := mux.Vars(r)["id"]

	var req postMessageRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	msg, err := s.messages.Post(r.Context(), caller.CallerID, messengerID, req.Text, req.RespondsToID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, viewMessage(msg))
}

// handleEditMessage replaces a message's text (sender only).
func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	messageID := mux.Vars(r)["id"]

	var req editMessageRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	msg, err := s.messages.Edit(r.Context(), caller.CallerID, messageID, req.NewText)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewMessage(msg))
}

// handleDeleteMessage removes a message (sender only).
func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	messageID := mux.Vars(r)["id"]

	if err := s.messages.Delete(r.Context(), caller.CallerID, messageID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

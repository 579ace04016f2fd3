package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/messenger/internal/common"
)

var errMissingToken = errors.New("missing bearer token")

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the core error taxonomy onto HTTP statuses. Internal
// errors are logged but never leak details to the caller.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errMissingToken),
		errors.Is(err, common.ErrTokenInvalid),
		errors.Is(err, common.ErrTokenStale),
		errors.Is(err, common.ErrSessionRevoked),
		errors.Is(err, common.ErrUnauthorized):
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrForbidden):
		s.writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, common.ErrInvalidArgument):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrConflict):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, r, common.ErrInvalidArgument)
		return false
	}
	return true
}

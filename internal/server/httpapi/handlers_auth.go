package httpapi

import (
	"net/http"
)

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// handleSignUp registers a new user (public).
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	tokens, err := s.users.SignUp(r.Context(), req.Login, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, tokensView{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

// handleLogIn verifies credentials and opens a session (public).
func (s *Server) handleLogIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	tokens, err := s.users.LogIn(r.Context(), req.Login, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tokensView{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

// handleRefreshToken mints a fresh access token (public).
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	accessToken, err := s.sessions.RefreshAccessToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

// handleSelf returns the caller's account metadata.
func (s *Server) handleSelf(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	user, err := s.users.Self(r.Context(), caller.CallerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewUser(user))
}

// handleSessions lists the caller's active sessions.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	list, err := s.sessions.Sessions(r.Context(), caller.CallerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewSessions(list))
}

// handleCloseOtherSessions closes every caller session except the current
// one and returns the survivor.
func (s *Server) handleCloseOtherSessions(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	session, err := s.sessions.CloseAllSessionsExceptCurrent(r.Context(), *caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewSession(session))
}

// handleLogOut closes the current session.
func (s *Server) handleLogOut(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	if err := s.sessions.CloseSession(r.Context(), caller.SessionID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

// handleChangePassword replaces the caller's password.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	var req changePasswordRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.users.ChangePassword(r.Context(), caller.CallerID, req.OldPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

// handleDeleteAccount removes the caller's account after re-verifying the
// password.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())

	var req deleteAccountRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.users.DeleteAccount(r.Context(), caller.CallerID, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

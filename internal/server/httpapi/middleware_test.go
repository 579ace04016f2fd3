package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/messenger/internal/logging"
	"github.com/dmitrijs2005/messenger/internal/server/auth"
	"github.com/dmitrijs2005/messenger/internal/server/config"
	"github.com/dmitrijs2005/messenger/internal/server/services"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...any) {}
func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}
func (l noopLogger) With(...any) logging.Logger          { return l }

func newAuthTestServer(t *testing.T) (*Server, *auth.MemoryWhitelist, []byte) {
	t.Helper()
	wl := auth.NewMemoryWhitelist()
	cfg := &config.Config{SecretKey: "test-secret", AccessTokenFreshness: 15 * time.Minute}
	sessions := services.NewSessionService(nil, nil, wl, cfg)
	srv := &Server{logger: noopLogger{}, sessions: sessions}
	return srv, wl, []byte(cfg.SecretKey)
}

func TestAuthMiddleware(t *testing.T) {
	srv, wl, secret := newAuthTestServer(t)

	var gotCaller *auth.Context
	handler := srv.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCaller = callerFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/self", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/self", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		wl.Accept("s1")
		token, err := auth.GenerateAccessToken(auth.Context{CallerID: "u1", SessionID: "s1"}, secret)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/self", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotCaller)
		require.Equal(t, "u1", gotCaller.CallerID)
		require.Equal(t, "s1", gotCaller.SessionID)
	})

	t.Run("revoked session", func(t *testing.T) {
		wl.Accept("s2")
		token, err := auth.GenerateAccessToken(auth.Context{CallerID: "u1", SessionID: "s2"}, secret)
		require.NoError(t, err)
		wl.Revoke("s2")

		req := httptest.NewRequest(http.MethodGet, "/api/self", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestWindowFromQuery(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	t.Run("before", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/messages?before="+ts.Format(time.RFC3339Nano), nil)
		window, err := windowFromQuery(req)
		require.NoError(t, err)
		require.NotNil(t, window.Before)
		require.True(t, window.Before.Equal(ts))
		require.Nil(t, window.After)
		require.Nil(t, window.Around)
	})

	t.Run("after", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/messages?after="+ts.Format(time.RFC3339Nano), nil)
		window, err := windowFromQuery(req)
		require.NoError(t, err)
		require.NotNil(t, window.After)
		require.True(t, window.After.Equal(ts))
	})

	t.Run("around", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/messages?around=msg-1", nil)
		window, err := windowFromQuery(req)
		require.NoError(t, err)
		require.NotNil(t, window.Around)
		require.Equal(t, "msg-1", *window.Around)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/messages?before=yesterday", nil)
		_, err := windowFromQuery(req)
		require.Error(t, err)
	})
}

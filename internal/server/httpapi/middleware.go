package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/messenger/internal/server/auth"
)

type ctxKey string

const callerKey ctxKey = "caller"

const bearerPrefix = "Bearer "

// authMiddleware maps the bearer token header to a caller context through
// the session manager before the handler runs. Missing or invalid tokens
// fail here; handlers never see an unauthenticated request.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := s.callerFromHeader(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), callerKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) callerFromHeader(r *http.Request) (*auth.Context, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, errMissingToken
	}
	return s.sessions.ValidateAccessToken(r.Context(), strings.TrimPrefix(header, bearerPrefix))
}

// callerFrom extracts the caller context installed by authMiddleware.
func callerFrom(ctx context.Context) *auth.Context {
	caller, _ := ctx.Value(callerKey).(*auth.Context)
	return caller
}

// Package httpapi exposes the messenger core over HTTP and WebSocket: JSON
// endpoints for queries and mutations, and a WebSocket stream for
// subscriptions. All framing lives here; the core services stay transport
// agnostic.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/messenger/internal/logging"
	"github.com/dmitrijs2005/messenger/internal/server/pubsub"
	"github.com/dmitrijs2005/messenger/internal/server/services"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Server wires the HTTP router to the core services.
type Server struct {
	address        string
	logger         logging.Logger
	allowedOrigins []string

	users       *services.UserService
	sessions    *services.SessionService
	access      *services.AccessService
	messengers  *services.MessengerService
	messages    *services.MessageService
	readRecords *services.ReadRecordService
	broker      *pubsub.Broker
}

// NewServer constructs a Server bound to the given services.
func NewServer(
	address string,
	logger logging.Logger,
	allowedOrigins []string,
	users *services.UserService,
	sessions *services.SessionService,
	access *services.AccessService,
	messengers *services.MessengerService,
	messages *services.MessageService,
	readRecords *services.ReadRecordService,
	broker *pubsub.Broker,
) *Server {
	return &Server{
		address:        address,
		logger:         logger.With("module", "httpapi"),
		allowedOrigins: allowedOrigins,
		users:          users,
		sessions:       sessions,
		access:         access,
		messengers:     messengers,
		messages:       messages,
		readRecords:    readRecords,
		broker:         broker,
	}
}

// Router builds the route table. Account creation, login, and token refresh
// are the only public operations; everything else passes through the bearer
// token middleware first.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/signup", s.handleSignUp).Methods(http.MethodPost)
	r.HandleFunc("/api/login", s.handleLogIn).Methods(http.MethodPost)
	r.HandleFunc("/api/token/refresh", s.handleRefreshToken).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/self", s.handleSelf).Methods(http.MethodGet)
	api.HandleFunc("/password", s.handleChangePassword).Methods(http.MethodPost)
	api.HandleFunc("/account", s.handleDeleteAccount).Methods(http.MethodDelete)

	api.HandleFunc("/sessions", s.handleSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions/close-others", s.handleCloseOtherSessions).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.handleLogOut).Methods(http.MethodPost)

	api.HandleFunc("/messengers", s.handleActiveMessengers).Methods(http.MethodGet)
	api.HandleFunc("/messengers", s.handleCreateMessenger).Methods(http.MethodPost)
	api.HandleFunc("/messengers/{id}", s.handleDeleteMessenger).Methods(http.MethodDelete)
	api.HandleFunc("/messengers/{id}/leave", s.handleLeaveMessenger).Methods(http.MethodPost)
	api.HandleFunc("/messengers/{id}/invite", s.handleInviteUser).Methods(http.MethodPost)
	api.HandleFunc("/messengers/{id}/pin", s.handlePinMessage).Methods(http.MethodPost)
	api.HandleFunc("/messengers/{id}/read", s.handleMarkRead).Methods(http.MethodPost)
	api.HandleFunc("/messengers/{id}/unread", s.handleUnreadCount).Methods(http.MethodGet)
	api.HandleFunc("/messengers/{id}/messages", s.handleFindMessages).Methods(http.MethodGet)
	api.HandleFunc("/messengers/{id}/messages", s.handlePostMessage).Methods(http.MethodPost)

	api.HandleFunc("/messages/{id}", s.handleEditMessage).Methods(http.MethodPatch)
	api.HandleFunc("/messages/{id}", s.handleDeleteMessage).Methods(http.MethodDelete)

	// The WebSocket endpoint authenticates during its own handshake because
	// browsers cannot set headers on WebSocket connections.
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

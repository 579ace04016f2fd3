package httpapi

import (
	"context"
	"net/http"
	"sync"

	"github.com/dmitrijs2005/messenger/internal/server/auth"
	"github.com/dmitrijs2005/messenger/internal/server/events"
	"github.com/dmitrijs2005/messenger/internal/server/pubsub"
	"github.com/gorilla/websocket"
)

// wsCommand is a control frame sent by the client over the socket.
type wsCommand struct {
	Action      string `json:"action"` // "subscribe" or "unsubscribe"
	MessengerID string `json:"messengerId"`
}

func (s *Server) upgrader() websocket.Upgrader {
	allowed := make(map[string]bool)
	for _, origin := range s.allowedOrigins {
		allowed[origin] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return allowed[r.Header.Get("Origin")]
		},
	}
}

// handleWebSocket serves the live event stream. The caller authenticates
// via the Authorization header or, for browser clients, a "token" query
// parameter. A user-scoped subscription (invitations and other events
// addressed to the caller) is always active; messenger streams are added
// and removed with subscribe/unsubscribe frames. Every delivery runs the
// membership filter again, so a caller who leaves or is removed from a
// messenger stops receiving its events without reconnecting.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	caller, err := s.wsCaller(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := &wsClient{
		caller: caller,
		out:    make(chan events.Event, 16),
		subs:   make(map[string]*pubsub.Subscription),
	}
	defer client.closeAll()

	userSub := s.broker.Subscribe(ctx, events.UserFilter{UserID: caller.CallerID})
	go forward(ctx, userSub, client.out)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-client.out:
				if err := conn.WriteJSON(ev); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		switch cmd.Action {
		case "subscribe":
			s.subscribeMessenger(ctx, client, cmd.MessengerID)
		case "unsubscribe":
			client.unsubscribe(cmd.MessengerID)
		}
	}
}

func (s *Server) wsCaller(r *http.Request) (*auth.Context, error) {
	if r.Header.Get("Authorization") != "" {
		return s.callerFromHeader(r)
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		return nil, errMissingToken
	}
	return s.sessions.ValidateAccessToken(r.Context(), token)
}

func (s *Server) subscribeMessenger(ctx context.Context, client *wsClient, messengerID string) {
	if messengerID == "" {
		return
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	if _, ok := client.subs[messengerID]; ok {
		return
	}

	// Membership is not checked here: the filter runs per delivered event,
	// so a subscription to a foreign messenger simply never yields anything.
	sub := s.broker.Subscribe(ctx, events.MessengerFilter{
		MessengerID: messengerID,
		UserID:      client.caller.CallerID,
		Access:      s.access,
	})
	client.subs[messengerID] = sub
	go forward(ctx, sub, client.out)
}

type wsClient struct {
	caller *auth.Context
	out    chan events.Event

	mu   sync.Mutex
	subs map[string]*pubsub.Subscription
}

func (c *wsClient) unsubscribe(messengerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub, ok := c.subs[messengerID]; ok {
		sub.Close()
		delete(c.subs, messengerID)
	}
}

func (c *wsClient) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, sub := range c.subs {
		sub.Close()
		delete(c.subs, id)
	}
}

// forward drains one subscription into the connection's outbound channel,
// preserving the subscription's delivery order.
func forward(ctx context.Context, sub *pubsub.Subscription, out chan<- events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

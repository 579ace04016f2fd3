package auth

import "sync"

// Whitelist is the authoritative set of currently-valid session ids,
// consulted independently of token signature validity. Once issued, a JWT
// cannot be invalidated individually, so revocation is tracked server-side:
// a session id absent from the whitelist is revoked no matter how fresh the
// signature is.
//
// Production deployments back this with a fast shared store (e.g. a Redis
// set) so revocation is visible across all server instances immediately.
// The in-memory implementation is fully derivable from the session table if
// lost, at the cost of allowing already-revoked tokens to validate until
// re-synced.
type Whitelist interface {
	// Accept marks a session id as valid.
	Accept(sessionID string)

	// Revoke removes a session id. Revoking an unknown id is a no-op.
	Revoke(sessionID string)

	// Check reports whether a session id is currently valid.
	Check(sessionID string) bool
}

// MemoryWhitelist keeps the whitelist in a process-local set. Created at
// process start, torn down at shutdown with no required flush.
type MemoryWhitelist struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewMemoryWhitelist() *MemoryWhitelist {
	return &MemoryWhitelist{ids: make(map[string]struct{})}
}

func (w *MemoryWhitelist) Accept(sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ids[sessionID] = struct{}{}
}

func (w *MemoryWhitelist) Revoke(sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.ids, sessionID)
}

func (w *MemoryWhitelist) Check(sessionID string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.ids[sessionID]
	return ok
}

package models

import "time"

// Session represents one authenticated device/browser of a user.
// RefreshToken is opaque and server-generated; LastUsed is bumped every
// time the session mints a new access token.
type Session struct {
	ID           string
	UserID       string
	RefreshToken string
	LastUsed     time.Time
}

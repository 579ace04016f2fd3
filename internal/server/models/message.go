package models

import "time"

// Message belongs to a messenger. CreatedAt is immutable and serves as the
// pagination cursor key; RespondsToID, when set, references another message
// of the same messenger.
type Message struct {
	ID           string
	MessengerID  string
	SenderID     string
	Text         string
	RespondsToID *string
	CreatedAt    time.Time
	IsEdited     bool
}

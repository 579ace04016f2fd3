package models

import "time"

// ReadRecord stores, per (user, messenger) pair, the timestamp of the user's
// last "mark as read" action. One record per pair, upserted.
type ReadRecord struct {
	ID          string
	UserID      string
	MessengerID string
	ReadAt      time.Time
}

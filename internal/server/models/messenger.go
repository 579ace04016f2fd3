package models

// Messenger is a conversation with exactly one admin and a member set that
// always includes the admin. PinnedMessageID, when set, references a message
// of this messenger.
type Messenger struct {
	ID              string
	Title           string
	AdminID         string
	PinnedMessageID *string
}

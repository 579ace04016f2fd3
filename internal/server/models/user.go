package models

import "time"

type User struct {
	ID             string
	Login          string
	SaltedPassword string
	CreatedAt      time.Time
}

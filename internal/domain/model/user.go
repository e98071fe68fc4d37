package model

import "time"

// User represents a registered student of the course platform.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}

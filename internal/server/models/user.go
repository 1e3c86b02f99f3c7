// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered identity. Salt and PasswordHash never leave the
// server.
type User struct {
	ID           int64
	UserName     string
	Email        string
	Salt         []byte
	PasswordHash []byte
	CreatedAt    time.Time
}

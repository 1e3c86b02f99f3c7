package models

import "time"

// Note belongs to exactly one user. Content and ImageURL are nil when the
// column is NULL.
type Note struct {
	ID        int64
	UserID    int64
	Title     string
	Content   *string
	ImageURL  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

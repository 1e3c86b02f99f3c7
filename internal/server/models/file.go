package models

import "time"

// File records an object written to the blob store on behalf of a user.
// FileKey is the object key inside the bucket.
type File struct {
	ID        int64
	UserID    int64
	FileKey   string
	FileName  string
	IsPublic  bool
	CreatedAt time.Time
}

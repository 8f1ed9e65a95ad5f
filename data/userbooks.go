package data

import "time"

// UserBook records that a user has a book in their collection, along with
// how far they have read.
type UserBook struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	Version   int32     `json:"-"`
	Book      *Book     `json:"book,omitempty"`
}

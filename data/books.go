package data

import (
	"time"

	"github.com/emzola/bookshelf/internal/validator"
)

// Book defines a book model. A book is immutable once cataloged.
type Book struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	CreatedAt      time.Time  `json:"created_at"`
	Title          string     `json:"title"`
	Author         string     `json:"author"`
	Description    string     `json:"description"`
	Publisher      string     `json:"publisher,omitempty"`
	PublishedOn    *time.Time `json:"published_on,omitempty"`
	Cover          string     `json:"cover,omitempty"`
	CoverSourceKey string     `json:"-"`
}

// DateLayout is the layout accepted for a book's publication date.
const DateLayout = "2006-01-02"

func ValidateBook(v *validator.Validator, book *Book) {
	v.Check(book.Title != "", "title", "must be provided")
	v.Check(len(book.Title) <= 500, "title", "must not be more than 500 bytes long")
	v.Check(book.Author != "", "author", "must be provided")
	v.Check(len(book.Author) <= 500, "author", "must not be more than 500 bytes long")
	v.Check(book.Description != "", "description", "must be provided")
	v.Check(len(book.Description) <= 2000, "description", "must not be more than 2000 bytes long")
	v.Check(len(book.Publisher) <= 500, "publisher", "must not be more than 500 bytes long")
	if book.PublishedOn != nil {
		v.Check(!book.PublishedOn.After(time.Now()), "published_on", "must not be in the future")
	}
}

package data

import (
	"time"

	"github.com/emzola/bookshelf/internal/validator"
)

// Reviews are rated on a five-star scale.
const (
	MinRating int8 = 1
	MaxRating int8 = 5
)

// Rating summarizes the reviews of a book.
type Rating struct {
	FiveStars  int64   `json:"fivestars"`
	FourStars  int64   `json:"fourstars"`
	ThreeStars int64   `json:"threestars"`
	TwoStars   int64   `json:"twostars"`
	OneStar    int64   `json:"onestar"`
	Average    float64 `json:"average"`
	Total      int64   `json:"total"`
}

// Review defines a book review.
type Review struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Rating    int8      `json:"rating"`
	Comment   string    `json:"comment"`
	Book      *Book     `json:"book,omitempty"`
}

func ValidateReview(v *validator.Validator, review *Review) {
	v.Check(review.Rating != 0, "rating", "must be provided")
	v.Check(review.Rating >= MinRating, "rating", "must not be less than one")
	v.Check(review.Rating <= MaxRating, "rating", "must not be greater than five")
	v.Check(review.Comment != "", "comment", "must be provided")
	v.Check(len(review.Comment) <= 2000, "comment", "must not be more than 2000 bytes long")
}

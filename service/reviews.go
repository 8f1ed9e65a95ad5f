package service

import (
	"context"
	"errors"
	"strings"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/internal/rating"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/emzola/bookshelf/repository"
)

type reviews interface {
	CreateReview(ctx context.Context, userID string, bookID string, rating int8, comment string) (*data.Review, error)
	GetReview(ctx context.Context, bookID string, reviewID string) (*data.Review, error)
	DeleteReview(ctx context.Context, userID string, bookID string, reviewID string) error
	ListReviews(ctx context.Context, bookID string, filters data.Filters) (data.Rating, []*data.Review, data.Metadata, error)
	ListUserReviews(ctx context.Context, userID string, filters data.Filters) ([]*data.Review, data.Metadata, error)
}

// CreateReview service leaves a review for a book. Each user reviews a book at most once.
func (s *service) CreateReview(ctx context.Context, userID string, bookID string, rating int8, comment string) (*data.Review, error) {
	review := &data.Review{
		BookID:  bookID,
		UserID:  userID,
		Rating:  rating,
		Comment: strings.TrimSpace(comment),
	}
	v := validator.New()
	if data.ValidateReview(v, review); !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	_, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	err = s.repo.CreateReview(ctx, review)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateRecord):
			return nil, ErrDuplicateRecord
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return review, nil
}

// GetReview service retrieves a review of a specific book.
func (s *service) GetReview(ctx context.Context, bookID string, reviewID string) (*data.Review, error) {
	review, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	if review.BookID != bookID {
		return nil, ErrRecordNotFound
	}
	return review, nil
}

// DeleteReview service deletes a review. Only its author may delete it.
func (s *service) DeleteReview(ctx context.Context, userID string, bookID string, reviewID string) error {
	review, err := s.GetReview(ctx, bookID, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != userID {
		return ErrNotPermitted
	}
	err = s.repo.DeleteReview(ctx, reviewID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return ErrRecordNotFound
		default:
			return err
		}
	}
	return nil
}

// ListReviews service retrieves a page of a book's reviews. The rating summary always
// covers every review of the book, not just the page.
func (s *service) ListReviews(ctx context.Context, bookID string, filters data.Filters) (data.Rating, []*data.Review, data.Metadata, error) {
	v := validator.New()
	if data.ValidateFilters(v, filters); !v.Valid() {
		return data.Rating{}, nil, data.Metadata{}, failedValidation(v.Errors)
	}
	_, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return data.Rating{}, nil, data.Metadata{}, ErrRecordNotFound
		default:
			return data.Rating{}, nil, data.Metadata{}, err
		}
	}
	ratings, err := s.repo.GetRatingsForBook(ctx, bookID)
	if err != nil {
		return data.Rating{}, nil, data.Metadata{}, err
	}
	reviews, metadata, err := s.repo.GetAllReviewsForBook(ctx, bookID, filters)
	if err != nil {
		return data.Rating{}, nil, data.Metadata{}, err
	}
	return rating.Aggregate(ratings), reviews, metadata, nil
}

// ListUserReviews service retrieves the reviews written by a user.
func (s *service) ListUserReviews(ctx context.Context, userID string, filters data.Filters) ([]*data.Review, data.Metadata, error) {
	v := validator.New()
	if data.ValidateFilters(v, filters); !v.Valid() {
		return nil, data.Metadata{}, failedValidation(v.Errors)
	}
	return s.repo.GetAllReviewsForUser(ctx, userID, filters)
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/data/dto"
	"github.com/emzola/bookshelf/internal/cover"
	"github.com/emzola/bookshelf/internal/rating"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/emzola/bookshelf/repository"
)

type books interface {
	CreateBook(ctx context.Context, userID string, requestBody dto.CreateBookRequestBody) (*data.UserBook, error)
	GetBook(ctx context.Context, bookID string) (*data.Book, data.Rating, error)
	ListBooks(ctx context.Context, search string, author string, filters data.Filters) ([]*data.Book, data.Metadata, error)
}

// CreateBook service catalogs a new book and adds it to the creator's collection.
// A supplied cover is normalized before anything is stored.
func (s *service) CreateBook(ctx context.Context, userID string, requestBody dto.CreateBookRequestBody) (*data.UserBook, error) {
	book := &data.Book{
		UserID:      userID,
		Title:       strings.TrimSpace(requestBody.Title),
		Author:      strings.TrimSpace(requestBody.Author),
		Description: strings.TrimSpace(requestBody.Description),
		Publisher:   strings.TrimSpace(requestBody.Publisher),
	}
	v := validator.New()
	if requestBody.PublishedOn != "" {
		publishedOn, err := time.Parse(data.DateLayout, requestBody.PublishedOn)
		if err != nil {
			v.AddError("published_on", "must be a date in YYYY-MM-DD format")
		} else {
			book.PublishedOn = &publishedOn
		}
	}
	if data.ValidateBook(v, book); !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	var c cover.Cover
	if requestBody.Cover != "" {
		var err error
		c, err = s.IngestCover(requestBody.Cover)
		if err != nil {
			return nil, err
		}
		book.Cover = c.DataURI
	}
	userBook := &data.UserBook{Progress: data.ProgressNotStarted}
	err := s.repo.CreateBookWithUserBook(ctx, book, userBook)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	s.archiveCover(ctx, book.ID, c)
	return userBook, nil
}

// GetBook service retrieves the details of a book along with its rating summary.
func (s *service) GetBook(ctx context.Context, bookID string) (*data.Book, data.Rating, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, data.Rating{}, ErrRecordNotFound
		default:
			return nil, data.Rating{}, err
		}
	}
	ratings, err := s.repo.GetRatingsForBook(ctx, bookID)
	if err != nil {
		return nil, data.Rating{}, err
	}
	return book, rating.Aggregate(ratings), nil
}

// ListBooks service retrieves a list of paginated books. The list can be searched and sorted.
func (s *service) ListBooks(ctx context.Context, search string, author string, filters data.Filters) ([]*data.Book, data.Metadata, error) {
	v := validator.New()
	if data.ValidateFilters(v, filters); !v.Valid() {
		return nil, data.Metadata{}, failedValidation(v.Errors)
	}
	return s.repo.GetAllBooks(ctx, search, author, filters)
}

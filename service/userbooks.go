package service

import (
	"context"
	"errors"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/emzola/bookshelf/repository"
)

type userBooks interface {
	AddBookToCollection(ctx context.Context, userID string, bookID string) (*data.UserBook, error)
	GetUserBook(ctx context.Context, userBookID string) (*data.UserBook, error)
	GetUserBookForBook(ctx context.Context, userID string, bookID string) (*data.UserBook, error)
	UpdateProgress(ctx context.Context, userID string, userBookID string, progress *data.Progress) (*data.UserBook, error)
	DeleteUserBook(ctx context.Context, userID string, userBookID string) error
	ListUserBooks(ctx context.Context, userID string, progress string, filters data.Filters) ([]*data.UserBook, data.Metadata, error)
}

// AddBookToCollection service adds an existing book to a user's collection.
func (s *service) AddBookToCollection(ctx context.Context, userID string, bookID string) (*data.UserBook, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	userBook := &data.UserBook{
		UserID:   userID,
		BookID:   book.ID,
		Progress: data.ProgressNotStarted,
	}
	err = s.repo.CreateUserBook(ctx, userBook)
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
	userBook.Book = book
	return userBook, nil
}

// GetUserBook service retrieves a collection entry by ID.
func (s *service) GetUserBook(ctx context.Context, userBookID string) (*data.UserBook, error) {
	userBook, err := s.repo.GetUserBook(ctx, userBookID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return userBook, nil
}

// GetUserBookForBook service retrieves the entry a user holds for a book.
func (s *service) GetUserBookForBook(ctx context.Context, userID string, bookID string) (*data.UserBook, error) {
	userBook, err := s.repo.GetUserBookForBook(ctx, userID, bookID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return userBook, nil
}

// UpdateProgress service sets the reading progress of a collection entry owned by userID.
func (s *service) UpdateProgress(ctx context.Context, userID string, userBookID string, progress *data.Progress) (*data.UserBook, error) {
	v := validator.New()
	v.Check(progress != nil, "progress", "must be provided")
	if progress != nil {
		v.Check(progress.Valid(), "progress", "must be one of Not started, 25%, 50%, 75%, Completed")
	}
	if !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	userBook, err := s.GetUserBook(ctx, userBookID)
	if err != nil {
		return nil, err
	}
	if userBook.UserID != userID {
		return nil, ErrNotPermitted
	}
	userBook.Progress = *progress
	err = s.repo.UpdateUserBook(ctx, userBook)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEditConflict):
			return nil, ErrEditConflict
		default:
			return nil, err
		}
	}
	return userBook, nil
}

// DeleteUserBook service removes a book from the collection of userID.
func (s *service) DeleteUserBook(ctx context.Context, userID string, userBookID string) error {
	userBook, err := s.GetUserBook(ctx, userBookID)
	if err != nil {
		return err
	}
	if userBook.UserID != userID {
		return ErrNotPermitted
	}
	err = s.repo.DeleteUserBook(ctx, userBookID)
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

// ListUserBooks service retrieves a user's collection. The list can be filtered by progress.
func (s *service) ListUserBooks(ctx context.Context, userID string, progress string, filters data.Filters) ([]*data.UserBook, data.Metadata, error) {
	v := validator.New()
	data.ValidateFilters(v, filters)
	if progress != "" {
		_, err := data.ParseProgress(progress)
		v.Check(err == nil, "progress", "must be one of Not started, 25%, 50%, 75%, Completed")
	}
	if !v.Valid() {
		return nil, data.Metadata{}, failedValidation(v.Errors)
	}
	return s.repo.GetAllUserBooksForUser(ctx, userID, progress, filters)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emzola/bookshelf/data"
	"github.com/google/uuid"
)

type userBooks interface {
	CreateUserBook(ctx context.Context, userBook *data.UserBook) error
	GetUserBook(ctx context.Context, userBookID string) (*data.UserBook, error)
	GetUserBookForBook(ctx context.Context, userID, bookID string) (*data.UserBook, error)
	UpdateUserBook(ctx context.Context, userBook *data.UserBook) error
	DeleteUserBook(ctx context.Context, userBookID string) error
	GetAllUserBooksForUser(ctx context.Context, userID string, progress string, filters data.Filters) ([]*data.UserBook, data.Metadata, error)
}

// userBookSortColumns qualifies the sortable columns of a joined user_books/books row.
var userBookSortColumns = map[string]string{
	"title":      "books.title",
	"author":     "books.author",
	"created_at": "user_books.created_at",
}

// CreateUserBook adds a book to a user's collection.
func (r *repository) CreateUserBook(ctx context.Context, userBook *data.UserBook) error {
	if !validID(userBook.BookID) {
		return ErrRecordNotFound
	}
	userBook.ID = uuid.NewString()
	if userBook.Progress == "" {
		userBook.Progress = data.ProgressNotStarted
	}
	query := `
		INSERT INTO user_books (id, user_id, book_id, progress)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, version`
	args := []any{userBook.ID, userBook.UserID, userBook.BookID, userBook.Progress}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&userBook.CreatedAt, &userBook.Version)
	if err != nil {
		return translate(err)
	}
	return nil
}

// GetUserBook retrieves a collection entry, with its book, by ID.
func (r *repository) GetUserBook(ctx context.Context, userBookID string) (*data.UserBook, error) {
	if !validID(userBookID) {
		return nil, ErrRecordNotFound
	}
	query := `
		SELECT user_books.id, user_books.user_id, user_books.book_id, user_books.progress, user_books.created_at, user_books.version,
			books.id, books.user_id, books.created_at, books.title, books.author, books.description, books.publisher, books.published_on, books.cover
		FROM user_books
		INNER JOIN books ON user_books.book_id = books.id
		WHERE user_books.id = $1`
	return r.getUserBook(ctx, query, userBookID)
}

// GetUserBookForBook retrieves the collection entry a user holds for a book.
func (r *repository) GetUserBookForBook(ctx context.Context, userID, bookID string) (*data.UserBook, error) {
	if !validID(userID) || !validID(bookID) {
		return nil, ErrRecordNotFound
	}
	query := `
		SELECT user_books.id, user_books.user_id, user_books.book_id, user_books.progress, user_books.created_at, user_books.version,
			books.id, books.user_id, books.created_at, books.title, books.author, books.description, books.publisher, books.published_on, books.cover
		FROM user_books
		INNER JOIN books ON user_books.book_id = books.id
		WHERE user_books.user_id = $1 AND user_books.book_id = $2`
	return r.getUserBook(ctx, query, userID, bookID)
}

func (r *repository) getUserBook(ctx context.Context, query string, args ...any) (*data.UserBook, error) {
	var userBook data.UserBook
	var book data.Book
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&userBook.ID,
		&userBook.UserID,
		&userBook.BookID,
		&userBook.Progress,
		&userBook.CreatedAt,
		&userBook.Version,
		&book.ID,
		&book.UserID,
		&book.CreatedAt,
		&book.Title,
		&book.Author,
		&book.Description,
		&book.Publisher,
		&book.PublishedOn,
		&book.Cover,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	userBook.Book = &book
	return &userBook, nil
}

// UpdateUserBook updates the reading progress of a collection entry.
func (r *repository) UpdateUserBook(ctx context.Context, userBook *data.UserBook) error {
	query := `
		UPDATE user_books
		SET progress = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version`
	args := []any{userBook.Progress, userBook.ID, userBook.Version}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&userBook.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return err
		}
	}
	return nil
}

// DeleteUserBook removes a book from a user's collection.
func (r *repository) DeleteUserBook(ctx context.Context, userBookID string) error {
	if !validID(userBookID) {
		return ErrRecordNotFound
	}
	query := `
		DELETE FROM user_books
		WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result, err := r.db.ExecContext(ctx, query, userBookID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// GetAllUserBooksForUser retrieves a paginated list of a user's collection.
// Records can be filtered by progress and sorted.
func (r *repository) GetAllUserBooksForUser(ctx context.Context, userID string, progress string, filters data.Filters) ([]*data.UserBook, data.Metadata, error) {
	column, ok := userBookSortColumns[filters.SortColumn()]
	if !ok {
		panic("unsafe sort parameter: " + filters.Sort)
	}
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), user_books.id, user_books.user_id, user_books.book_id, user_books.progress, user_books.created_at, user_books.version,
			books.id, books.user_id, books.created_at, books.title, books.author, books.description, books.publisher, books.published_on, books.cover
		FROM user_books
		INNER JOIN books ON user_books.book_id = books.id
		WHERE user_books.user_id = $1 AND (user_books.progress = $2 OR $2 = '')
		ORDER BY %s %s, user_books.id ASC
		LIMIT $3 OFFSET $4`,
		column, filters.SortDirection(),
	)
	args := []any{userID, progress, filters.Limit(), filters.Offset()}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, data.Metadata{}, err
	}
	defer rows.Close()
	totalRecords := 0
	userBooks := []*data.UserBook{}
	for rows.Next() {
		var userBook data.UserBook
		var book data.Book
		err := rows.Scan(
			&totalRecords,
			&userBook.ID,
			&userBook.UserID,
			&userBook.BookID,
			&userBook.Progress,
			&userBook.CreatedAt,
			&userBook.Version,
			&book.ID,
			&book.UserID,
			&book.CreatedAt,
			&book.Title,
			&book.Author,
			&book.Description,
			&book.Publisher,
			&book.PublishedOn,
			&book.Cover,
		)
		if err != nil {
			return nil, data.Metadata{}, err
		}
		userBook.Book = &book
		userBooks = append(userBooks, &userBook)
	}
	if err = rows.Err(); err != nil {
		return nil, data.Metadata{}, err
	}
	metadata := data.CalculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return userBooks, metadata, nil
}

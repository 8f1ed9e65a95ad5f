package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emzola/bookshelf/data"
	"github.com/google/uuid"
)

type books interface {
	CreateBookWithUserBook(ctx context.Context, book *data.Book, userBook *data.UserBook) error
	GetBook(ctx context.Context, bookID string) (*data.Book, error)
	GetAllBooks(ctx context.Context, search, author string, filters data.Filters) ([]*data.Book, data.Metadata, error)
	SetBookCoverSourceKey(ctx context.Context, bookID, key string) error
}

// CreateBookWithUserBook inserts a book and its creator's collection entry in a
// single transaction. IDs are assigned here; timestamps come from the database.
func (r *repository) CreateBookWithUserBook(ctx context.Context, book *data.Book, userBook *data.UserBook) error {
	book.ID = uuid.NewString()
	userBook.ID = uuid.NewString()
	userBook.UserID = book.UserID
	userBook.BookID = book.ID
	if userBook.Progress == "" {
		userBook.Progress = data.ProgressNotStarted
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO books (id, user_id, title, author, description, publisher, published_on, cover, cover_source_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`
	args := []any{book.ID, book.UserID, book.Title, book.Author, book.Description, book.Publisher, book.PublishedOn, book.Cover, book.CoverSourceKey}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&book.CreatedAt); err != nil {
		return translate(err)
	}

	query = `
		INSERT INTO user_books (id, user_id, book_id, progress)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, version`
	args = []any{userBook.ID, userBook.UserID, userBook.BookID, userBook.Progress}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&userBook.CreatedAt, &userBook.Version); err != nil {
		return translate(err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	userBook.Book = book
	return nil
}

// GetBook retrieves a book record by its ID.
func (r *repository) GetBook(ctx context.Context, bookID string) (*data.Book, error) {
	if !validID(bookID) {
		return nil, ErrRecordNotFound
	}
	query := `
		SELECT id, user_id, created_at, title, author, description, publisher, published_on, cover, cover_source_key
		FROM books
		WHERE id = $1`
	var book data.Book
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, bookID).Scan(
		&book.ID,
		&book.UserID,
		&book.CreatedAt,
		&book.Title,
		&book.Author,
		&book.Description,
		&book.Publisher,
		&book.PublishedOn,
		&book.Cover,
		&book.CoverSourceKey,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &book, nil
}

// GetAllBooks retrieves a paginated list of all book records.
// Records can be searched by title and author, and sorted.
func (r *repository) GetAllBooks(ctx context.Context, search, author string, filters data.Filters) ([]*data.Book, data.Metadata, error) {
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), id, user_id, created_at, title, author, description, publisher, published_on, cover, cover_source_key
		FROM books
		WHERE (
			to_tsvector('simple', title) ||
			to_tsvector('simple', author)
			@@ plainto_tsquery('simple', $1) OR $1 = ''
		)
		AND (author ILIKE '%%' || $2 || '%%' OR $2 = '')
		ORDER BY %s %s, id ASC
		LIMIT $3 OFFSET $4`,
		filters.SortColumn(), filters.SortDirection(),
	)
	args := []any{search, author, filters.Limit(), filters.Offset()}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, data.Metadata{}, err
	}
	defer rows.Close()
	totalRecords := 0
	books := []*data.Book{}
	for rows.Next() {
		var book data.Book
		err := rows.Scan(
			&totalRecords,
			&book.ID,
			&book.UserID,
			&book.CreatedAt,
			&book.Title,
			&book.Author,
			&book.Description,
			&book.Publisher,
			&book.PublishedOn,
			&book.Cover,
			&book.CoverSourceKey,
		)
		if err != nil {
			return nil, data.Metadata{}, err
		}
		books = append(books, &book)
	}
	if err = rows.Err(); err != nil {
		return nil, data.Metadata{}, err
	}
	metadata := data.CalculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return books, metadata, nil
}

// SetBookCoverSourceKey records where the original cover upload was archived. It is
// the only write to a book after creation and touches no user-visible column.
func (r *repository) SetBookCoverSourceKey(ctx context.Context, bookID, key string) error {
	if !validID(bookID) {
		return ErrRecordNotFound
	}
	query := `
		UPDATE books
		SET cover_source_key = $1
		WHERE id = $2`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result, err := r.db.ExecContext(ctx, query, key, bookID)
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

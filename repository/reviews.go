package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emzola/bookshelf/data"
	"github.com/google/uuid"
)

type reviews interface {
	CreateReview(ctx context.Context, review *data.Review) error
	GetReview(ctx context.Context, reviewID string) (*data.Review, error)
	DeleteReview(ctx context.Context, reviewID string) error
	GetRatingsForBook(ctx context.Context, bookID string) ([]*data.Review, error)
	GetAllReviewsForBook(ctx context.Context, bookID string, filters data.Filters) ([]*data.Review, data.Metadata, error)
	GetAllReviewsForUser(ctx context.Context, userID string, filters data.Filters) ([]*data.Review, data.Metadata, error)
}

// reviewSortColumns qualifies the sortable columns of a joined reviews row.
var reviewSortColumns = map[string]string{
	"created_at": "reviews.created_at",
	"rating":     "reviews.rating",
	"title":      "books.title",
}

// CreateReview creates a review record for a book. A user may review a book once.
func (r *repository) CreateReview(ctx context.Context, review *data.Review) error {
	if !validID(review.BookID) {
		return ErrRecordNotFound
	}
	review.ID = uuid.NewString()
	query := `
		INSERT INTO reviews (id, book_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	args := []any{review.ID, review.BookID, review.UserID, review.Rating, review.Comment}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&review.CreatedAt)
	if err != nil {
		return translate(err)
	}
	return nil
}

// GetReview retrieves a review record along with its author's name.
func (r *repository) GetReview(ctx context.Context, reviewID string) (*data.Review, error) {
	if !validID(reviewID) {
		return nil, ErrRecordNotFound
	}
	query := `
		SELECT reviews.id, reviews.book_id, reviews.user_id, users.name, reviews.created_at, reviews.rating, reviews.comment
		FROM reviews
		INNER JOIN users ON reviews.user_id = users.id
		WHERE reviews.id = $1`
	var review data.Review
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, reviewID).Scan(
		&review.ID,
		&review.BookID,
		&review.UserID,
		&review.UserName,
		&review.CreatedAt,
		&review.Rating,
		&review.Comment,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &review, nil
}

// DeleteReview deletes a review record.
func (r *repository) DeleteReview(ctx context.Context, reviewID string) error {
	if !validID(reviewID) {
		return ErrRecordNotFound
	}
	query := `
		DELETE FROM reviews
		WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result, err := r.db.ExecContext(ctx, query, reviewID)
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

// GetRatingsForBook retrieves every rating given to a book. Only the ID and rating
// of each returned review are populated.
func (r *repository) GetRatingsForBook(ctx context.Context, bookID string) ([]*data.Review, error) {
	if !validID(bookID) {
		return nil, ErrRecordNotFound
	}
	query := `
		SELECT id, rating
		FROM reviews
		WHERE book_id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reviews := []*data.Review{}
	for rows.Next() {
		review := data.Review{BookID: bookID}
		if err := rows.Scan(&review.ID, &review.Rating); err != nil {
			return nil, err
		}
		reviews = append(reviews, &review)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

// GetAllReviewsForBook retrieves a paginated list of a book's reviews.
func (r *repository) GetAllReviewsForBook(ctx context.Context, bookID string, filters data.Filters) ([]*data.Review, data.Metadata, error) {
	if !validID(bookID) {
		return nil, data.Metadata{}, ErrRecordNotFound
	}
	column, ok := reviewSortColumns[filters.SortColumn()]
	if !ok {
		panic("unsafe sort parameter: " + filters.Sort)
	}
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), reviews.id, reviews.book_id, reviews.user_id, users.name, reviews.created_at, reviews.rating, reviews.comment
		FROM reviews
		INNER JOIN users ON reviews.user_id = users.id
		WHERE reviews.book_id = $1
		ORDER BY %s %s, reviews.id ASC
		LIMIT $2 OFFSET $3`,
		column, filters.SortDirection())
	args := []any{bookID, filters.Limit(), filters.Offset()}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, data.Metadata{}, err
	}
	defer rows.Close()
	totalRecords := 0
	reviews := []*data.Review{}
	for rows.Next() {
		var review data.Review
		err := rows.Scan(
			&totalRecords,
			&review.ID,
			&review.BookID,
			&review.UserID,
			&review.UserName,
			&review.CreatedAt,
			&review.Rating,
			&review.Comment,
		)
		if err != nil {
			return nil, data.Metadata{}, err
		}
		reviews = append(reviews, &review)
	}
	if err = rows.Err(); err != nil {
		return nil, data.Metadata{}, err
	}
	metadata := data.CalculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return reviews, metadata, nil
}

// GetAllReviewsForUser retrieves a paginated list of the reviews a user has written,
// each with the title and author of the reviewed book.
func (r *repository) GetAllReviewsForUser(ctx context.Context, userID string, filters data.Filters) ([]*data.Review, data.Metadata, error) {
	column, ok := reviewSortColumns[filters.SortColumn()]
	if !ok {
		panic("unsafe sort parameter: " + filters.Sort)
	}
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), reviews.id, reviews.book_id, reviews.user_id, reviews.created_at, reviews.rating, reviews.comment,
			books.title, books.author
		FROM reviews
		INNER JOIN books ON reviews.book_id = books.id
		WHERE reviews.user_id = $1
		ORDER BY %s %s, reviews.id ASC
		LIMIT $2 OFFSET $3`,
		column, filters.SortDirection())
	args := []any{userID, filters.Limit(), filters.Offset()}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, data.Metadata{}, err
	}
	defer rows.Close()
	totalRecords := 0
	reviews := []*data.Review{}
	for rows.Next() {
		var review data.Review
		var book data.Book
		err := rows.Scan(
			&totalRecords,
			&review.ID,
			&review.BookID,
			&review.UserID,
			&review.CreatedAt,
			&review.Rating,
			&review.Comment,
			&book.Title,
			&book.Author,
		)
		if err != nil {
			return nil, data.Metadata{}, err
		}
		book.ID = review.BookID
		review.Book = &book
		reviews = append(reviews, &review)
	}
	if err = rows.Err(); err != nil {
		return nil, data.Metadata{}, err
	}
	metadata := data.CalculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return reviews, metadata, nil
}

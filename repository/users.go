package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"time"

	"github.com/emzola/bookshelf/data"
	"github.com/google/uuid"
)

type users interface {
	RegisterUser(ctx context.Context, user *data.User) error
	GetUserByID(ctx context.Context, userID string) (*data.User, error)
	GetUserByEmail(ctx context.Context, email string) (*data.User, error)
	UpdateUser(ctx context.Context, user *data.User) error
	DeleteUser(ctx context.Context, userID string) error
	GetUserForToken(ctx context.Context, tokenScope string, tokenPlaintext string) (*data.User, error)
}

// RegisterUser registers a new user.
func (r *repository) RegisterUser(ctx context.Context, user *data.User) error {
	user.ID = uuid.NewString()
	query := `
		INSERT INTO users (id, name, email, password_hash, activated)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, version`
	args := []any{user.ID, user.Name, user.Email, user.Password.Hash, user.Activated}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.CreatedAt,
		&user.Version,
	)
	if err != nil {
		return translate(err)
	}
	return nil
}

// GetUserByID retrieves a user record by its ID.
func (r *repository) GetUserByID(ctx context.Context, userID string) (*data.User, error) {
	if !validID(userID) {
		return nil, ErrRecordNotFound
	}
	query := `
		SELECT id, created_at, name, email, password_hash, activated, version
		FROM users
		WHERE id = $1`
	return r.getUser(ctx, query, userID)
}

// GetUserByEmail retrieves a user record by its email.
func (r *repository) GetUserByEmail(ctx context.Context, email string) (*data.User, error) {
	query := `
		SELECT id, created_at, name, email, password_hash, activated, version
		FROM users
		WHERE email = $1`
	return r.getUser(ctx, query, email)
}

// GetUserForToken returns the user record associated with an unexpired token.
func (r *repository) GetUserForToken(ctx context.Context, tokenScope string, tokenPlaintext string) (*data.User, error) {
	tokenHash := sha256.Sum256([]byte(tokenPlaintext))
	query := `
		SELECT users.id, users.created_at, users.name, users.email, users.password_hash, users.activated, users.version
		FROM users
		INNER JOIN tokens
		ON users.id = tokens.user_id
		WHERE tokens.hash = $1
		AND tokens.scope = $2
		AND tokens.expiry > $3`
	return r.getUser(ctx, query, tokenHash[:], tokenScope, time.Now())
}

func (r *repository) getUser(ctx context.Context, query string, args ...any) (*data.User, error) {
	var user data.User
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.CreatedAt,
		&user.Name,
		&user.Email,
		&user.Password.Hash,
		&user.Activated,
		&user.Version,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &user, nil
}

// UpdateUser updates a user record.
func (r *repository) UpdateUser(ctx context.Context, user *data.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, activated = $4, version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version`
	args := []any{
		user.Name,
		user.Email,
		user.Password.Hash,
		user.Activated,
		user.ID,
		user.Version,
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&user.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return translate(err)
		}
	}
	return nil
}

// DeleteUser deletes a user record. Tokens, books, collection entries and reviews
// owned by the user go with it.
func (r *repository) DeleteUser(ctx context.Context, userID string) error {
	if !validID(userID) {
		return ErrRecordNotFound
	}
	query := `
		DELETE FROM users
		WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result, err := r.db.ExecContext(ctx, query, userID)
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

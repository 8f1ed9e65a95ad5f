package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/emzola/bookshelf/repository"
)

type users interface {
	RegisterUser(ctx context.Context, name string, email string, password string) (*data.User, error)
	ActivateUser(ctx context.Context, token string) (*data.User, error)
	GetUser(ctx context.Context, userID string) (*data.User, error)
	UpdateUser(ctx context.Context, userID string, name *string) (*data.User, error)
	DeleteUser(ctx context.Context, userID string) error
	GetUserForToken(ctx context.Context, tokenScope string, tokenPlaintext string) (*data.User, error)
}

// RegisterUser service registers a new user and mails them an activation token.
func (s *service) RegisterUser(ctx context.Context, name string, email string, password string) (*data.User, error) {
	user := &data.User{
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Activated: false,
	}
	err := user.Password.Set(password)
	if err != nil {
		return nil, err
	}
	v := validator.New()
	if data.ValidateUser(v, user); !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	err = s.repo.RegisterUser(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateRecord):
			v.AddError("email", "a user with this email address already exists")
			return nil, failedValidation(v.Errors)
		default:
			return nil, err
		}
	}
	token, err := s.repo.CreateNewToken(ctx, user.ID, 3*24*time.Hour, data.ScopeActivation)
	if err != nil {
		return nil, err
	}
	s.sendMail(user.Email, "user_welcome.tmpl", map[string]string{
		"userName":        strings.Split(user.Name, " ")[0],
		"activationToken": token.Plaintext,
	})
	return user, nil
}

// ActivateUser service activates a newly registered user.
func (s *service) ActivateUser(ctx context.Context, token string) (*data.User, error) {
	v := validator.New()
	if data.ValidateTokenPlaintext(v, token); !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	// A missing user means the token is invalid or has expired.
	user, err := s.repo.GetUserForToken(ctx, data.ScopeActivation, token)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			v.AddError("token", "invalid or expired activation token")
			return nil, failedValidation(v.Errors)
		default:
			return nil, err
		}
	}
	user.Activated = true
	err = s.repo.UpdateUser(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEditConflict):
			return nil, ErrEditConflict
		default:
			return nil, err
		}
	}
	err = s.repo.DeleteAllTokensForUser(ctx, data.ScopeActivation, user.ID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser service shows the details of a specific user.
func (s *service) GetUser(ctx context.Context, userID string) (*data.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return user, nil
}

// UpdateUser service updates the display name of a user.
func (s *service) UpdateUser(ctx context.Context, userID string, name *string) (*data.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		user.Name = strings.TrimSpace(*name)
	}
	v := validator.New()
	if data.ValidateName(v, user.Name); !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	err = s.repo.UpdateUser(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEditConflict):
			return nil, ErrEditConflict
		default:
			return nil, err
		}
	}
	return user, nil
}

// DeleteUser service deletes a user account along with everything it owns.
func (s *service) DeleteUser(ctx context.Context, userID string) error {
	err := s.repo.DeleteUser(ctx, userID)
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

// GetUserForToken service resolves a token into its user.
func (s *service) GetUserForToken(ctx context.Context, tokenScope string, tokenPlaintext string) (*data.User, error) {
	user, err := s.repo.GetUserForToken(ctx, tokenScope, tokenPlaintext)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return user, nil
}

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

type tokens interface {
	CreateActivationToken(ctx context.Context, email string) error
	CreateAuthenticationToken(ctx context.Context, email string, password string) (*data.Token, error)
	DeleteAuthenticationToken(ctx context.Context, userID string) error
}

// CreateActivationToken service mails a fresh activation token to an inactive user.
func (s *service) CreateActivationToken(ctx context.Context, email string) error {
	v := validator.New()
	if data.ValidateEmail(v, email); !v.Valid() {
		return failedValidation(v.Errors)
	}
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			v.AddError("email", "no matching email address found")
			return failedValidation(v.Errors)
		default:
			return err
		}
	}
	if user.Activated {
		v.AddError("email", "user with this email has already been activated")
		return failedValidation(v.Errors)
	}
	token, err := s.repo.CreateNewToken(ctx, user.ID, 3*24*time.Hour, data.ScopeActivation)
	if err != nil {
		return err
	}
	s.sendMail(user.Email, "token_activation.tmpl", map[string]string{
		"userName":        strings.Split(user.Name, " ")[0],
		"activationToken": token.Plaintext,
	})
	return nil
}

// CreateAuthenticationToken service exchanges credentials for a bearer token.
func (s *service) CreateAuthenticationToken(ctx context.Context, email string, password string) (*data.Token, error) {
	v := validator.New()
	data.ValidateEmail(v, email)
	data.ValidatePasswordPlaintext(v, password)
	if !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrInvalidCredentials
		default:
			return nil, err
		}
	}
	match, err := user.Password.Matches(password)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrInvalidCredentials
	}
	return s.repo.CreateNewToken(ctx, user.ID, 24*time.Hour, data.ScopeAuthentication)
}

// DeleteAuthenticationToken service deletes all authentication tokens for a user.
func (s *service) DeleteAuthenticationToken(ctx context.Context, userID string) error {
	err := s.repo.DeleteAllTokensForUser(ctx, data.ScopeAuthentication, userID)
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

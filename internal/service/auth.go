// Package service contains the business logic layer, sitting between the
// HTTP handlers and the repositories:
//
//	handler (HTTP) → service (rules) → repository (SQL)
//
// Services accept primitives and return domain errors from apperror; they
// know nothing about HTTP status codes or routing.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/pinmap/internal/apperror"
	"github.com/sakif/pinmap/internal/auth"
	"github.com/sakif/pinmap/internal/model"
	"github.com/sakif/pinmap/internal/repository"
)

// AuthService handles registration, login and token verification.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a new account and returns a token for it, so the client
// is logged in immediately after registering.
//
// Duplicate emails come back as apperror.ErrEmailTaken. The check lives in
// the store's UNIQUE constraint, not in a lookup here, so two concurrent
// registrations for the same address cannot both succeed.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return "", apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrEmailTaken) {
			return "", err
		}
		return "", fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for %s: %w", user.ID, err)
	}

	return token, nil
}

// Login verifies the password for the given email and issues a token.
//
// Unknown email and wrong password return the identical
// apperror.ErrInvalidCredentials — callers cannot tell which one happened,
// so login cannot be used to probe for registered addresses.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.InvalidCredentials()
		}
		return "", fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return "", apperror.InvalidCredentials()
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for %s: %w", user.ID, err)
	}

	return token, nil
}

// VerifyToken validates a bearer token and resolves it to the full user
// record. The token only carries the email; the account is re-fetched on
// every call, so tokens for deleted users stop working immediately.
//
// Every failure mode returns apperror.ErrUnauthorized.
func (s *AuthService) VerifyToken(ctx context.Context, tokenStr string) (*model.User, error) {
	email, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return nil, apperror.Unauthorized()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized()
		}
		return nil, fmt.Errorf("service/auth: resolving token user: %w", err)
	}

	return user, nil
}

// DeleteAccount removes the user. Their markers and votes cascade at the
// store, so the next marker listing no longer includes them.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("service/auth: deleting user %s: %w", userID, err)
	}

	s.logger.Info("account deleted", slog.String("userID", userID))
	return nil
}

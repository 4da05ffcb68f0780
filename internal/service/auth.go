// Package service contains the business logic layer of the application.
//
// The layering follows the usual three-tier split:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services take repository interfaces, not concrete sqlite types, so tests
// substitute in-memory mocks and the packages stay decoupled. Services return
// apperror values, never HTTP status codes — the handler does that mapping.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/auth"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/repository"
)

// AuthService handles registration, login, and profile updates.
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

// AuthResult bundles the user record and the issued JWT, so the handler can
// respond to a successful login in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account from name, email, and plaintext password.
//
// All three fields are required. The plaintext is hashed before anything is
// stored; the plaintext itself never leaves this function. Email uniqueness
// is the store's constraint — a duplicate comes back as ErrConflict whether
// the competing registration happened a day ago or on a concurrent request.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login verifies email/password credentials and issues a session token.
//
// An unknown email and a wrong password return the same InvalidCredentials
// error: if the two cases were distinguishable, login responses would reveal
// which emails have accounts. Store failures are not credentials problems and
// propagate as internal errors.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", "email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up user by email: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// ProfileUpdate carries the optional fields of a profile change. Empty
// strings mean "leave unchanged", matching the API's partial-update shape.
type ProfileUpdate struct {
	Name            string
	Email           string
	Password        string // current password, required to change it
	NewPassword     string
	ConfirmPassword string
}

// UpdateProfile applies a partial update to the authenticated user's record.
//
// A password change requires all three password fields: the current password
// (verified against the stored hash), the new one, and its confirmation. If
// any of the three is absent the password is left alone — the original
// behavior, which lets a user rename themselves without retyping a password.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Password != "" && update.NewPassword != "" && update.ConfirmPassword != "" {
		if err := s.passwords.Verify(user.PasswordHash, update.Password); err != nil {
			return nil, apperror.ValidationFailed("password", "incorrect current password")
		}
		if update.NewPassword != update.ConfirmPassword {
			return nil, apperror.ValidationFailed("newPassword", "passwords do not match")
		}

		hash, err := s.passwords.Hash(update.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("service/auth: hashing new password: %w", err)
		}
		user.PasswordHash = hash
	}

	if name := strings.TrimSpace(update.Name); name != "" {
		user.Name = name
	}
	if email := strings.TrimSpace(update.Email); email != "" {
		user.Email = email
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("userID", user.ID))

	return user, nil
}

// GetUserByID returns the user for the given internal ID. Used by /api/auth/me
// after the middleware has validated the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetUserByID(ctx, id)
}

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shelfline/shelfline/internal/platform/httpx"
)

// ConfirmationMailer queues the confirmation message for delivery.
// Delivery is best-effort: a queue failure must not fail the signup.
type ConfirmationMailer interface {
	EnqueueConfirmation(ctx context.Context, to, username, confirmURL string) error
}

// ErrUnconfirmed gates login until the email address is confirmed.
var ErrUnconfirmed = fmt.Errorf("%w: please confirm your email before logging in", httpx.ErrForbidden)

// Service wraps signup, login and email-confirmation business rules.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	tokens    *TokenService
	mailer    ConfirmationMailer
	clientURL string
}

// NewService constructs a new Service.
func NewService(logger *slog.Logger, repo Repository, tokens *TokenService, mailer ConfirmationMailer, clientURL string) *Service {
	return &Service{logger: logger, repo: repo, tokens: tokens, mailer: mailer, clientURL: clientURL}
}

// SignUp creates an unconfirmed user and queues the confirmation email.
// Input shape (password length, email format) is validated by the handler
// before the plaintext reaches this method.
func (s *Service) SignUp(ctx context.Context, username, email, password string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, username, email, hash)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueConfirmation(user)
	if err != nil {
		return nil, fmt.Errorf("issue confirmation token: %w", err)
	}
	confirmURL := fmt.Sprintf("%s/confirm-email/?token=%s", s.clientURL, token)

	if err := s.mailer.EnqueueConfirmation(ctx, user.Email, user.Username, confirmURL); err != nil {
		// The user stays created and unconfirmed; the client can still
		// confirm once delivery recovers.
		s.logger.Warn("enqueue confirmation email",
			slog.String("username", user.Username), slog.Any("error", err))
	}

	return user, nil
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token          string `json:"token"`
	Username       string `json:"username"`
	EmailConfirmed bool   `json:"emailConfirmed"`
}

// Login authenticates username/password credentials and issues a session token.
// Unknown users map to not-found, unconfirmed users to ErrUnconfirmed and a
// wrong password to unauthorized, matching the public contract.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: user not found", httpx.ErrNotFound)
	}
	if !user.Confirmed {
		return nil, ErrUnconfirmed
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: invalid password", httpx.ErrUnauthorized)
	}

	token, err := s.tokens.IssueSession(user)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	return &LoginResult{Token: token, Username: user.Username, EmailConfirmed: true}, nil
}

// ConfirmEmail verifies the confirmation token and marks the user confirmed.
// Confirming an already-confirmed user is a no-op success.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token, PurposeConfirmEmail)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired token", httpx.ErrValidation)
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired token", httpx.ErrValidation)
	}
	if user.Confirmed {
		return nil
	}
	return s.repo.SetConfirmed(ctx, user.ID)
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfline/shelfline/internal/platform/httpx"
)

type mockRepository struct {
	users             map[int64]*User
	nextID            int64
	setConfirmedCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[int64]*User), nextID: 1}
}

func (m *mockRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return u, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *mockRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *mockRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return u, nil
}

func (m *mockRepository) Create(ctx context.Context, username, email, passwordHash string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return nil, fmt.Errorf("%w: username or email already exists", httpx.ErrDuplicate)
		}
	}
	u := &User{
		ID:           m.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	m.nextID++
	return u, nil
}

func (m *mockRepository) SetConfirmed(ctx context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok {
		return httpx.ErrNotFound
	}
	u.Confirmed = true
	m.setConfirmedCalls++
	return nil
}

type stubMailer struct {
	enqueued []string
	err      error
}

func (s *stubMailer) EnqueueConfirmation(ctx context.Context, to, username, confirmURL string) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, confirmURL)
	return nil
}

func newTestService(repo Repository, mailer ConfirmationMailer) (*Service, *TokenService) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := NewTokenService("test-secret", time.Hour, 24*time.Hour)
	return NewService(logger, repo, tokens, mailer, "http://client.local"), tokens
}

func TestSignUpCreatesUnconfirmedUserAndQueuesMail(t *testing.T) {
	repo := newMockRepository()
	mailer := &stubMailer{}
	svc, tokens := newTestService(repo, mailer)

	user, err := svc.SignUp(context.Background(), "ann", "ann@x.com", "longpass1")
	require.NoError(t, err)
	assert.False(t, user.Confirmed)
	assert.Equal(t, RoleUser, user.Role)
	assert.NotEqual(t, "longpass1", user.PasswordHash)

	require.Len(t, mailer.enqueued, 1)
	confirmURL := mailer.enqueued[0]
	assert.Contains(t, confirmURL, "http://client.local/confirm-email/?token=")

	token := confirmURL[len("http://client.local/confirm-email/?token="):]
	claims, err := tokens.Verify(token, PurposeConfirmEmail)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestSignUpDuplicateFailsWithoutMail(t *testing.T) {
	repo := newMockRepository()
	mailer := &stubMailer{}
	svc, _ := newTestService(repo, mailer)

	_, err := svc.SignUp(context.Background(), "ann", "ann@x.com", "longpass1")
	require.NoError(t, err)
	mailer.enqueued = nil

	_, err = svc.SignUp(context.Background(), "ann", "other@x.com", "longpass1")
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
	_, err = svc.SignUp(context.Background(), "other", "ann@x.com", "longpass1")
	assert.ErrorIs(t, err, httpx.ErrDuplicate)

	assert.Empty(t, mailer.enqueued)
	assert.Len(t, repo.users, 1)
}

func TestSignUpSucceedsWhenEnqueueFails(t *testing.T) {
	repo := newMockRepository()
	mailer := &stubMailer{err: errors.New("queue down")}
	svc, _ := newTestService(repo, mailer)

	user, err := svc.SignUp(context.Background(), "ann", "ann@x.com", "longpass1")
	require.NoError(t, err)
	assert.False(t, user.Confirmed)
	assert.Len(t, repo.users, 1)
}

func TestLoginOutcomes(t *testing.T) {
	repo := newMockRepository()
	mailer := &stubMailer{}
	svc, tokens := newTestService(repo, mailer)

	user, err := svc.SignUp(context.Background(), "ann", "ann@x.com", "longpass1")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "nobody", "longpass1")
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	_, err = svc.Login(context.Background(), "ann", "longpass1")
	assert.ErrorIs(t, err, ErrUnconfirmed)

	require.NoError(t, repo.SetConfirmed(context.Background(), user.ID))

	_, err = svc.Login(context.Background(), "ann", "wrongpass")
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)

	result, err := svc.Login(context.Background(), "ann", "longpass1")
	require.NoError(t, err)
	assert.Equal(t, "ann", result.Username)
	assert.True(t, result.EmailConfirmed)

	claims, err := tokens.Verify(result.Token, PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestConfirmEmailFlipsFlagOnce(t *testing.T) {
	repo := newMockRepository()
	mailer := &stubMailer{}
	svc, tokens := newTestService(repo, mailer)

	user, err := svc.SignUp(context.Background(), "ann", "ann@x.com", "longpass1")
	require.NoError(t, err)

	token, err := tokens.IssueConfirmation(user)
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmEmail(context.Background(), token))
	assert.True(t, repo.users[user.ID].Confirmed)
	assert.Equal(t, 1, repo.setConfirmedCalls)

	// Re-using the captured token is a no-op success.
	require.NoError(t, svc.ConfirmEmail(context.Background(), token))
	assert.Equal(t, 1, repo.setConfirmedCalls)
}

func TestConfirmEmailRejectsBadTokens(t *testing.T) {
	repo := newMockRepository()
	mailer := &stubMailer{}
	svc, tokens := newTestService(repo, mailer)

	user, err := svc.SignUp(context.Background(), "ann", "ann@x.com", "longpass1")
	require.NoError(t, err)

	err = svc.ConfirmEmail(context.Background(), "garbage")
	assert.ErrorIs(t, err, httpx.ErrValidation)

	// A session token must not confirm the email.
	session, err := tokens.IssueSession(user)
	require.NoError(t, err)
	err = svc.ConfirmEmail(context.Background(), session)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	// Expired confirmation tokens are rejected.
	expired := NewTokenService("test-secret", time.Hour, -time.Minute)
	token, err := expired.IssueConfirmation(user)
	require.NoError(t, err)
	err = svc.ConfirmEmail(context.Background(), token)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	assert.False(t, repo.users[user.ID].Confirmed)
}

func TestConfirmEmailUnknownUser(t *testing.T) {
	repo := newMockRepository()
	mailer := &stubMailer{}
	svc, tokens := newTestService(repo, mailer)

	token, err := tokens.IssueConfirmation(&User{ID: 99, Username: "ghost", Email: "ghost@x.com"})
	require.NoError(t, err)

	err = svc.ConfirmEmail(context.Background(), token)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

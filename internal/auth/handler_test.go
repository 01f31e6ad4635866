package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfline/shelfline/internal/shared"
	_ "github.com/shelfline/shelfline/testing"
)

func newTestRouter(t *testing.T) (*chi.Mux, *mockRepository, *stubMailer, *TokenService) {
	t.Helper()
	repo := newMockRepository()
	mailer := &stubMailer{}
	svc, tokens := newTestService(repo, mailer)
	handler := NewHandler(testLogger(), svc)

	r := chi.NewRouter()
	r.Route("/user", handler.MountRoutes)
	return r, repo, mailer, tokens
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestSignupEndpoint(t *testing.T) {
	router, repo, _, _ := newTestRouter(t)

	res := doJSON(t, router, http.MethodPost, "/user/signup",
		`{"username":"ann","email":"ann@x.com","password":"longpass1"}`)
	require.Equal(t, http.StatusCreated, res.Code)

	var body struct {
		Message string          `json:"message"`
		NewUser json.RawMessage `json:"newUser"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Message)
	assert.NotContains(t, string(body.NewUser), "passwordHash")
	assert.Contains(t, string(body.NewUser), `"isConfirmed":false`)
	assert.Len(t, repo.users, 1)
}

func TestSignupValidation(t *testing.T) {
	router, repo, _, _ := newTestRouter(t)

	// Password under 8 characters.
	res := doJSON(t, router, http.MethodPost, "/user/signup",
		`{"username":"ann","email":"ann@x.com","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	// Malformed email.
	res = doJSON(t, router, http.MethodPost, "/user/signup",
		`{"username":"ann","email":"not-an-email","password":"longpass1"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	assert.Empty(t, repo.users)
}

func TestSignupDuplicate(t *testing.T) {
	router, repo, _, _ := newTestRouter(t)

	res := doJSON(t, router, http.MethodPost, "/user/signup",
		`{"username":"ann","email":"ann@x.com","password":"longpass1"}`)
	require.Equal(t, http.StatusCreated, res.Code)

	res = doJSON(t, router, http.MethodPost, "/user/signup",
		`{"username":"ann","email":"other@x.com","password":"longpass1"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Len(t, repo.users, 1)
}

func TestLoginFlow(t *testing.T) {
	router, repo, mailer, tokens := newTestRouter(t)

	res := doJSON(t, router, http.MethodPost, "/user/signup",
		`{"username":"ann","email":"ann@x.com","password":"longpass1"}`)
	require.Equal(t, http.StatusCreated, res.Code)

	// Unknown user.
	res = doJSON(t, router, http.MethodPost, "/user/login",
		`{"username":"ghost","password":"longpass1"}`)
	assert.Equal(t, http.StatusNotFound, res.Code)

	// Before confirmation.
	res = doJSON(t, router, http.MethodPost, "/user/login",
		`{"username":"ann","password":"longpass1"}`)
	require.Equal(t, http.StatusForbidden, res.Code)
	var forbidden struct {
		EmailConfirmed bool   `json:"emailConfirmed"`
		Username       string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &forbidden))
	assert.False(t, forbidden.EmailConfirmed)
	assert.Equal(t, "ann", forbidden.Username)

	// Confirm via the link queued at signup.
	require.Len(t, mailer.enqueued, 1)
	token := mailer.enqueued[0][strings.Index(mailer.enqueued[0], "token=")+len("token="):]
	res = doJSON(t, router, http.MethodPost, "/user/confirm-email?token="+token, "")
	require.Equal(t, http.StatusOK, res.Code)

	// Wrong password.
	res = doJSON(t, router, http.MethodPost, "/user/login",
		`{"username":"ann","password":"wrongpass"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	// Success.
	res = doJSON(t, router, http.MethodPost, "/user/login",
		`{"username":"ann","password":"longpass1"}`)
	require.Equal(t, http.StatusOK, res.Code)
	var login LoginResult
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &login))
	assert.True(t, login.EmailConfirmed)

	claims, err := tokens.Verify(login.Token, PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, repo.users[claims.UserID].Username, "ann")
}

func TestConfirmEmailEndpoint(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	res := doJSON(t, router, http.MethodPost, "/user/confirm-email", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = doJSON(t, router, http.MethodPost, "/user/confirm-email?token=garbage", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestRequireAuthGate(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Hour, 24*time.Hour)
	gate := NewMiddleware(tokens)

	var gotUserID int64
	protected := gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := shared.IdentityFromContext(r.Context())
		require.True(t, ok)
		gotUserID = identity.UserID
		w.WriteHeader(http.StatusOK)
	}))

	// Absent header.
	res := httptest.NewRecorder()
	protected.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/books", nil))
	assert.Equal(t, http.StatusForbidden, res.Code)

	// Garbage token.
	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	res = httptest.NewRecorder()
	protected.ServeHTTP(res, req)
	assert.Equal(t, http.StatusForbidden, res.Code)

	user := &User{ID: 7, Username: "ann", Email: "ann@x.com"}

	// Confirmation token presented as a session token.
	confirmation, err := tokens.IssueConfirmation(user)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Authorization", "Bearer "+confirmation)
	res = httptest.NewRecorder()
	protected.ServeHTTP(res, req)
	assert.Equal(t, http.StatusForbidden, res.Code)

	// Valid session token; the gate does not consult the store, so it
	// passes even though no user record exists anywhere.
	session, err := tokens.IssueSession(user)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Authorization", "Bearer "+session)
	res = httptest.NewRecorder()
	protected.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, int64(7), gotUserID)
}

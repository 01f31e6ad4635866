package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose restricts where a token is accepted. A confirmation token cannot
// act as a bearer session token, nor the other way around.
type Purpose string

const (
	PurposeSession      Purpose = "session"
	PurposeConfirmEmail Purpose = "confirm-email"
)

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures and purpose mismatches.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired indicates the token was valid but past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the signed token payload.
type Claims struct {
	UserID   int64   `json:"userId"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Purpose  Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 identity tokens with a single
// process-wide secret loaded at startup. There is no key rotation and no
// revocation list: validity is signature plus expiry.
type TokenService struct {
	signKey    []byte
	sessionTTL time.Duration
	confirmTTL time.Duration
}

// NewTokenService constructs a TokenService.
func NewTokenService(secret string, sessionTTL, confirmTTL time.Duration) *TokenService {
	return &TokenService{signKey: []byte(secret), sessionTTL: sessionTTL, confirmTTL: confirmTTL}
}

// IssueSession creates a short-lived bearer token for the user.
func (s *TokenService) IssueSession(u *User) (string, error) {
	return s.issue(u, PurposeSession, s.sessionTTL)
}

// IssueConfirmation creates the email-confirmation token for the user.
func (s *TokenService) IssueConfirmation(u *User) (string, error) {
	return s.issue(u, PurposeConfirmEmail, s.confirmTTL)
}

func (s *TokenService) issue(u *User, purpose Purpose, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Purpose:  purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.signKey)
}

// Verify parses the token, checks the signature and expiry, and rejects
// tokens issued for a different purpose.
func (s *TokenService) Verify(token string, want Purpose) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != want {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

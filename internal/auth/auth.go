// Package auth verifies bearer tokens and carries the caller's user id in a context.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthenticated is matched by every authentication failure.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrMissingToken means the request carried no bearer token.
	ErrMissingToken = fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	// ErrInvalidToken means the token failed verification or carries no user id.
	ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
)

// Claims is the token payload. UserID may be encoded as a number or a string.
type Claims struct {
	UserID json.Number `json:"id"`
	Email  string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies and issues HS256 tokens.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

// New creates an authenticator for the shared secret.
func New(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), now: time.Now}
}

// Authenticate verifies an Authorization header value and returns the user id.
func (a *Authenticator) Authenticate(header string) (int64, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return 0, ErrMissingToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.UserID.String(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id claim %q", ErrInvalidToken, claims.UserID)
	}
	return id, nil
}

// Issue signs a token for userID that expires after ttl.
func (a *Authenticator) Issue(userID int64, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		UserID: json.Number(strconv.FormatInt(userID, 10)),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

type contextKey struct{}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// UserID returns the user id stored by WithUserID.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKey{}).(int64)
	return id, ok
}

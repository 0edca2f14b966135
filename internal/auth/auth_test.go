package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func sign(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	return s
}

func TestAuthenticate_IssuedToken(t *testing.T) {
	a := New("s3cret")
	token, err := a.Issue(42, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	id, err := a.Authenticate("Bearer " + token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if id != 42 {
		t.Errorf("got %d, want 42", id)
	}
}

func TestAuthenticate(t *testing.T) {
	const secret = "s3cret"
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name    string
		header  func(t *testing.T) string
		wantID  int64
		wantErr error
	}{
		{
			name:   "numeric id",
			header: func(t *testing.T) string { return "Bearer " + sign(t, secret, jwt.MapClaims{"id": 7, "exp": future}) },
			wantID: 7,
		},
		{
			name:   "string id",
			header: func(t *testing.T) string { return "bearer " + sign(t, secret, jwt.MapClaims{"id": "12"}) },
			wantID: 12,
		},
		{
			name:    "missing header",
			header:  func(*testing.T) string { return "" },
			wantErr: ErrMissingToken,
		},
		{
			name:    "wrong scheme",
			header:  func(*testing.T) string { return "Basic dXNlcjpwYXNz" },
			wantErr: ErrMissingToken,
		},
		{
			name:    "wrong secret",
			header:  func(t *testing.T) string { return "Bearer " + sign(t, "other", jwt.MapClaims{"id": 7}) },
			wantErr: ErrInvalidToken,
		},
		{
			name: "expired",
			header: func(t *testing.T) string {
				return "Bearer " + sign(t, secret, jwt.MapClaims{"id": 7, "exp": time.Now().Add(-time.Minute).Unix()})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name:    "no id claim",
			header:  func(t *testing.T) string { return "Bearer " + sign(t, secret, jwt.MapClaims{"email": "a@b.c"}) },
			wantErr: ErrInvalidToken,
		},
		{
			name:    "garbage",
			header:  func(*testing.T) string { return "Bearer not.a.token" },
			wantErr: ErrInvalidToken,
		},
	}

	a := New(secret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := a.Authenticate(tt.header(t))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				if !errors.Is(err, ErrUnauthenticated) {
					t.Errorf("error %v does not match ErrUnauthenticated", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if id != tt.wantID {
				t.Errorf("got %d, want %d", id, tt.wantID)
			}
		})
	}
}

func TestAuthenticate_RejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	if _, err := New("s3cret").Authenticate("Bearer " + token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestUserIDContext(t *testing.T) {
	if _, ok := UserID(context.Background()); ok {
		t.Error("empty context reported a user id")
	}
	id, ok := UserID(WithUserID(context.Background(), 9))
	if !ok || id != 9 {
		t.Errorf("got %d/%v, want 9/true", id, ok)
	}
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"budgetai/internal/core"
	"budgetai/internal/store/memory"
)

func newAuth() (*PasswordAuthenticator, *memory.Store) {
	repo := memory.New()
	return NewPasswordAuthenticator(repo).WithCost(bcrypt.MinCost), repo
}

func TestRegisterAndAuthenticate(t *testing.T) {
	a, _ := newAuth()
	ctx := context.Background()

	u, err := a.Register(ctx, " Demo@Example.com ", "Demo", "demo1234")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "demo@example.com" || u.ID == "" || u.PasswordHash == "demo1234" {
		t.Fatalf("unexpected user %+v", u)
	}

	if _, err := a.Authenticate(ctx, "demo@example.com", "demo1234"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if _, err := a.Authenticate(ctx, "demo@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := a.Authenticate(ctx, "nobody@example.com", "demo1234"); !errors.Is(err, core.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	a, _ := newAuth()
	ctx := context.Background()
	cases := []struct {
		name, email, password string
		want                  error
	}{
		{"short password", "a@example.com", "short", core.ErrValidation},
		{"bad email", "not-an-email", "long-enough", core.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := a.Register(ctx, tc.email, "x", tc.password); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := a.Register(ctx, "dup@example.com", "x", "password1"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Register(ctx, "DUP@example.com", "x", "password2"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected email exists, got %v", err)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("0123456789abcdef", time.Hour)
	token, err := m.Generate(&core.User{ID: "u1", Email: "demo@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	claims, err := m.Validate(token)
	if err != nil || claims.UserID != "u1" || claims.Email != "demo@example.com" {
		t.Fatalf("unexpected claims %+v (%v)", claims, err)
	}

	other := NewJWTManager("another-secret-value", time.Hour)
	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token with wrong key, got %v", err)
	}
	expired := NewJWTManager("0123456789abcdef", -time.Minute)
	old, _ := expired.Generate(&core.User{ID: "u1"})
	if _, err := m.Validate(old); !errors.Is(err, core.ErrAuth) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	a, repo := newAuth()
	ctx := context.Background()
	if _, err := a.Register(ctx, "demo@example.com", "Demo", "demo1234"); err != nil {
		t.Fatal(err)
	}
	rm := NewResetManager(repo, repo, a, time.Hour)

	if _, ok, err := rm.Request(ctx, "ghost@example.com"); err != nil || ok {
		t.Fatalf("unknown email should not issue a token: ok=%v err=%v", ok, err)
	}

	token, ok, err := rm.Request(ctx, "demo@example.com")
	if err != nil || !ok || token == "" {
		t.Fatalf("Request: %q %v %v", token, ok, err)
	}
	if err := rm.Reset(ctx, token, "new-password"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := a.Authenticate(ctx, "demo@example.com", "new-password"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if err := rm.Reset(ctx, token, "again-password"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("token should be single use, got %v", err)
	}
}

func TestPasswordResetExpired(t *testing.T) {
	a, repo := newAuth()
	ctx := context.Background()
	_, _ = a.Register(ctx, "demo@example.com", "Demo", "demo1234")
	rm := NewResetManager(repo, repo, a, time.Hour)
	token, _, _ := rm.Request(ctx, "demo@example.com")

	rm.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if err := rm.Reset(ctx, token, "new-password"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

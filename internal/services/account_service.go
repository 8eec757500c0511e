// Package services orchestrates account operations across the auth,
// template and storage packages.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"budgetai/internal/auth"
	"budgetai/internal/core"
	"budgetai/internal/log"
	"budgetai/internal/store"
	"budgetai/internal/templates"
)

// AccountService registers users, signs them in and resets passwords.
type AccountService struct {
	repo      store.Repository
	auth      *auth.PasswordAuthenticator
	tokens    *auth.JWTManager
	resets    *auth.ResetManager
	templates *templates.Set
	newID     func() string
	logger    *log.Logger
}

// SignedIn is returned by Register and Login.
type SignedIn struct {
	User  *core.User `json:"user"`
	Token string     `json:"token"`
}

func NewAccountService(
	repo store.Repository,
	authenticator *auth.PasswordAuthenticator,
	tokens *auth.JWTManager,
	resets *auth.ResetManager,
	tmpl *templates.Set,
) *AccountService {
	return &AccountService{
		repo:      repo,
		auth:      authenticator,
		tokens:    tokens,
		resets:    resets,
		templates: tmpl,
		newID:     uuid.NewString,
		logger:    log.Default(log.ComponentAuth),
	}
}

// Register creates the user and writes the new-user template as their
// starting documents. If that write fails the account still exists and is
// provisioned on its first login.
func (s *AccountService) Register(ctx context.Context, email, name, password string) (*SignedIn, error) {
	user, err := s.auth.Register(ctx, email, name, password)
	if err != nil {
		return nil, err
	}
	if err := s.provision(ctx, user, s.templates.NewUser); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, user.ID)
	return s.signIn(user)
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*SignedIn, error) {
	user, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, core.ErrAuth) {
			s.logger.WarnContext(ctx, "Login failed", log.FieldOperation, log.OpLogin)
		}
		return nil, err
	}
	if err := s.ensureProvisioned(ctx, user, s.templates.NewUser); err != nil {
		return nil, err
	}
	return s.signIn(user)
}

// User resolves a validated token's user.
func (s *AccountService) User(ctx context.Context, id string) (*core.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, auth.ErrInvalidToken
	}
	return user, err
}

// Authorize checks that a validated token still belongs to an existing
// user and was issued under their current password.
func (s *AccountService) Authorize(ctx context.Context, claims *auth.Claims) (*core.User, error) {
	user, err := s.User(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if claims.PasswordStamp != auth.PasswordStamp(user.PasswordHash) {
		s.logger.InfoContext(ctx, "Token issued before a password change", log.FieldUserID, user.ID)
		return nil, auth.ErrInvalidToken
	}
	return user, nil
}

// RequestPasswordReset returns a reset token for email. The token is empty
// when no account exists; callers must answer the same way in both cases.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	token, ok, err := s.resets.Request(ctx, email)
	if err != nil {
		return "", err
	}
	if !ok {
		s.logger.InfoContext(ctx, "Password reset requested for unknown email")
		return "", nil
	}
	return token, nil
}

func (s *AccountService) ResetPassword(ctx context.Context, token, password string) error {
	return s.resets.Reset(ctx, token, password)
}

// SeedDemo creates the demo account from the demo template unless its
// email is already registered. created reports whether anything was written.
func (s *AccountService) SeedDemo(ctx context.Context) (user *core.User, created bool, err error) {
	demo := s.templates.Demo
	existing, err := s.repo.GetUserByEmail(ctx, demo.Email)
	if err == nil {
		return existing, false, s.ensureProvisioned(ctx, existing, demo)
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, false, fmt.Errorf("look up demo user: %w", err)
	}

	user, err = s.auth.Register(ctx, demo.Email, demo.Name, demo.Password)
	if err != nil {
		return nil, false, fmt.Errorf("register demo user: %w", err)
	}
	if err := s.provision(ctx, user, demo); err != nil {
		return nil, false, err
	}
	s.logger.InfoContext(ctx, "Demo account seeded", log.FieldUserID, user.ID)
	return user, true, nil
}

// provision writes the template documents. The config goes last and marks
// the account as provisioned.
func (s *AccountService) provision(ctx context.Context, user *core.User, tmpl templates.Template) error {
	cfg, profile := tmpl.Instantiate(user.Name, s.newID)
	if err := s.repo.SaveProfile(ctx, user.ID, core.FullProfilePatch(profile)); err != nil {
		return core.Persistence("save profile", err)
	}
	if err := s.repo.SaveCart(ctx, user.ID, []core.CartItem{}); err != nil {
		return core.Persistence("save cart", err)
	}
	if err := s.repo.SaveConfig(ctx, user.ID, core.FullConfigPatch(cfg)); err != nil {
		return core.Persistence("save config", err)
	}
	return nil
}

func (s *AccountService) ensureProvisioned(ctx context.Context, user *core.User, tmpl templates.Template) error {
	cfg, err := s.repo.GetConfig(ctx, user.ID)
	if err != nil {
		return core.Persistence("load config", err)
	}
	if cfg != nil {
		return nil
	}
	s.logger.WarnContext(ctx, "Provisioning account left incomplete at registration", log.FieldUserID, user.ID)
	return s.provision(ctx, user, tmpl)
}

func (s *AccountService) signIn(user *core.User) (*SignedIn, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}
	return &SignedIn{User: user, Token: token}, nil
}

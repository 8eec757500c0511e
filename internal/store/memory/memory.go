// Package memory is an in-process Repository used for development and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"budgetai/internal/core"
	"budgetai/internal/store"
)

type Store struct {
	mu       sync.Mutex
	configs  map[string]core.BudgetConfig
	profiles map[string]core.Profile
	carts    map[string][]core.CartItem
	users    map[string]core.User
	byEmail  map[string]string
	tokens   map[string]store.ResetToken
}

var _ store.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		configs:  map[string]core.BudgetConfig{},
		profiles: map[string]core.Profile{},
		carts:    map[string][]core.CartItem{},
		users:    map[string]core.User{},
		byEmail:  map[string]string{},
		tokens:   map[string]store.ResetToken{},
	}
}

func (s *Store) GetConfig(_ context.Context, userID string) (*core.BudgetConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[userID]
	if !ok {
		return nil, nil
	}
	cfg = cfg.Clone()
	return &cfg, nil
}

func (s *Store) SaveConfig(_ context.Context, userID string, patch core.ConfigPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	base, ok := s.configs[userID]
	if !ok {
		base = core.EmptyConfig()
	}
	s.configs[userID] = core.MergeConfig(base, patch)
	return nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (*core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	p = p.Clone()
	return &p, nil
}

func (s *Store) SaveProfile(_ context.Context, userID string, patch core.ProfilePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	base, ok := s.profiles[userID]
	if !ok {
		base = core.EmptyProfile()
	}
	s.profiles[userID] = core.MergeProfile(base, patch)
	return nil
}

func (s *Store) GetCart(_ context.Context, userID string) ([]core.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.CloneCart(s.carts[userID]), nil
}

func (s *Store) SaveCart(_ context.Context, userID string, items []core.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = core.CloneCart(items)
	return nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(u.Email)
	if _, taken := s.byEmail[email]; taken {
		return fmt.Errorf("user %s: %w", email, store.ErrDuplicate)
	}
	u.Email = email
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, core.NotFound("user", email)
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.NotFound("user", id)
	}
	return &u, nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return core.NotFound("user", userID)
	}
	u.PasswordHash = hash
	s.users[userID] = u
	return nil
}

func (s *Store) SaveResetToken(_ context.Context, t store.ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.TokenHash] = t
	return nil
}

func (s *Store) GetResetToken(_ context.Context, tokenHash string) (*store.ResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok {
		return nil, core.NotFound("reset token", "")
	}
	return &t, nil
}

func (s *Store) DeleteResetToken(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenHash)
	return nil
}

func (s *Store) Close() error { return nil }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

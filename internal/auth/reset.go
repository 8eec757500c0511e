package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"budgetai/internal/core"
	"budgetai/internal/store"
)

// ResetManager issues single-use password reset tokens. Only a SHA-256 of
// each token is stored.
type ResetManager struct {
	tokens store.ResetTokenStore
	users  store.UserStore
	auth   *PasswordAuthenticator
	ttl    time.Duration
	now    func() time.Time
}

func NewResetManager(tokens store.ResetTokenStore, users store.UserStore, auth *PasswordAuthenticator, ttl time.Duration) *ResetManager {
	return &ResetManager{tokens: tokens, users: users, auth: auth, ttl: ttl, now: time.Now}
}

// Request creates a reset token for email. ok is false when no such user
// exists; callers should not reveal that to the requester.
func (m *ResetManager) Request(ctx context.Context, email string) (token string, ok bool, err error) {
	user, err := m.users.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load user: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", false, fmt.Errorf("generate reset token: %w", err)
	}
	token = hex.EncodeToString(raw)
	err = m.tokens.SaveResetToken(ctx, store.ResetToken{
		TokenHash: hashToken(token),
		UserID:    user.ID,
		ExpiresAt: m.now().Add(m.ttl).UTC(),
	})
	if err != nil {
		return "", false, fmt.Errorf("save reset token: %w", err)
	}
	return token, true, nil
}

// Reset sets a new password using token. The token is consumed on success.
func (m *ResetManager) Reset(ctx context.Context, token, newPassword string) error {
	hash := hashToken(token)
	rt, err := m.tokens.GetResetToken(ctx, hash)
	if errors.Is(err, core.ErrNotFound) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("load reset token: %w", err)
	}
	if m.now().After(rt.ExpiresAt) {
		_ = m.tokens.DeleteResetToken(ctx, hash)
		return ErrResetTokenInvalid
	}

	pwHash, err := m.auth.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := m.users.UpdatePasswordHash(ctx, rt.UserID, pwHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := m.tokens.DeleteResetToken(ctx, hash); err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Package store defines the persistence ports of the budgeting core.
//
// Get methods return (nil, nil) when the user has no stored document. Save
// methods for config and profile shallow-merge the patch into the stored
// document; SaveCart replaces the whole cart.
package store

import (
	"context"
	"errors"
	"time"

	"budgetai/internal/core"
)

// ErrDuplicate is returned when creating a user whose email is taken.
var ErrDuplicate = errors.New("already exists")

// Ports for persistence adapters.
type (
	ConfigStore interface {
		GetConfig(ctx context.Context, userID string) (*core.BudgetConfig, error)
		SaveConfig(ctx context.Context, userID string, patch core.ConfigPatch) error
	}

	ProfileStore interface {
		GetProfile(ctx context.Context, userID string) (*core.Profile, error)
		SaveProfile(ctx context.Context, userID string, patch core.ProfilePatch) error
	}

	CartStore interface {
		GetCart(ctx context.Context, userID string) ([]core.CartItem, error)
		SaveCart(ctx context.Context, userID string, items []core.CartItem) error
	}

	// SessionStore is what a user session needs.
	SessionStore interface {
		ConfigStore
		ProfileStore
		CartStore
	}

	UserStore interface {
		CreateUser(ctx context.Context, u core.User) error
		GetUserByEmail(ctx context.Context, email string) (*core.User, error)
		GetUserByID(ctx context.Context, id string) (*core.User, error)
		UpdatePasswordHash(ctx context.Context, userID, hash string) error
	}

	ResetTokenStore interface {
		SaveResetToken(ctx context.Context, t ResetToken) error
		GetResetToken(ctx context.Context, tokenHash string) (*ResetToken, error)
		DeleteResetToken(ctx context.Context, tokenHash string) error
	}

	// Repository is implemented by every backend.
	Repository interface {
		SessionStore
		UserStore
		ResetTokenStore
		Close() error
	}
)

// ResetToken is a pending password reset. Only the hash of the token handed
// to the user is stored.
type ResetToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
}

// Package auth handles user credentials, session tokens and password resets.
package auth

import (
	"context"
	"fmt"

	"budgetai/internal/core"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", core.ErrAuth)
	ErrEmailExists        = fmt.Errorf("%w: email already registered", core.ErrAuth)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", core.ErrAuth)
	ErrMissingToken       = fmt.Errorf("%w: authorization token required", core.ErrAuth)
	ErrResetTokenInvalid  = fmt.Errorf("%w: reset token is invalid or expired", core.ErrAuth)
)

// Authenticator verifies and creates user credentials. Password is the only
// implementation today.
type Authenticator interface {
	Register(ctx context.Context, email, displayName, credential string) (*core.User, error)
	Authenticate(ctx context.Context, email, credential string) (*core.User, error)
	ValidateCredential(credential string) error
}

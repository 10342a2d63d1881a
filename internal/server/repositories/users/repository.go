// Package users stores registered identities and their chain targets.
//
// Every implementation must make SwapCredential atomic: the stored target is
// replaced only if it still equals the expected value, so two concurrent
// sign-ins validated against the same target cannot both win.
package users

import (
	"context"

	"github.com/dmitrijs2005/chainkeeper/internal/server/models"
)

type Repository interface {
	// Create stores a new user, failing with common.ErrorAlreadyExists on a
	// taken username.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin returns common.ErrorNotFound for unknown names.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	Exists(ctx context.Context, login string) (bool, error)
	// SwapCredential replaces the stored target with replacement if it is
	// still expected. Otherwise it returns common.ErrVersionConflict, or
	// common.ErrorNotFound when the user is gone.
	SwapCredential(ctx context.Context, login, expected, replacement string) error
}

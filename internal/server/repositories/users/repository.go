// Package users declares the repository contract for account records.
package users

import (
	"context"

	"github.com/dmitrijs2005/authwall/internal/server/models"
)

// Repository defines operations for creating and querying users.
// Implementations return common.ErrorNotFound for absent rows and
// common.ErrorAlreadyExists when the normalized-email uniqueness
// constraint is violated.
type Repository interface {
	// Create inserts a new user and fills in the generated id.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByID returns the user with the given id.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByIDs returns the users matching the given ids, in no particular
	// order. Ids with no matching row are silently skipped.
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)

	// FindByNormalizedEmail returns the user owning the normalized email.
	FindByNormalizedEmail(ctx context.Context, email string) (*models.User, error)

	// ConfirmEmail marks the user's email as confirmed and clears the
	// confirmation secret in a single update.
	ConfirmEmail(ctx context.Context, id string) error
}

// Package tokens declares the repository contract for refresh-session
// rows. One row exists per issued token pair; deleting a row revokes the
// pair it correlates with.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/authwall/internal/server/models"
)

// Repository defines operations for storing and revoking Token rows.
// Delete operations on absent rows are not an error.
type Repository interface {
	// Insert stores a new Token row.
	Insert(ctx context.Context, token *models.Token) error

	// GetByUser returns all Token rows owned by userID.
	GetByUser(ctx context.Context, userID string) ([]models.Token, error)

	// CountByUser returns the number of Token rows owned by userID.
	CountByUser(ctx context.Context, userID string) (int, error)

	// DeleteByID removes a single row by its correlation id.
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUser removes every row owned by userID (family revocation).
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteByUserAndFingerprint removes the row bound to one device, so a
	// new login from that device supersedes its previous session.
	DeleteByUserAndFingerprint(ctx context.Context, userID, fingerprint string) error
}

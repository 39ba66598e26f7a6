// Package refreshtokens declares the server-side repository contract for
// the single stored refresh token of each user.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/lingoplay/internal/server/models"
)

// Repository holds at most one refresh token per user.
type Repository interface {
	// Upsert stores token as the refresh token of userID, replacing any
	// previous one in a single statement.
	Upsert(ctx context.Context, userID int64, token string) error

	// Find looks up a refresh token by its value. Implementations return
	// common.ErrNotFound when the token is absent. Request paths do not call
	// it; tests and the integration suite use it to inspect stored rows.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// FindByUser returns the stored refresh token of userID, or
	// common.ErrNotFound. Inside a transaction the row stays locked until
	// commit.
	FindByUser(ctx context.Context, userID int64) (*models.RefreshToken, error)

	// Consume deletes the row holding token and returns its user id. Of
	// several concurrent callers with the same token at most one succeeds,
	// the others get common.ErrNotFound.
	Consume(ctx context.Context, token string) (int64, error)

	// Delete removes a refresh token by its value. Deleting a non-existent
	// token is not an error.
	Delete(ctx context.Context, token string) error
}

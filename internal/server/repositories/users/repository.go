// Package users declares the credential store: user identities and their
// password hashes.
package users

import (
	"context"

	"github.com/dmitrijs2005/lingoplay/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills its ID and CreatedAt. A collision on
	// email or username is reported as common.ErrDuplicateIdentity.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

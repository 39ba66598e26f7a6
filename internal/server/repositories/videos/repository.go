// Package videos stores metadata of uploaded videos.
package videos

import (
	"context"

	"github.com/dmitrijs2005/lingoplay/internal/server/models"
)

type Repository interface {
	// Create inserts v and fills ID and CreatedAt. A second video with the
	// same path is reported as common.ErrAlreadyExists.
	Create(ctx context.Context, v *models.Video) (*models.Video, error)
	ExistsByPath(ctx context.Context, path string) (bool, error)
	// GetByID returns the video only if it belongs to userID.
	GetByID(ctx context.Context, userID, id int64) (*models.Video, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Video, error)
}

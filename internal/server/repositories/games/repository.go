// Package games stores the games videos are attached to.
package games

import (
	"context"

	"github.com/dmitrijs2005/lingoplay/internal/server/models"
)

// Filter narrows Search. A nil UserID searches every user's games; Title is a
// case-insensitive substring.
type Filter struct {
	UserID *int64
	Title  string
}

type Repository interface {
	Create(ctx context.Context, g *models.Game) (*models.Game, error)
	// GetByID returns the game only if it belongs to userID.
	GetByID(ctx context.Context, userID, id int64) (*models.Game, error)
	Search(ctx context.Context, f Filter) ([]*models.Game, error)
}

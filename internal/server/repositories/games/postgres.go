package games

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/dmitrijs2005/lingoplay/internal/dbx"
	"github.com/dmitrijs2005/lingoplay/internal/server/models"
	"github.com/georgysavva/scany/v2/sqlscan"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, g *models.Game) (*models.Game, error) {
	query := `
		INSERT INTO games (title, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, g.Title, g.UserID).Scan(&g.ID, &g.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id int64) (*models.Game, error) {
	query := `
		SELECT id, title, user_id, created_at
		FROM games
		WHERE id = $1 AND user_id = $2
	`
	g := &models.Game{}
	if err := sqlscan.Get(ctx, r.db, g, query, id, userID); err != nil {
		if sqlscan.NotFound(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) Search(ctx context.Context, f Filter) ([]*models.Game, error) {
	query := `
		SELECT id, title, user_id, created_at
		FROM games
		WHERE ($1::bigint IS NULL OR user_id = $1)
		  AND ($2::text = '' OR title ILIKE '%' || $2 || '%')
		ORDER BY id
	`
	var list []*models.Game
	if err := sqlscan.Select(ctx, r.db, &list, query, f.UserID, f.Title); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

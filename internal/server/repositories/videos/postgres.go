package videos

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/dmitrijs2005/lingoplay/internal/dbx"
	"github.com/dmitrijs2005/lingoplay/internal/server/models"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.Video) (*models.Video, error) {
	query := `
		INSERT INTO videos (title, path, game_id, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, v.Title, v.Path, v.GameID, v.UserID).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) ExistsByPath(ctx context.Context, path string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM videos WHERE path = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, path).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id int64) (*models.Video, error) {
	query := `
		SELECT id, title, path, game_id, user_id, created_at
		FROM videos
		WHERE id = $1 AND user_id = $2
	`
	v := &models.Video{}
	if err := sqlscan.Get(ctx, r.db, v, query, id, userID); err != nil {
		if sqlscan.NotFound(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Video, error) {
	query := `
		SELECT id, title, path, game_id, user_id, created_at
		FROM videos
		WHERE user_id = $1
		ORDER BY id
	`
	var list []*models.Video
	if err := sqlscan.Select(ctx, r.db, &list, query, userID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

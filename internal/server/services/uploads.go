package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/dmitrijs2005/lingoplay/internal/logging"
	"github.com/dmitrijs2005/lingoplay/internal/server/models"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/games"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lingoplay/internal/server/storage"
)

// VideoUpload is a video received from a client.
type VideoUpload struct {
	UserID      int64
	Title       string
	GameID      int64
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// VideoStorageKey is where a user's video lives in storage:
// "<user_id>/videos/<title><ext>".
func VideoStorageKey(userID int64, title, fileName string) string {
	return path.Join(fmt.Sprint(userID), "videos", title+filepath.Ext(fileName))
}

type UploadService struct {
	repomanager repomanager.RepositoryManager
	storage     storage.Storage
	logger      logging.Logger
}

func NewUploadService(m repomanager.RepositoryManager, s storage.Storage, logger logging.Logger) *UploadService {
	return &UploadService{repomanager: m, storage: s, logger: logger.With("module", "uploads")}
}

// AddVideo stores the file and then its metadata. A video already stored
// under the same key is common.ErrAlreadyExists; a game that is not the
// caller's is common.ErrNotFound.
func (s *UploadService) AddVideo(ctx context.Context, in VideoUpload) (*models.Video, error) {
	key := VideoStorageKey(in.UserID, in.Title, in.FileName)
	videos := s.repomanager.Videos(s.repomanager.Conn())

	exists, err := videos.ExistsByPath(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.ErrAlreadyExists
	}

	v := &models.Video{Title: in.Title, Path: key, UserID: in.UserID}
	if in.GameID != 0 {
		if _, err := s.repomanager.Games(s.repomanager.Conn()).GetByID(ctx, in.UserID, in.GameID); err != nil {
			return nil, err
		}
		gameID := in.GameID
		v.GameID = &gameID
	}

	if err := s.storage.Put(ctx, key, in.Body, in.Size, in.ContentType); err != nil {
		return nil, fmt.Errorf("error storing video: %w", err)
	}

	created, err := videos.Create(ctx, v)
	if err != nil {
		// a concurrent upload owns the object now
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn(ctx, "orphaned video object", "key", key, "error", delErr)
		}
		return nil, err
	}

	s.logger.Info(ctx, "video uploaded", "user_id", in.UserID, "video_id", created.ID)
	return created, nil
}

func (s *UploadService) GetVideo(ctx context.Context, userID, id int64) (*models.Video, error) {
	return s.repomanager.Videos(s.repomanager.Conn()).GetByID(ctx, userID, id)
}

func (s *UploadService) ListVideos(ctx context.Context, userID int64) ([]*models.Video, error) {
	return s.repomanager.Videos(s.repomanager.Conn()).ListByUser(ctx, userID)
}

// VideoURL returns a download link for v, "" if the backend has none.
func (s *UploadService) VideoURL(ctx context.Context, v *models.Video) (string, error) {
	return s.storage.URL(ctx, v.Path)
}

func (s *UploadService) AddGame(ctx context.Context, userID int64, title string) (*models.Game, error) {
	return s.repomanager.Games(s.repomanager.Conn()).Create(ctx, &models.Game{Title: title, UserID: userID})
}

func (s *UploadService) GetGame(ctx context.Context, userID, id int64) (*models.Game, error) {
	return s.repomanager.Games(s.repomanager.Conn()).GetByID(ctx, userID, id)
}

// SearchGames lists the caller's games, or everybody's when all is set,
// optionally narrowed by a title substring.
func (s *UploadService) SearchGames(ctx context.Context, userID int64, title string, all bool) ([]*models.Game, error) {
	f := games.Filter{Title: title}
	if !all {
		f.UserID = &userID
	}
	return s.repomanager.Games(s.repomanager.Conn()).Search(ctx, f)
}

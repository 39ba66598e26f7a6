package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/dmitrijs2005/lingoplay/internal/dbx"
	"github.com/dmitrijs2005/lingoplay/internal/server/auth"
	"github.com/dmitrijs2005/lingoplay/internal/server/config"
	"github.com/dmitrijs2005/lingoplay/internal/server/models"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenManager issues, stores, rotates and validates token pairs. Access and
// refresh tokens are signed with different secrets.
type TokenManager struct {
	repomanager   repomanager.RepositoryManager
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenManager(m repomanager.RepositoryManager, cfg *config.Config) *TokenManager {
	return &TokenManager{
		repomanager:   m,
		accessSecret:  []byte(cfg.AccessSecretKey),
		refreshSecret: []byte(cfg.RefreshSecretKey),
		accessTTL:     cfg.AccessTokenValidityDuration,
		refreshTTL:    cfg.RefreshTokenValidityDuration,
		now:           time.Now,
	}
}

// IssueTokenPair signs a new pair for user. It does not touch storage.
func (m *TokenManager) IssueTokenPair(user *models.User) (*TokenPair, error) {
	return m.issueAt(user, m.now())
}

func (m *TokenManager) issueAt(user *models.User, now time.Time) (*TokenPair, error) {
	p := auth.Payload{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		IssuedAt: now,
	}

	p.ExpiresAt = now.Add(m.accessTTL)
	access, err := auth.Encode(p, m.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("error signing access token: %w", err)
	}

	p.ExpiresAt = now.Add(m.refreshTTL)
	refresh, err := auth.Encode(p, m.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("error signing refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(m.accessTTL),
		RefreshExpiresAt: now.Add(m.refreshTTL),
	}, nil
}

// PersistRefreshToken makes refresh the only stored refresh token of userID.
// Unlike Grant it does not order issue times against the stored token.
func (m *TokenManager) PersistRefreshToken(ctx context.Context, userID int64, refresh string) error {
	return m.persist(ctx, m.repomanager.Conn(), userID, refresh)
}

func (m *TokenManager) persist(ctx context.Context, db dbx.DBTX, userID int64, refresh string) error {
	if err := m.repomanager.RefreshTokens(db).Upsert(ctx, userID, refresh); err != nil {
		return fmt.Errorf("error storing refresh token: %w", err)
	}
	return nil
}

// Grant issues a pair for user and stores its refresh token in place of the
// previous one. The new pair is issued at least one second after the stored
// token, so a second login within the same second never re-signs a token
// that was already handed out.
func (m *TokenManager) Grant(ctx context.Context, user *models.User) (*TokenPair, error) {
	var pair *TokenPair
	err := m.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		now := m.now()

		stored, err := m.repomanager.RefreshTokens(tx).FindByUser(ctx, user.ID)
		switch {
		case err == nil:
			// An expired or foreign token is far enough in the past.
			if p, derr := auth.Decode(stored.Token, m.refreshSecret); derr == nil {
				if floor := p.IssuedAt.Add(time.Second); now.Before(floor) {
					now = floor
				}
			}
		case !errors.Is(err, common.ErrNotFound):
			return fmt.Errorf("error loading refresh token: %w", err)
		}

		pair, err = m.issueAt(user, now)
		if err != nil {
			return err
		}

		return m.persist(ctx, tx, user.ID, pair.RefreshToken)
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Rotate exchanges a stored refresh token for a new pair. The presented
// token is consumed in the same transaction that stores its successor, so
// of two concurrent calls with one token only one succeeds.
func (m *TokenManager) Rotate(ctx context.Context, refresh string) (*TokenPair, *models.User, error) {
	payload, err := auth.Decode(refresh, m.refreshSecret)
	if err != nil {
		return nil, nil, err
	}

	// The successor is issued at least one second after the presented token,
	// otherwise a rotation within the same second would sign identical bytes.
	now := m.now()
	if floor := payload.IssuedAt.Add(time.Second); now.Before(floor) {
		now = floor
	}

	var (
		pair *TokenPair
		user *models.User
	)
	err = m.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		ownerID, err := m.repomanager.RefreshTokens(tx).Consume(ctx, refresh)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrUnauthorized
			}
			return fmt.Errorf("error consuming refresh token: %w", err)
		}
		if ownerID != payload.UserID {
			return common.ErrUnauthorized
		}

		user, err = m.repomanager.Users(tx).GetByID(ctx, payload.UserID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrUnauthorized
			}
			return fmt.Errorf("error loading user: %w", err)
		}

		pair, err = m.issueAt(user, now)
		if err != nil {
			return err
		}

		return m.persist(ctx, tx, user.ID, pair.RefreshToken)
	})
	if err != nil {
		return nil, nil, err
	}

	return pair, user, nil
}

// Logout forgets refresh. Unknown or already revoked tokens are not an error.
func (m *TokenManager) Logout(ctx context.Context, refresh string) error {
	if refresh == "" {
		return nil
	}
	if err := m.repomanager.RefreshTokens(m.repomanager.Conn()).Delete(ctx, refresh); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// Authenticate resolves the user an access token was issued to. It never
// writes.
func (m *TokenManager) Authenticate(ctx context.Context, access string) (*models.User, error) {
	payload, err := auth.Decode(access, m.accessSecret)
	if err != nil {
		return nil, err
	}

	user, err := m.repomanager.Users(m.repomanager.Conn()).GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

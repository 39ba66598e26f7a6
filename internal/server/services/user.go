// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and issuing, refreshing and
// revoking token pairs.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/dmitrijs2005/lingoplay/internal/server/models"
)

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint a stored token pair
// - Refresh: rotate the refresh token
// - Logout: revoke the refresh token
type UserService struct {
	credentials *CredentialStore
	tokens      *TokenManager
}

func NewUserService(credentials *CredentialStore, tokens *TokenManager) *UserService {
	return &UserService{credentials: credentials, tokens: tokens}
}

func (s *UserService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	return s.credentials.Create(ctx, email, username, password)
}

// Login checks email and password and persists the refresh token of the new
// pair, replacing whatever the user had before. Unknown email and wrong
// password are both common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	user, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, nil, fmt.Errorf("error loading user: %w", err)
		}
		user = nil
	}

	if err := s.credentials.VerifyPassword(user, password); err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.Grant(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *UserService) Refresh(ctx context.Context, refresh string) (*TokenPair, *models.User, error) {
	return s.tokens.Rotate(ctx, refresh)
}

func (s *UserService) Logout(ctx context.Context, refresh string) error {
	return s.tokens.Logout(ctx, refresh)
}

// Current returns the user behind an access token.
func (s *UserService) Current(ctx context.Context, access string) (*models.User, error) {
	return s.tokens.Authenticate(ctx, access)
}

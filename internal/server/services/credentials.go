package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/dmitrijs2005/lingoplay/internal/server/auth"
	"github.com/dmitrijs2005/lingoplay/internal/server/config"
	"github.com/dmitrijs2005/lingoplay/internal/server/models"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/repomanager"
)

// CredentialStore persists user identities and checks passwords.
type CredentialStore struct {
	repomanager repomanager.RepositoryManager
	bcryptCost  int
	// compared against when the email is unknown so both paths cost a
	// bcrypt comparison
	dummyHash []byte
}

func NewCredentialStore(m repomanager.RepositoryManager, cfg *config.Config) (*CredentialStore, error) {
	dummy, err := auth.HashPassword("lingoplay-dummy-password", cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error preparing password hasher: %w", err)
	}
	return &CredentialStore{repomanager: m, bcryptCost: cfg.BcryptCost, dummyHash: dummy}, nil
}

func (s *CredentialStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repomanager.Users(s.repomanager.Conn()).GetByID(ctx, id)
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users(s.repomanager.Conn()).GetByEmail(ctx, email)
}

// Create hashes password and inserts the user. An email or username that is
// already taken yields common.ErrDuplicateIdentity.
func (s *CredentialStore) Create(ctx context.Context, email, username, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{Email: email, Username: username, PasswordHash: hash}
	u, err := s.repomanager.Users(s.repomanager.Conn()).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// VerifyPassword returns common.ErrInvalidCredentials on mismatch. A nil user
// is checked against a dummy hash and always fails.
func (s *CredentialStore) VerifyPassword(user *models.User, password string) error {
	if user == nil {
		_ = auth.ComparePassword(s.dummyHash, password)
		return common.ErrInvalidCredentials
	}
	return auth.ComparePassword(user.PasswordHash, password)
}

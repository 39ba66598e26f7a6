package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/lingoplay/internal/server/config"
	"github.com/dmitrijs2005/lingoplay/internal/server/models"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		AccessSecretKey:              "access-secret",
		RefreshSecretKey:             "refresh-secret",
		AccessTokenValidityDuration:  10 * time.Minute,
		RefreshTokenValidityDuration: 60 * time.Minute,
		BcryptCost:                   bcrypt.MinCost,
	}
}

// testClock advances by one second on every reading.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().Truncate(time.Second)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	rm     *repomanager.InMemoryRepositoryManager
	creds  *CredentialStore
	tokens *TokenManager
	users  *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	rm := repomanager.NewInMemoryRepositoryManager()

	creds, err := NewCredentialStore(rm, cfg)
	require.NoError(t, err)

	tokens := NewTokenManager(rm, cfg)
	tokens.now = newTestClock().Now

	return &fixture{rm: rm, creds: creds, tokens: tokens, users: NewUserService(creds, tokens)}
}

func (f *fixture) register(t *testing.T, email, username, password string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), email, username, password)
	require.NoError(t, err)
	return u
}

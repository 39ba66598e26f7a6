package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/dmitrijs2005/lingoplay/internal/dbx"
	"github.com/dmitrijs2005/lingoplay/internal/server/auth"
	"github.com/dmitrijs2005/lingoplay/internal/server/models"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueTokenPair(t *testing.T) {
	f := newFixture(t)
	u := &models.User{ID: 7, Email: "anna@example.com", Username: "anna"}

	pair, err := f.tokens.IssueTokenPair(u)
	require.NoError(t, err)
	assert.True(t, pair.AccessExpiresAt.Before(pair.RefreshExpiresAt))

	p, err := auth.Decode(pair.AccessToken, []byte("access-secret"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.UserID)
	assert.Equal(t, "anna", p.Username)
	assert.Equal(t, 10*time.Minute, p.ExpiresAt.Sub(p.IssuedAt))

	p, err = auth.Decode(pair.RefreshToken, []byte("refresh-secret"))
	require.NoError(t, err)
	assert.Equal(t, 60*time.Minute, p.ExpiresAt.Sub(p.IssuedAt))

	_, err = auth.Decode(pair.AccessToken, []byte("refresh-secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	_, err = auth.Decode(pair.RefreshToken, []byte("access-secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestLogin_SingleRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "anna@example.com", "anna", "pw")

	first, _, err := f.users.Login(ctx, "anna@example.com", "pw")
	require.NoError(t, err)
	second, _, err := f.users.Login(ctx, "anna@example.com", "pw")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	assert.Equal(t, 1, f.rm.RefreshTokenCount(u.ID))

	_, _, err = f.tokens.Rotate(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, _, err = f.tokens.Rotate(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestLogin_SameSecondIssuesDistinctTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "anna@example.com", "anna", "pw")

	frozen := time.Now().Truncate(time.Second)
	f.tokens.now = func() time.Time { return frozen }

	first, _, err := f.users.Login(ctx, "anna@example.com", "pw")
	require.NoError(t, err)
	second, _, err := f.users.Login(ctx, "anna@example.com", "pw")
	require.NoError(t, err)
	third, _, err := f.users.Login(ctx, "anna@example.com", "pw")
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEqual(t, second.RefreshToken, third.RefreshToken)
	assert.NotEqual(t, first.RefreshToken, third.RefreshToken)
	assert.Equal(t, 1, f.rm.RefreshTokenCount(u.ID))

	_, _, err = f.tokens.Rotate(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, _, err = f.tokens.Rotate(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	next, _, err := f.tokens.Rotate(ctx, third.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, third.RefreshToken, next.RefreshToken)
}

func TestGrant_IgnoresUndecodableStoredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "anna@example.com", "anna", "pw")

	require.NoError(t, f.tokens.PersistRefreshToken(ctx, u.ID, "not-a-jwt"))

	pair, err := f.tokens.Grant(ctx, u)
	require.NoError(t, err)

	stored, err := f.rm.RefreshTokens(nil).FindByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, stored.Token)
}

func TestRotate_InvalidatesPresentedToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "anna@example.com", "anna", "pw")

	pair, _, err := f.users.Login(ctx, "anna@example.com", "pw")
	require.NoError(t, err)

	next, user, err := f.tokens.Rotate(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "anna", user.Username)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, _, err = f.tokens.Rotate(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	// the old access token stays valid until it expires
	_, err = f.tokens.Authenticate(ctx, pair.AccessToken)
	assert.NoError(t, err)

	_, _, err = f.tokens.Rotate(ctx, next.RefreshToken)
	assert.NoError(t, err)
}

func TestRotate_SameSecondStillChangesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "anna@example.com", "anna", "pw")

	frozen := time.Now()
	f.tokens.now = func() time.Time { return frozen }

	pair, _, err := f.users.Login(ctx, "anna@example.com", "pw")
	require.NoError(t, err)

	next, _, err := f.tokens.Rotate(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, _, err = f.tokens.Rotate(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestRotate_ConcurrentSameToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "anna@example.com", "anna", "pw")

	pair, _, err := f.users.Login(ctx, "anna@example.com", "pw")
	require.NoError(t, err)

	const callers = 20
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		successes    int
		unauthorized int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _, err := f.tokens.Rotate(ctx, pair.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, common.ErrUnauthorized):
				unauthorized++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, unauthorized)
}

func TestRotate_DecodeFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "anna@example.com", "anna", "pw")

	pair, _, err := f.users.Login(ctx, "anna@example.com", "pw")
	require.NoError(t, err)

	_, _, err = f.tokens.Rotate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, _, err = f.tokens.Rotate(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	expired, err := auth.Encode(auth.Payload{
		UserID:    u.ID,
		IssuedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}, []byte("refresh-secret"))
	require.NoError(t, err)
	_, _, err = f.tokens.Rotate(ctx, expired)
	assert.ErrorIs(t, err, common.ErrTokenExpired)

	// failed decodes leave the stored token alone
	_, _, err = f.tokens.Rotate(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestRotate_DeletedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "anna@example.com", "anna", "pw")

	pair, _, err := f.users.Login(ctx, "anna@example.com", "pw")
	require.NoError(t, err)

	f.rm.DeleteUser(u.ID)

	_, _, err = f.tokens.Rotate(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = f.tokens.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

type failingUsers struct{ users.Repository }

func (failingUsers) GetByID(context.Context, int64) (*models.User, error) {
	return nil, errors.New("db down")
}

type failingUsersManager struct {
	*repomanager.InMemoryRepositoryManager
}

func (m failingUsersManager) Users(db dbx.DBTX) users.Repository {
	return failingUsers{m.InMemoryRepositoryManager.Users(db)}
}

func TestRotate_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "anna@example.com", "anna", "pw")

	pair, _, err := f.users.Login(ctx, "anna@example.com", "pw")
	require.NoError(t, err)

	broken := NewTokenManager(failingUsersManager{f.rm}, testConfig())
	_, _, err = broken.Rotate(ctx, pair.RefreshToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrUnauthorized)
	assert.Equal(t, common.ReasonInternal, common.Reason(err))

	// the consume was rolled back together with the failed lookup
	_, err = f.rm.RefreshTokens(nil).Find(ctx, pair.RefreshToken)
	require.NoError(t, err)

	_, _, err = f.tokens.Rotate(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "anna@example.com", "anna", "pw")

	pair, _, err := f.users.Login(ctx, "anna@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, f.users.Logout(ctx, pair.RefreshToken))
	require.NoError(t, f.users.Logout(ctx, pair.RefreshToken))
	require.NoError(t, f.users.Logout(ctx, ""))
	require.NoError(t, f.users.Logout(ctx, "never-issued"))
	assert.Equal(t, 0, f.rm.RefreshTokenCount(u.ID))

	_, _, err = f.tokens.Rotate(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "anna@example.com", "anna", "pw")

	pair, err := f.tokens.IssueTokenPair(u)
	require.NoError(t, err)

	got, err := f.tokens.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.tokens.Authenticate(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	expired, err := auth.Encode(auth.Payload{UserID: u.ID, ExpiresAt: time.Now().Add(-time.Second)}, []byte("access-secret"))
	require.NoError(t, err)
	_, err = f.tokens.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

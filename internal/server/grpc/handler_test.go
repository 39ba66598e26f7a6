package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/dmitrijs2005/lingoplay/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (e *testEnv) login(t *testing.T) (*services.TokenPair, int64) {
	t.Helper()
	ctx := context.Background()

	u, err := e.users.Register(ctx, "a@x.com", "alice", "pw")
	require.NoError(t, err)
	pair, _, err := e.users.Login(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	return pair, u.ID
}

func (e *testEnv) refresh(ctx context.Context, token string) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := e.conn.Invoke(ctx, refreshMethod, wrapperspb.String(token), out)
	return out, err
}

func (e *testEnv) current(ctx context.Context, access string) (*structpb.Struct, error) {
	if access != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, authorizationHeader, "Bearer "+access)
	}
	out := new(structpb.Struct)
	err := e.conn.Invoke(ctx, currentMethod, &emptypb.Empty{}, out)
	return out, err
}

func (e *testEnv) logout(ctx context.Context, token string) error {
	return e.conn.Invoke(ctx, logoutMethod, wrapperspb.String(token), new(emptypb.Empty))
}

func requireStatus(t *testing.T, err error, code codes.Code, reason string) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, code, st.Code())
	assert.Equal(t, reason, st.Message())
}

func TestRefresh_RotatesAndRejectsOldToken(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	pair, userID := e.login(t)

	out, err := e.refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	fields := out.AsMap()
	assert.NotEmpty(t, fields["token"])
	assert.NotEqual(t, pair.AccessToken, fields["token"])
	assert.NotEqual(t, pair.RefreshToken, fields["refresh_token"])
	user := fields["user"].(map[string]any)
	assert.Equal(t, float64(userID), user["id"])
	assert.Equal(t, "a@x.com", user["email"])

	_, err = e.refresh(ctx, pair.RefreshToken)
	requireStatus(t, err, codes.Unauthenticated, common.ReasonUnauthorized)

	_, err = e.refresh(ctx, fields["refresh_token"].(string))
	require.NoError(t, err)
}

func TestRefresh_Failures(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.refresh(ctx, "")
	requireStatus(t, err, codes.Unauthenticated, common.ReasonMissingCredential)

	_, err = e.refresh(ctx, "garbage")
	requireStatus(t, err, codes.Unauthenticated, common.ReasonInvalidToken)
}

func TestLogout_IsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	pair, userID := e.login(t)

	require.NoError(t, e.logout(ctx, pair.RefreshToken))
	assert.Equal(t, 0, e.rm.RefreshTokenCount(userID))

	_, err := e.refresh(ctx, pair.RefreshToken)
	requireStatus(t, err, codes.Unauthenticated, common.ReasonUnauthorized)

	require.NoError(t, e.logout(ctx, pair.RefreshToken))
	require.NoError(t, e.logout(ctx, ""))
}

func TestCurrent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	pair, userID := e.login(t)

	out, err := e.current(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":       float64(userID),
		"email":    "a@x.com",
		"username": "alice",
	}, out.AsMap())

	_, err = e.current(ctx, "")
	requireStatus(t, err, codes.Unauthenticated, common.ReasonMissingCredential)

	_, err = e.current(ctx, pair.RefreshToken)
	requireStatus(t, err, codes.Unauthenticated, common.ReasonInvalidToken)

	e.rm.DeleteUser(userID)
	_, err = e.current(ctx, pair.AccessToken)
	requireStatus(t, err, codes.Unauthenticated, common.ReasonUnauthorized)
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{common.ErrInvalidCredentials, codes.Unauthenticated},
		{common.ErrTokenExpired, codes.Unauthenticated},
		{common.ErrNotFound, codes.NotFound},
		{common.ErrValidation, codes.InvalidArgument},
		{common.ErrDuplicateIdentity, codes.AlreadyExists},
		{assert.AnError, codes.Internal},
	}

	for _, tt := range tests {
		st, _ := status.FromError(toStatus(tt.err))
		assert.Equal(t, tt.code, st.Code(), tt.err.Error())
		assert.Equal(t, common.Reason(tt.err), st.Message())
	}
}

package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/dmitrijs2005/lingoplay/internal/server/models"
	"github.com/dmitrijs2005/lingoplay/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const SessionServiceName = "lingoplay.session.v1.SessionService"

const (
	refreshMethod = "/" + SessionServiceName + "/Refresh"
	logoutMethod  = "/" + SessionServiceName + "/Logout"
	currentMethod = "/" + SessionServiceName + "/Current"
)

// SessionServer is the session service. Requests and responses are
// protobuf well-known types, so no generated code is needed.
type SessionServer interface {
	Refresh(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Logout(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	Current(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Refresh", Handler: refreshHandler},
		{MethodName: "Logout", Handler: logoutHandler},
		{MethodName: "Current", Handler: currentHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lingoplay/session/v1/session.proto",
}

func refreshHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).Refresh(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: refreshMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).Refresh(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func logoutHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).Logout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: logoutMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).Logout(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func currentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).Current(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: currentMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).Current(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Refresh rotates the refresh token. Without cookies the new refresh token
// travels in the response.
func (s *GRPCServer) Refresh(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, toStatus(common.ErrMissingCredential)
	}

	pair, user, err := s.users.Refresh(ctx, req.GetValue())
	if err != nil {
		if !common.IsAuthFailure(err) {
			s.logger.Error(ctx, "refresh failed", "error", err)
		}
		return nil, toStatus(err)
	}

	return tokensStruct(pair, user)
}

func (s *GRPCServer) Logout(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.users.Logout(ctx, req.GetValue()); err != nil {
		s.logger.Error(ctx, "logout failed", "error", err)
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Current(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	user, ok := ctx.Value(userKey).(*models.User)
	if !ok || user == nil {
		return nil, toStatus(common.ErrUnauthorized)
	}
	return structpb.NewStruct(userMap(user))
}

func userMap(u *models.User) map[string]any {
	return map[string]any{
		"id":       u.ID,
		"email":    u.Email,
		"username": u.Username,
	}
}

func tokensStruct(pair *services.TokenPair, user *models.User) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"token":         pair.AccessToken,
		"expires_at":    pair.AccessExpiresAt.UTC().Format(time.RFC3339),
		"refresh_token": pair.RefreshToken,
		"user":          userMap(user),
	})
}

// toStatus maps an error to a gRPC status whose message is the stable
// reason string.
func toStatus(err error) error {
	code := codes.Internal
	switch {
	case common.IsAuthFailure(err):
		code = codes.Unauthenticated
	case errors.Is(err, common.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, common.ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, common.ErrDuplicateIdentity), errors.Is(err, common.ErrAlreadyExists):
		code = codes.AlreadyExists
	}
	return status.Error(code, common.Reason(err))
}

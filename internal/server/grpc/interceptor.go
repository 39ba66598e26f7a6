package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type ctxKey string

const userKey ctxKey = "user"

const authorizationHeader = "authorization"

// accessTokenInterceptor guards Current the way the HTTP gate guards
// /users/current.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if info.FullMethod == currentMethod {

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(authorizationHeader)
			if len(values) > 0 {
				header = values[0]
			}
		}

		scheme, token, found := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return nil, toStatus(common.ErrMissingCredential)
		}

		user, err := s.users.Current(ctx, token)
		if err != nil {
			if !common.IsAuthFailure(err) {
				s.logger.Error(ctx, "authentication failed", "error", err)
			}
			return nil, toStatus(err)
		}

		ctx = context.WithValue(ctx, userKey, user)

	}

	return handler(ctx, req)
}

package auth

import (
	"chat-app/errors"
	"context"
	stderrors "errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	TokenKey  contextKey = "token"
)

// Verifier validates a bearer token, including revocation.
type Verifier interface {
	Verify(token string) (*CustomClaims, error)
}

// UnaryInterceptor handles JWT validation for incoming unary calls.
// Methods listed in public skip authentication.
func UnaryInterceptor(verifier Verifier, public ...string) grpc.UnaryServerInterceptor {
	publicMethods := toSet(public)
	return func(ctx context.Context, req any,
		info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := publicMethods[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		newCtx, err := authenticate(ctx, verifier)
		if err != nil {
			return nil, err
		}
		return handler(newCtx, req)
	}
}

// StreamInterceptor is the streaming counterpart of UnaryInterceptor.
func StreamInterceptor(verifier Verifier, public ...string) grpc.StreamServerInterceptor {
	publicMethods := toSet(public)
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if _, ok := publicMethods[info.FullMethod]; ok {
			return handler(srv, ss)
		}
		newCtx, err := authenticate(ss.Context(), verifier)
		if err != nil {
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: newCtx})
	}
}

// TokenFromContext returns the bearer token injected by the interceptors.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}

func authenticate(ctx context.Context, verifier Verifier) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is missing")
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
	}

	// Expecting the standard "Bearer <token>" format
	tokenStr := strings.TrimPrefix(values[0], "Bearer ")

	claims, err := verifier.Verify(tokenStr)
	if stderrors.Is(err, errors.ErrTokenRevoked) {
		return nil, status.Error(codes.Unauthenticated, errors.ErrTokenRevoked.Error())
	}
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}

	newCtx := context.WithValue(ctx, UserIDKey, claims.UserID)
	newCtx = context.WithValue(newCtx, TokenKey, tokenStr)
	return newCtx, nil
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}

func toSet(methods []string) map[string]struct{} {
	set := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		set[m] = struct{}{}
	}
	return set
}

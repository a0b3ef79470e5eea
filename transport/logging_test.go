package transport

import (
	"bytes"
	"chat-app/domain"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestLoggingInterceptor_Redacts_Secrets(t *testing.T) {
	req := require.New(t)

	// Given a payload-logging interceptor writing to a buffer
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	interceptor := LoggingInterceptor(log, true)

	request, err := credentialsToStruct("alice@chatapp.local", "secret1")
	req.NoError(err)
	session, err := sessionToStruct(domain.Session{
		UserID:    "u-1",
		Email:     "alice@chatapp.local",
		Token:     "jwt-token-value",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	req.NoError(err)
	invoker := func(_ context.Context, _ string, _, reply any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		proto.Merge(reply.(*structpb.Struct), session)
		return nil
	}

	// When a sign-in goes through it
	reply := &structpb.Struct{}
	req.NoError(interceptor(context.Background(), signInMethod, request, reply, nil, invoker))

	// Then the payloads are logged without the password or the token
	out := buf.String()
	req.Contains(out, "alice@chatapp.local")
	req.Contains(out, redacted)
	req.NotContains(out, "secret1")
	req.NotContains(out, "jwt-token-value")

	// And the caller still gets the real values
	req.Equal("jwt-token-value", field(reply, "token"))
	req.Equal("secret1", field(request, "password"))
}

func TestLoggingInterceptor_Without_Payloads(t *testing.T) {
	req := require.New(t)

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	request, err := credentialsToStruct("alice@chatapp.local", "secret1")
	req.NoError(err)
	invoker := func(context.Context, string, any, any, *grpc.ClientConn, ...grpc.CallOption) error { return nil }

	req.NoError(LoggingInterceptor(log, false)(context.Background(), registerMethod, request, &structpb.Struct{}, nil, invoker))

	req.Contains(buf.String(), registerMethod)
	req.NotContains(buf.String(), "alice@chatapp.local")
}

package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const redacted = "[redacted]"

// sensitiveFields never reach the log, whatever the method.
var sensitiveFields = []string{"password", "token", "data"}

// LoggingInterceptor logs every unary call with its status and latency.
// With payloads set, requests and responses are logged as JSON at debug level
// with passwords, tokens and upload bytes redacted.
func LoggingInterceptor(log *slog.Logger, payloads bool) grpc.UnaryClientInterceptor {
	marshaler := protojson.MarshalOptions{UseProtoNames: true, EmitUnpopulated: true}
	return func(ctx context.Context, method string, req, reply any,
		cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		log.Debug("gRPC call", "method", method, "code", status.Code(err).String(), "elapsed", time.Since(start))

		if payloads {
			attrs := []any{"method", method, "request", format(marshaler, req)}
			if err == nil {
				attrs = append(attrs, "response", format(marshaler, reply))
			}
			log.Debug("gRPC payload", attrs...)
		}
		return err
	}
}

func format(marshaler protojson.MarshalOptions, v any) string {
	m, ok := v.(proto.Message)
	if !ok {
		return ""
	}
	return marshaler.Format(redact(m))
}

// redact returns a copy of m with the sensitive fields of a Struct payload blanked.
func redact(m proto.Message) proto.Message {
	s, ok := m.(*structpb.Struct)
	if !ok {
		return m
	}
	clone := proto.Clone(s).(*structpb.Struct)
	for key := range clone.GetFields() {
		if lo.Contains(sensitiveFields, key) {
			clone.Fields[key] = structpb.NewStringValue(redacted)
		}
	}
	return clone
}

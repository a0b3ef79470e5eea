// Package transport exposes the backend over gRPC. Payloads are
// structpb.Struct values so no generated stubs are needed.
package transport

import (
	"chat-app/auth"
	"chat-app/contract"
	"chat-app/domain"
	"chat-app/errors"
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "chatapp.v1.Backend"

const (
	registerMethod   = "/" + serviceName + "/Register"
	signInMethod     = "/" + serviceName + "/SignIn"
	signOutMethod    = "/" + serviceName + "/SignOut"
	appendMethod     = "/" + serviceName + "/Append"
	uploadMethod     = "/" + serviceName + "/Upload"
	resolveURLMethod = "/" + serviceName + "/ResolveURL"
	watchMethod      = "/" + serviceName + "/Watch"
)

// Server serves a contract.IBackend to remote clients.
// Every method but Register and SignIn requires a bearer token.
type Server struct {
	contract.IBackend
	log  *slog.Logger
	grpc *grpc.Server
}

func NewServer(log *slog.Logger, backend contract.IBackend, verifier auth.Verifier, opts ...grpc.ServerOption) *Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(auth.UnaryInterceptor(verifier, registerMethod, signInMethod)),
		grpc.ChainStreamInterceptor(auth.StreamInterceptor(verifier)),
	)
	s := &Server{IBackend: backend, log: log, grpc: grpc.NewServer(opts...)}
	s.grpc.RegisterService(&serviceDesc, s)
	return s
}

// Serve blocks until the listener fails or the server stops.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("gRPC backend listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// Stop closes every connection and cancels open streams.
func (s *Server) Stop() {
	s.grpc.Stop()
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*contract.IBackend)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(registerMethod, (*Server).register)},
		{MethodName: "SignIn", Handler: unary(signInMethod, (*Server).signIn)},
		{MethodName: "SignOut", Handler: unary(signOutMethod, (*Server).signOut)},
		{MethodName: "Append", Handler: unary(appendMethod, (*Server).appendMessage)},
		{MethodName: "Upload", Handler: unary(uploadMethod, (*Server).upload)},
		{MethodName: "ResolveURL", Handler: unary(resolveURLMethod, (*Server).resolveURL)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "chatapp/v1/backend",
}

type unaryCall func(s *Server, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, req any) (any, error) {
			out, err := call(srv.(*Server), ctx, req.(*structpb.Struct))
			if err != nil {
				return nil, errors.MapToGRPCError(err)
			}
			return out, nil
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, handler)
	}
}

func (s *Server) register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	session, err := s.Register(ctx, field(in, "email"), field(in, "password"))
	if err != nil {
		return nil, err
	}
	return sessionToStruct(session)
}

func (s *Server) signIn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	session, err := s.SignIn(ctx, field(in, "email"), field(in, "password"))
	if err != nil {
		return nil, err
	}
	return sessionToStruct(session)
}

func (s *Server) signOut(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.SignOut(ctx, auth.TokenFromContext(ctx)); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

func (s *Server) appendMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	collection, draft := draftFromStruct(in)
	message, err := s.Append(ctx, auth.TokenFromContext(ctx), collection, draft)
	if err != nil {
		return nil, err
	}
	return messageToStruct(message)
}

func (s *Server) upload(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	path, data, err := uploadFromStruct(in)
	if err != nil {
		return nil, err
	}
	handle, err := s.Upload(ctx, auth.TokenFromContext(ctx), path, data)
	if err != nil {
		return nil, err
	}
	return handleToStruct(handle)
}

func (s *Server) resolveURL(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	link, err := s.ResolveURL(ctx, auth.TokenFromContext(ctx), handleFromStruct(in))
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{"url": link})
}

// watchHandler pushes one full snapshot per change until the client leaves.
func watchHandler(srv any, stream grpc.ServerStream) error {
	s := srv.(*Server)
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	collection := field(in, "collection")
	if collection == "" {
		collection = domain.MessagesCollection
	}

	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	var sendErr error
	err := s.Watch(ctx, auth.TokenFromContext(ctx), collection, func(messages []domain.Message) {
		if sendErr != nil {
			return
		}
		out, err := snapshotToStruct(messages)
		if err == nil {
			err = stream.SendMsg(out)
		}
		if err != nil {
			s.log.Error("Failed to push snapshot to stream", "collection", collection, "error", err)
			sendErr = err
			cancel()
		}
	})
	if sendErr != nil {
		return sendErr
	}
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	s.log.Debug("Client detached from watch", "collection", collection)
	return nil
}

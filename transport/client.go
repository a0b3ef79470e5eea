package transport

import (
	"chat-app/domain"
	"chat-app/errors"
	"context"
	stderrors "errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client reaches a remote backend and satisfies contract.IBackend.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func withToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, errors.FromGRPCError(err)
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, email, password string) (domain.Session, error) {
	return c.authenticate(ctx, registerMethod, email, password)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	return c.authenticate(ctx, signInMethod, email, password)
}

func (c *Client) authenticate(ctx context.Context, method, email, password string) (domain.Session, error) {
	in, err := credentialsToStruct(email, password)
	if err != nil {
		return domain.Session{}, err
	}
	out, err := c.invoke(ctx, method, in)
	if err != nil {
		return domain.Session{}, err
	}
	return sessionFromStruct(out)
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	_, err := c.invoke(withToken(ctx, token), signOutMethod, &structpb.Struct{})
	return err
}

func (c *Client) Append(ctx context.Context, token, collection string, draft domain.MessageDraft) (domain.Message, error) {
	in, err := draftToStruct(collection, draft)
	if err != nil {
		return domain.Message{}, err
	}
	out, err := c.invoke(withToken(ctx, token), appendMethod, in)
	if err != nil {
		return domain.Message{}, err
	}
	return messageFromStruct(out)
}

func (c *Client) Upload(ctx context.Context, token, path string, data []byte) (domain.ObjectHandle, error) {
	in, err := uploadToStruct(path, data)
	if err != nil {
		return domain.ObjectHandle{}, err
	}
	out, err := c.invoke(withToken(ctx, token), uploadMethod, in)
	if err != nil {
		return domain.ObjectHandle{}, err
	}
	return handleFromStruct(out), nil
}

func (c *Client) ResolveURL(ctx context.Context, token string, handle domain.ObjectHandle) (string, error) {
	in, err := handleToStruct(handle)
	if err != nil {
		return "", err
	}
	out, err := c.invoke(withToken(ctx, token), resolveURLMethod, in)
	if err != nil {
		return "", err
	}
	return field(out, "url"), nil
}

// Watch blocks until ctx is done or the stream fails.
func (c *Client) Watch(ctx context.Context, token, collection string, fn func([]domain.Message)) error {
	stream, err := c.conn.NewStream(withToken(ctx, token), &serviceDesc.Streams[0], watchMethod)
	if err != nil {
		return errors.FromGRPCError(err)
	}
	in, err := structpb.NewStruct(map[string]any{"collection": collection})
	if err != nil {
		return err
	}
	if err = stream.SendMsg(in); err != nil {
		return errors.FromGRPCError(err)
	}
	if err = stream.CloseSend(); err != nil {
		return errors.FromGRPCError(err)
	}

	for {
		out := new(structpb.Struct)
		err := stream.RecvMsg(out)
		if stderrors.Is(err, io.EOF) || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return errors.FromGRPCError(err)
		}
		messages, err := snapshotFromStruct(out)
		if err != nil {
			return err
		}
		fn(messages)
	}
}

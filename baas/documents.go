package baas

import (
	"chat-app/contract"
	"chat-app/domain"
	"chat-app/errors"
	"context"
	"log/slog"
)

// Documents is the live document stream. It implements contract.IDocumentStream.
type Documents struct {
	log     *slog.Logger
	backend contract.IBackend
	tokens  contract.ITokenSource
}

func NewDocuments(log *slog.Logger, backend contract.IBackend, tokens contract.ITokenSource) *Documents {
	return &Documents{log: log, backend: backend, tokens: tokens}
}

// Subscribe delivers snapshots from a single goroutine, so calls never overlap.
// onError is called when the stream ends for any reason other than unsubscribe.
func (d *Documents) Subscribe(ctx context.Context, collection string,
	onSnapshot func([]domain.Message), onError func(error)) (func(), error) {
	token, err := d.tokens.Token()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		err := d.backend.Watch(ctx, token, collection, onSnapshot)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.ErrSubscriptionClosed
		}
		d.log.Warn("Subscription ended", "collection", collection, "error", err)
		if onError != nil {
			onError(err)
		}
	}()
	return cancel, nil
}

// Append publishes one record and returns its id.
func (d *Documents) Append(ctx context.Context, collection string, draft domain.MessageDraft) (string, error) {
	token, err := d.tokens.Token()
	if err != nil {
		return "", err
	}
	message, err := d.backend.Append(ctx, token, collection, draft)
	if err != nil {
		return "", err
	}
	return message.ID, nil
}

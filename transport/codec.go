package transport

import (
	"chat-app/domain"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/structpb"
)

func field(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func timeField(s *structpb.Struct, key string) (time.Time, error) {
	raw := field(s, key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s: %w", key, err)
	}
	return t, nil
}

func credentialsToStruct(email, password string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"email": email, "password": password})
}

func sessionToStruct(session domain.Session) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"userId":    session.UserID,
		"email":     session.Email,
		"token":     session.Token,
		"expiresAt": session.ExpiresAt.Format(time.RFC3339Nano),
	})
}

func sessionFromStruct(s *structpb.Struct) (domain.Session, error) {
	expiresAt, err := timeField(s, "expiresAt")
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		UserID:    field(s, "userId"),
		Email:     field(s, "email"),
		Token:     field(s, "token"),
		ExpiresAt: expiresAt,
	}, nil
}

func draftToStruct(collection string, draft domain.MessageDraft) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"collection": collection,
		"text":       draft.Text,
		"user":       draft.User,
		"imageUrl":   draft.ImageURL,
	})
}

func draftFromStruct(s *structpb.Struct) (string, domain.MessageDraft) {
	return field(s, "collection"), domain.MessageDraft{
		Text:     field(s, "text"),
		User:     field(s, "user"),
		ImageURL: field(s, "imageUrl"),
	}
}

func messageToMap(message domain.Message) map[string]any {
	return map[string]any{
		"id":        message.ID,
		"text":      message.Text,
		"user":      message.User,
		"createdAt": message.CreatedAt.Format(time.RFC3339Nano),
		"imageUrl":  message.ImageURL,
	}
}

func messageToStruct(message domain.Message) (*structpb.Struct, error) {
	return structpb.NewStruct(messageToMap(message))
}

func messageFromStruct(s *structpb.Struct) (domain.Message, error) {
	createdAt, err := timeField(s, "createdAt")
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        field(s, "id"),
		Text:      field(s, "text"),
		User:      field(s, "user"),
		CreatedAt: createdAt,
		ImageURL:  field(s, "imageUrl"),
	}, nil
}

func snapshotToStruct(messages []domain.Message) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"messages": lo.Map(messages, func(m domain.Message, _ int) any { return messageToMap(m) }),
	})
}

func snapshotFromStruct(s *structpb.Struct) ([]domain.Message, error) {
	values := s.GetFields()["messages"].GetListValue().GetValues()
	messages := make([]domain.Message, 0, len(values))
	for _, v := range values {
		message, err := messageFromStruct(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func uploadToStruct(path string, data []byte) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"path": path,
		"data": base64.StdEncoding.EncodeToString(data),
	})
}

func uploadFromStruct(s *structpb.Struct) (string, []byte, error) {
	data, err := base64.StdEncoding.DecodeString(field(s, "data"))
	if err != nil {
		return "", nil, fmt.Errorf("upload payload: %w", err)
	}
	return field(s, "path"), data, nil
}

func handleToStruct(handle domain.ObjectHandle) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"path": handle.Path})
}

func handleFromStruct(s *structpb.Struct) domain.ObjectHandle {
	return domain.ObjectHandle{Path: field(s, "path")}
}

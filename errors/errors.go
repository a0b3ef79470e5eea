package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrCacheMiss          = fmt.Errorf("cache entry not found")
	ErrSealedPayload      = fmt.Errorf("sealed payload cannot be opened")
	ErrMissingCredentials = fmt.Errorf("username and password are required")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrTokenRevoked       = fmt.Errorf("token has been revoked")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrEmptyMessage       = fmt.Errorf("message needs a text or an image")
	ErrNotAnImage         = fmt.Errorf("file is not an image")
	ErrImageTooLarge      = fmt.Errorf("image exceeds the size limit")
	ErrObjectNotFound     = fmt.Errorf("object not found")
	ErrObjectExists       = fmt.Errorf("object already exists")
	ErrSubscriptionClosed = fmt.Errorf("subscription closed by the backend")
)

// Auth error codes, in the format the hosted auth service reports them.
const (
	CodeInvalidEmail      = "auth/invalid-email"
	CodeWeakPassword      = "auth/weak-password"
	CodeEmailAlreadyInUse = "auth/email-already-in-use"
	CodeInvalidCredential = "auth/invalid-credential"
)

// AuthError is returned by the auth service. Its Error() text is displayed
// to the user as-is.
type AuthError struct {
	Code    string
	Message string
}

func NewAuthError(code, message string) *AuthError {
	return &AuthError{Code: code, Message: message}
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Is lets callers match an AuthError against the generic sentinels.
func (e *AuthError) Is(target error) bool {
	switch e.Code {
	case CodeInvalidCredential:
		return target == ErrInvalidCredentials
	case CodeEmailAlreadyInUse:
		return target == ErrUserAlreadyExists
	}
	return false
}

// ParseAuthError rebuilds an AuthError from its Error() text.
func ParseAuthError(text string) (*AuthError, bool) {
	if !strings.HasSuffix(text, ")") {
		return nil, false
	}
	idx := strings.LastIndex(text, " (auth/")
	if idx < 0 {
		return nil, false
	}
	return &AuthError{
		Code:    text[idx+2 : len(text)-1],
		Message: text[:idx],
	}, true
}

// MapToGRPCError converts a domain error into a gRPC status error.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return err
	}

	var authErr *AuthError
	if stderrors.As(err, &authErr) {
		switch authErr.Code {
		case CodeInvalidCredential:
			return status.Error(codes.Unauthenticated, authErr.Error())
		case CodeEmailAlreadyInUse:
			return status.Error(codes.AlreadyExists, authErr.Error())
		default:
			return status.Error(codes.InvalidArgument, authErr.Error())
		}
	}

	switch {
	case stderrors.Is(err, ErrNotAuthenticated):
		return status.Error(codes.Unauthenticated, ErrNotAuthenticated.Error())
	case stderrors.Is(err, ErrTokenRevoked):
		return status.Error(codes.Unauthenticated, ErrTokenRevoked.Error())
	case stderrors.Is(err, ErrEmptyMessage):
		return status.Error(codes.InvalidArgument, ErrEmptyMessage.Error())
	case stderrors.Is(err, ErrNotAnImage):
		return status.Error(codes.InvalidArgument, ErrNotAnImage.Error())
	case stderrors.Is(err, ErrObjectNotFound):
		return status.Error(codes.NotFound, ErrObjectNotFound.Error())
	case stderrors.Is(err, ErrObjectExists):
		return status.Error(codes.AlreadyExists, ErrObjectExists.Error())
	case stderrors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case stderrors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// FromGRPCError is the client-side inverse of MapToGRPCError.
func FromGRPCError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if authErr, ok := ParseAuthError(st.Message()); ok {
		return authErr
	}
	switch st.Code() {
	case codes.Unauthenticated:
		if st.Message() == ErrTokenRevoked.Error() {
			return ErrTokenRevoked
		}
		return ErrNotAuthenticated
	case codes.InvalidArgument:
		switch st.Message() {
		case ErrEmptyMessage.Error():
			return ErrEmptyMessage
		case ErrNotAnImage.Error():
			return ErrNotAnImage
		}
	case codes.NotFound:
		return ErrObjectNotFound
	case codes.AlreadyExists:
		if st.Message() == ErrObjectExists.Error() {
			return ErrObjectExists
		}
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}
	return err
}

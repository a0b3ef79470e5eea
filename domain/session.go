package domain

import (
	"strings"
	"time"
)

// EmailDomain is the fixed domain of synthetic addresses.
const EmailDomain = "chatapp.local"

// AuthMode selects which auth operation a login submits.
type AuthMode int

const (
	SignIn AuthMode = iota
	Register
)

func (m AuthMode) String() string {
	if m == Register {
		return "register"
	}
	return "sign-in"
}

// Session is the identity issued by the auth service.
type Session struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Username derives the display name from the synthetic address.
func (s Session) Username() string {
	return UsernameFromEmail(s.Email)
}

// StoredCredentials is the locally persisted login used for auto-login.
type StoredCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StoredProfile is the locally persisted identity shown by the screens.
type StoredProfile struct {
	Username string `json:"username"`
}

// SyntheticEmail maps a username onto the address format the auth service expects.
// It is not a real mailbox.
func SyntheticEmail(username string) string {
	return strings.ToLower(strings.TrimSpace(username)) + "@" + EmailDomain
}

// UsernameFromEmail returns the local part of an address.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

package auth

import (
	"chat-app/errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fastParams keeps the suite quick; production uses DefaultHashParams.
var fastParams = HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "secret1"

	hash, err := HashPassword(password, fastParams)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("secret2", hash)
	req.NoError(err)
	req.False(match)
}

func TestComparePassword_Rejects_Malformed_Hash(t *testing.T) {
	req := require.New(t)
	_, err := ComparePassword("pw", "$bcrypt$whatever")
	req.Error(err)
	_, err = ComparePassword("pw", "$argon2id$v=19$m=x$salt$hash")
	req.Error(err)
}

func TestCredentialsValidation(t *testing.T) {
	tests := []struct {
		name     string
		req      CredentialsRequest
		wantCode string
	}{
		{"Valid request", CredentialsRequest{"alice@chatapp.local", "secret1"}, ""},
		{"Invalid email", CredentialsRequest{"bob smith@chatapp.local", "secret1"}, errors.CodeInvalidEmail},
		{"Empty email", CredentialsRequest{"", "secret1"}, errors.CodeInvalidEmail},
		{"Password too short", CredentialsRequest{"alice@chatapp.local", "12345"}, errors.CodeWeakPassword},
		{"Password too long", CredentialsRequest{"alice@chatapp.local", strings.Repeat("a", 129)}, errors.CodeWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := ValidateCredentials(tt.req)
			if tt.wantCode == "" {
				req.NoError(err)
				return
			}
			var authErr *errors.AuthError
			req.ErrorAs(err, &authErr)
			req.Equal(tt.wantCode, authErr.Code)
		})
	}
}

func TestTokenIssuer_Generate_And_Validate(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, claims, err := issuer.GenerateToken("user-1", "alice@chatapp.local")
	req.NoError(err)
	req.NotEmpty(claims.ID)

	parsed, err := issuer.ValidateToken(token)
	req.NoError(err)
	req.Equal("user-1", parsed.UserID)
	req.Equal("alice@chatapp.local", parsed.Email)
	req.Equal(claims.ID, parsed.ID)
}

func TestTokenIssuer_Rejects_Foreign_And_Expired_Tokens(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("another-secret", time.Hour)

	token, _, err := other.GenerateToken("user-1", "alice@chatapp.local")
	req.NoError(err)
	_, err = issuer.ValidateToken(token)
	req.Error(err)

	expired := NewTokenIssuer("test-secret", -time.Minute)
	token, _, err = expired.GenerateToken("user-1", "alice@chatapp.local")
	req.NoError(err)
	_, err = issuer.ValidateToken(token)
	req.Error(err)
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!", DefaultHashParams)
	}
}

package cache

import (
	"chat-app/contract"
	"chat-app/errors"
	"crypto/cipher"
	"crypto/rand"
	stderrors "errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	deviceKeyLength = 32
	kdfIterations   = 1
	kdfMemory       = 19 * 1024
	kdfParallelism  = 1
)

var kdfSalt = []byte("chatapp:credentials:v1")

// Sealer encrypts cached secrets with XChaCha20-Poly1305.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the sealing key from secret with argon2id.
func NewSealer(secret []byte) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("sealer secret is empty")
	}
	key := argon2.IDKey(secret, kdfSalt, kdfIterations, kdfMemory, kdfParallelism, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns nonce || ciphertext.
func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plain, nil), nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize() {
		return nil, errors.ErrSealedPayload
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.ErrSealedPayload
	}
	return plain, nil
}

// DeviceSecret returns the random per-install key, creating it on first use.
func DeviceSecret(store contract.IBlobStore) ([]byte, error) {
	secret, err := store.Get(DeviceKeyKey)
	if err == nil && len(secret) == deviceKeyLength {
		return secret, nil
	}
	if err != nil && !stderrors.Is(err, errors.ErrCacheMiss) {
		return nil, err
	}
	secret = make([]byte, deviceKeyLength)
	if _, err = rand.Read(secret); err != nil {
		return nil, err
	}
	if err = store.Set(DeviceKeyKey, secret); err != nil {
		return nil, err
	}
	return secret, nil
}

package cache

import (
	"chat-app/contract"
	"chat-app/domain"
	"encoding/json"
	"fmt"
)

// CredentialCache persists the last successful login, sealed at rest.
type CredentialCache struct {
	store  contract.IBlobStore
	sealer *Sealer
}

func NewCredentialCache(store contract.IBlobStore, sealer *Sealer) *CredentialCache {
	return &CredentialCache{store: store, sealer: sealer}
}

// Load returns errors.ErrCacheMiss when nothing was stored.
func (c *CredentialCache) Load() (domain.StoredCredentials, error) {
	sealed, err := c.store.Get(CredentialsKey)
	if err != nil {
		return domain.StoredCredentials{}, err
	}
	raw, err := c.sealer.Open(sealed)
	if err != nil {
		return domain.StoredCredentials{}, err
	}
	var credentials domain.StoredCredentials
	if err = json.Unmarshal(raw, &credentials); err != nil {
		return domain.StoredCredentials{}, fmt.Errorf("decode credentials: %w", err)
	}
	return credentials, nil
}

func (c *CredentialCache) Save(credentials domain.StoredCredentials) error {
	raw, err := json.Marshal(credentials)
	if err != nil {
		return err
	}
	sealed, err := c.sealer.Seal(raw)
	if err != nil {
		return fmt.Errorf("seal credentials: %w", err)
	}
	return c.store.Set(CredentialsKey, sealed)
}

func (c *CredentialCache) Clear() error {
	return c.store.Remove(CredentialsKey)
}

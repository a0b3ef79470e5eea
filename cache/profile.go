package cache

import (
	"chat-app/contract"
	"chat-app/domain"
	"encoding/json"
	"fmt"
)

type ProfileCache struct {
	store contract.IBlobStore
}

func NewProfileCache(store contract.IBlobStore) *ProfileCache {
	return &ProfileCache{store: store}
}

func (c *ProfileCache) Load() (domain.StoredProfile, error) {
	raw, err := c.store.Get(ProfileKey)
	if err != nil {
		return domain.StoredProfile{}, err
	}
	var profile domain.StoredProfile
	if err = json.Unmarshal(raw, &profile); err != nil {
		return domain.StoredProfile{}, fmt.Errorf("decode profile: %w", err)
	}
	return profile, nil
}

func (c *ProfileCache) Save(profile domain.StoredProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return c.store.Set(ProfileKey, raw)
}

func (c *ProfileCache) Clear() error {
	return c.store.Remove(ProfileKey)
}

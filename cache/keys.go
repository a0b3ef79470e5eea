// Package cache holds the typed local caches that shadow identity and the
// message feed. They are passive mirrors: none of them is a source of truth.
package cache

// Fixed keys of the local blob store.
const (
	CredentialsKey = "chatapp:credentials"
	ProfileKey     = "chatapp:profile"
	MessagesKey    = "chatapp:messages"
	DeviceKeyKey   = "chatapp:device-key"
)

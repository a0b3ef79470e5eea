package internal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// BackendConfig configures the emulated hosted backend, standalone or embedded.
type BackendConfig struct {
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=50051"`
	HTTPPort          int           `env:"HTTP_PORT,default=8081"`
	PublicBaseURL     string        `env:"CHATAPP_PUBLIC_BASE_URL"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,default=.chatapp/backend"`
	JWTSecret         string        `env:"CHATAPP_JWT_SECRET,default=chatapp-dev-secret"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	DebugInspect      bool          `env:"CHATAPP_DEBUG_INSPECT,default=false"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
}

// ObjectBaseURL is the public prefix of object download links.
func (c BackendConfig) ObjectBaseURL() string {
	if c.PublicBaseURL != "" {
		return c.PublicBaseURL
	}
	return fmt.Sprintf("http://%s:%d", c.Host, c.HTTPPort)
}

// ClientConfig configures the terminal client. With an empty BackendAddr the
// client embeds its own backend, configured by Backend.
type ClientConfig struct {
	BackendAddr       string `env:"CHATAPP_BACKEND_ADDR"`
	CacheDir          string `env:"CHATAPP_CACHE_DIR,default=.chatapp/cache"`
	CredentialSecret  string `env:"CHATAPP_CREDENTIAL_SECRET"`
	MessageCacheLimit int    `env:"CHATAPP_MESSAGE_CACHE_LIMIT,default=500"`
	LogFile           string `env:"CHATAPP_LOG_FILE,default=chatapp.log"`
	LogPayloads       bool   `env:"CHATAPP_LOG_PAYLOADS,default=false"`
	LogLevel          string `env:"LOG_LEVEL,default=INFO"`
	Backend           BackendConfig
}

// Embedded reports whether the client runs its own backend in-process.
func (c ClientConfig) Embedded() bool {
	return c.BackendAddr == ""
}

// SlogLevel parses LogLevel the way slog spells levels (DEBUG, INFO, WARN,
// ERROR, case-insensitive). Unknown names fall back to INFO.
func (c ClientConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// LoadClientConfig reads an optional .env file, then the environment.
func LoadClientConfig() (ClientConfig, error) {
	_ = godotenv.Load()
	var config ClientConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return ClientConfig{}, fmt.Errorf("config error: %w", err)
	}
	if config.MessageCacheLimit < 0 {
		return ClientConfig{}, fmt.Errorf("CHATAPP_MESSAGE_CACHE_LIMIT must not be negative, got %d", config.MessageCacheLimit)
	}
	return config, nil
}

func LoadBackendConfig() (BackendConfig, error) {
	_ = godotenv.Load()
	var config BackendConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return BackendConfig{}, fmt.Errorf("config error: %w", err)
	}
	return config, nil
}

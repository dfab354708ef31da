package cli

import (
	"os"
	"strconv"
)

// Environment variables read by DefaultOptions.
const (
	EnvStore         = "STATENODE_STORE"
	EnvStateDir      = "STATENODE_STATE_DIR"
	EnvRedisAddr     = "STATENODE_REDIS_ADDR"
	EnvRedisPassword = "STATENODE_REDIS_PASSWORD"
	EnvRedisDB       = "STATENODE_REDIS_DB"
	EnvEncryptionKey = "STATENODE_ENCRYPTION_KEY"
	EnvLogLevel      = "STATENODE_LOG_LEVEL"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Options holds the settings shared by every command.
type Options struct {
	// ConfigPath is a YAML or JSON machine configuration file.
	ConfigPath string

	// LibraryPath is a directory of machine documents; Machine selects one of them.
	LibraryPath string
	Machine     string

	// Store is one of StoreMemory, StoreFile or StoreRedis.
	Store    string
	StateDir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// EncryptionKey seals persisted snapshots (32 bytes, hex or base64).
	EncryptionKey string

	LogLevel string
	LogJSON  bool
}

// DefaultOptions returns options seeded from the environment.
func DefaultOptions() Options {
	opts := Options{
		Store:         os.Getenv(EnvStore),
		StateDir:      os.Getenv(EnvStateDir),
		RedisAddr:     os.Getenv(EnvRedisAddr),
		RedisPassword: os.Getenv(EnvRedisPassword),
		EncryptionKey: os.Getenv(EnvEncryptionKey),
		LogLevel:      os.Getenv(EnvLogLevel),
	}
	if db, err := strconv.Atoi(os.Getenv(EnvRedisDB)); err == nil {
		opts.RedisDB = db
	}
	if opts.Store == "" {
		opts.Store = StoreFile
		if opts.RedisAddr != "" {
			opts.Store = StoreRedis
		}
	}
	if opts.LogLevel == "" {
		opts.LogLevel = "warn"
	}
	return opts
}

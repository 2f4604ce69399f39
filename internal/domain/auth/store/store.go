package store

import (
	"context"
	"time"

	"abonado-server-go/internal/domain/auth/model"
)

// Store defines the session persistence behaviour required by the auth manager.
type Store interface {
	Store(ctx context.Context, info model.SessionInfo) error
	Active(ctx context.Context, sessionID string) (model.SessionInfo, bool, error)
	Get(ctx context.Context, sessionID string) (model.SessionInfo, error)
	Remove(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
	CleanupExpired(ctx context.Context) error
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Config describes the high level store selection parameters.
type Config struct {
	Driver string
	TTL    time.Duration
	Redis  *RedisConfig
	SQLite *SQLiteConfig
	Memory *MemoryConfig
}

// MemoryConfig holds in-memory tuning knobs.
type MemoryConfig struct {
	GCInterval time.Duration
}

// SQLiteConfig provides the database dependency.
type SQLiteConfig struct {
	DSN string
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

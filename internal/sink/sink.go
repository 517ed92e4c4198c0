// Package sink writes batch output to its destination: a JSON file for
// downstream pickup, or a SQL database for querying across runs.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/annuityworks/kestrel/internal/domain"
)

// Sink receives one batch run's complete output.
type Sink interface {
	Write(ctx context.Context, out *domain.BatchOutput) error
	Close() error
}

// Config selects and parameterizes the output destination.
type Config struct {
	Kind string `mapstructure:"kind"` // "file" or "sql"

	// File sink.
	Path string `mapstructure:"path"`

	// SQL sink. Works with both SQLite and PostgreSQL drivers.
	Driver           string        `mapstructure:"driver"`
	SQLitePath       string        `mapstructure:"sqlite_path"`
	PostgresHost     string        `mapstructure:"postgres_host"`
	PostgresPort     int           `mapstructure:"postgres_port"`
	PostgresUser     string        `mapstructure:"postgres_user"`
	PostgresPassword string        `mapstructure:"postgres_password"`
	PostgresDB       string        `mapstructure:"postgres_db"`
	PostgresSSLMode  string        `mapstructure:"postgres_sslmode"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
}

// New builds the configured sink.
func New(cfg Config) (Sink, error) {
	switch cfg.Kind {
	case "file":
		return NewFileSink(cfg.Path), nil
	case "sql":
		return NewSQLSink(cfg)
	default:
		return nil, fmt.Errorf("unsupported sink kind: %s", cfg.Kind)
	}
}

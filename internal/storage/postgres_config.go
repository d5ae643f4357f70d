package storage

import "time"

// PostgresConfig describes how the repository initialises its Postgres
// connection pool.
type PostgresConfig struct {
	DSN                 string
	MaxConnections      int32
	MinConnections      int32
	MaxConnLifetime     time.Duration
	MaxConnIdleTime     time.Duration
	HealthCheckInterval time.Duration
	ConnectTimeout      time.Duration
	ApplicationName     string
	// OperationTimeout bounds each statement issued through the repository.
	OperationTimeout time.Duration
}

const defaultPostgresOperationTimeout = 5 * time.Second

func (cfg *PostgresConfig) normalize() {
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = defaultPostgresOperationTimeout
	}
	if cfg.ApplicationName == "" {
		cfg.ApplicationName = "portfolio-live"
	}
}

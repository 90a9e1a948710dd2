package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"creditfeed"`
	Password string `env:"PASSWORD"                envDefault:"creditfeed"`
	Name     string `env:"NAME"                    envDefault:"creditfeed"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`

	Pool DBPoolConfig
}

// DBPoolConfig sizes the database/sql connection pool.
type DBPoolConfig struct {
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"    envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"    envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// Sanitize applies guardrails to database configuration values.
func (c *DBConfig) Sanitize() {
	if c.Pool.MaxOpenConns <= 0 {
		c.Pool.MaxOpenConns = 25
	}
	if c.Pool.MaxIdleConns < 0 {
		c.Pool.MaxIdleConns = 0
	}
	if c.Pool.MaxIdleConns > c.Pool.MaxOpenConns {
		c.Pool.MaxIdleConns = c.Pool.MaxOpenConns
	}
	if c.Pool.ConnMaxLifetime <= 0 {
		c.Pool.ConnMaxLifetime = 5 * time.Minute
	}
}

// RedisConfig contains Redis configuration.
// Redis backs the login throttle and is only dialled when Enabled.
type RedisConfig struct {
	Enabled            bool     `env:"ENABLED"              envDefault:"false"`
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	KeyPrefix          string   `env:"KEY_PREFIX"           envDefault:"creditfeed:"`
}

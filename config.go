package adapter

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"github.com/keays/mysql-adapter/dialect"
	"github.com/keays/mysql-adapter/dialect/sql"
	"github.com/keays/mysql-adapter/schema"
)

// Config holds the settings the host framework hands the adapter at
// construction. All knobs are optional except the DSN.
type Config struct {
	// DSN is the go-sql-driver/mysql data source name.
	DSN string `yaml:"dsn"`
	// MaxOpenConns caps the connection pool size.
	MaxOpenConns int `yaml:"max_open_conns"`
	// MaxIdleConns caps the idle connections kept in the pool.
	MaxIdleConns int `yaml:"max_idle_conns"`
	// ConnMaxLifetime bounds how long a pooled connection may be reused.
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	// PluralizeTables derives table names by pluralizing the model name.
	PluralizeTables bool `yaml:"pluralize_tables"`
	// SlowQueryThreshold enables statement timing and logs statements
	// slower than the threshold. Zero disables the wrapper.
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold"`
}

// ParseConfig parses a YAML adapter configuration and validates the DSN.
func ParseConfig(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("adapter: parse config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.DSN == "" {
		return fmt.Errorf("adapter: config: dsn is required")
	}
	if _, err := mysql.ParseDSN(c.DSN); err != nil {
		return fmt.Errorf("adapter: config: invalid dsn: %w", err)
	}
	return nil
}

// Open opens the connection pool described by the config and returns an
// Adapter over it. Caller-supplied options run last and win over the
// config-derived ones.
func (c *Config) Open(opts ...Option) (*Adapter, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	drv, err := sql.Open(dialect.MySQL, c.DSN)
	if err != nil {
		return nil, fmt.Errorf("adapter: open: %w", err)
	}
	db := drv.DB()
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(c.ConnMaxLifetime)
	}
	var d dialect.Driver = drv
	if c.SlowQueryThreshold > 0 {
		d = sql.NewStatsDriver(drv,
			sql.WithSlowThreshold(c.SlowQueryThreshold),
			sql.WithSlowQueryLog(nil),
		)
	}
	if c.PluralizeTables {
		opts = append([]Option{
			WithRegistry(schema.NewRegistry(schema.PluralizeTables())),
		}, opts...)
	}
	return New(d, opts...), nil
}

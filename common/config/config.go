package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig Postgres connection and pool settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MaxIdle  int    `yaml:"max_idle"`

	// StatementTimeoutMS is sent to the server as a run-time parameter.
	// A statement exceeding it fails and aborts the surrounding transaction.
	StatementTimeoutMS int `yaml:"statement_timeout_ms"`
}

// RedisConfig Redis settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MailConfig receipt email relay settings
type MailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	RelayURL string `yaml:"relay_url"`
	APIKey   string `yaml:"api_key"`
	From     string `yaml:"from"`
}

// GetDSN builds a lib/pq key=value connection string
func (c *DatabaseConfig) GetDSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
	if c.StatementTimeoutMS > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", c.StatementTimeoutMS)
	}
	return dsn
}

// LoadFromEnv overrides fields from <prefix>_* environment variables
func (c *DatabaseConfig) LoadFromEnv(prefix string) {
	if host := os.Getenv(prefix + "_HOST"); host != "" {
		c.Host = host
	}
	if port := os.Getenv(prefix + "_PORT"); port != "" {
		c.Port = atoi(port, c.Port)
	}
	if user := os.Getenv(prefix + "_USER"); user != "" {
		c.User = user
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
	if database := os.Getenv(prefix + "_NAME"); database != "" {
		c.Database = database
	}
	if sslMode := os.Getenv(prefix + "_SSLMODE"); sslMode != "" {
		c.SSLMode = sslMode
	}
	if maxConns := os.Getenv(prefix + "_MAX_CONNS"); maxConns != "" {
		c.MaxConns = atoi(maxConns, c.MaxConns)
	}
	if maxIdle := os.Getenv(prefix + "_MAX_IDLE"); maxIdle != "" {
		c.MaxIdle = atoi(maxIdle, c.MaxIdle)
	}
	if timeout := os.Getenv(prefix + "_STATEMENT_TIMEOUT_MS"); timeout != "" {
		c.StatementTimeoutMS = atoi(timeout, c.StatementTimeoutMS)
	}
}

// LoadFromEnv overrides fields from <prefix>_* environment variables
func (c *RedisConfig) LoadFromEnv(prefix string) {
	if addr := os.Getenv(prefix + "_ADDR"); addr != "" {
		c.Addr = addr
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
	if db := os.Getenv(prefix + "_DB"); db != "" {
		c.DB = atoi(db, c.DB)
	}
}

// LoadFromEnv overrides fields from <prefix>_* environment variables
func (c *MailConfig) LoadFromEnv(prefix string) {
	if enabled := os.Getenv(prefix + "_ENABLED"); enabled != "" {
		c.Enabled = enabled == "true"
	}
	if relayURL := os.Getenv(prefix + "_RELAY_URL"); relayURL != "" {
		c.RelayURL = relayURL
	}
	if apiKey := os.Getenv(prefix + "_API_KEY"); apiKey != "" {
		c.APIKey = apiKey
	}
	if from := os.Getenv(prefix + "_FROM"); from != "" {
		c.From = from
	}
}

func atoi(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

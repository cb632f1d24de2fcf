package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	commoncfg "github.com/umar1110/Donation-Plantform-Server/common/config"
)

// Config donation platform service configuration
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Database commoncfg.DatabaseConfig `yaml:"database"`
	Redis    RedisConfig              `yaml:"redis"`
	Mail     MailConfig               `yaml:"mail"`
	Log      struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Migrations MigrationsConfig `yaml:"migrations"`
	OrgCache   struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"org_cache"`
	Donations DonationDefaults `yaml:"donations"`
}

// RedisConfig Redis is optional; without it email dispatch runs in-process
type RedisConfig struct {
	Enabled               bool `yaml:"enabled"`
	commoncfg.RedisConfig `yaml:",inline"`
}

// MailConfig relay settings plus the outbox stream the worker consumes
type MailConfig struct {
	commoncfg.MailConfig `yaml:",inline"`
	Stream               string `yaml:"stream"`
	ConsumerGroup        string `yaml:"consumer_group"`
	ConsumerName         string `yaml:"consumer_name"`
	MaxAttempts          int    `yaml:"max_attempts"`
}

// MigrationsConfig locations of the two migration trees
type MigrationsConfig struct {
	SharedDir string `yaml:"shared_dir"`
	TenantDir string `yaml:"tenant_dir"`
}

// DonationDefaults is the single table of defaults applied at validation entry.
type DonationDefaults struct {
	Currency              string          `yaml:"currency"`
	PaymentMethod         string          `yaml:"payment_method"`
	PaymentMethods        []string        `yaml:"payment_methods"`
	SplitTolerance        decimal.Decimal `yaml:"-"`
	AnonymousDonorName    string          `yaml:"anonymous_donor_name"`
	RetentionYears        int             `yaml:"retention_years"`
	FallbackReceiptPrefix string          `yaml:"fallback_receipt_prefix"`
}

// DefaultDonationDefaults returns the built-in defaults table
func DefaultDonationDefaults() DonationDefaults {
	return DonationDefaults{
		Currency:              "AUD",
		PaymentMethod:         "cash",
		PaymentMethods:        []string{"cash", "check", "bank_transfer", "stripe", "other"},
		SplitTolerance:        decimal.RequireFromString("0.01"),
		AnonymousDonorName:    "Anonymous Donor",
		RetentionYears:        7,
		FallbackReceiptPrefix: "ORG",
	}
}

// Load reads CONFIG_FILE (if set) and then applies environment overrides
func Load() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadFile reads a YAML file on top of the defaults without consulting the environment
func LoadFile(path string) (*Config, error) {
	cfg := defaults()
	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"
	cfg.Database = commoncfg.DatabaseConfig{
		Host:               "localhost",
		Port:               5432,
		User:               "postgres",
		Password:           "postgres",
		Database:           "donations",
		SSLMode:            "disable",
		MaxConns:           20,
		MaxIdle:            5,
		StatementTimeoutMS: 15000,
	}
	cfg.Redis.Addr = "localhost:6379"
	cfg.Mail.Stream = "receipts:email"
	cfg.Mail.ConsumerGroup = "receipt-mailer"
	cfg.Mail.ConsumerName = "receipt-mailer-1"
	cfg.Mail.MaxAttempts = 5
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Migrations.SharedDir = "migrations/shared"
	cfg.Migrations.TenantDir = "migrations/tenant"
	cfg.OrgCache.TTL = 5 * time.Minute
	cfg.Donations = DefaultDonationDefaults()
	return cfg
}

func loadFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)

	cfg.Database.LoadFromEnv("DB")
	cfg.Redis.LoadFromEnv("REDIS")
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = v == "true"
	}

	cfg.Mail.LoadFromEnv("MAIL")
	cfg.Mail.Stream = getEnv("MAIL_STREAM", cfg.Mail.Stream)
	cfg.Mail.ConsumerGroup = getEnv("MAIL_CONSUMER_GROUP", cfg.Mail.ConsumerGroup)
	cfg.Mail.ConsumerName = getEnv("MAIL_CONSUMER_NAME", cfg.Mail.ConsumerName)
	cfg.Mail.MaxAttempts = parseInt(getEnv("MAIL_MAX_ATTEMPTS", ""), cfg.Mail.MaxAttempts)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Migrations.SharedDir = getEnv("MIGRATIONS_SHARED_DIR", cfg.Migrations.SharedDir)
	cfg.Migrations.TenantDir = getEnv("MIGRATIONS_TENANT_DIR", cfg.Migrations.TenantDir)

	if secs := parseInt(getEnv("ORG_CACHE_TTL_SECONDS", ""), -1); secs >= 0 {
		cfg.OrgCache.TTL = time.Duration(secs) * time.Second
	}
	cfg.Donations.Currency = getEnv("DEFAULT_CURRENCY", cfg.Donations.Currency)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
	Node struct {
		RESTURL        string `yaml:"rest_url"`
		StreamURL      string `yaml:"stream_url"`
		TimeoutSeconds int64  `yaml:"timeout_seconds"`
	} `yaml:"node"`
	Invoices struct {
		DefaultDescription   string `yaml:"default_description"`
		DefaultExpirySeconds int64  `yaml:"default_expiry_seconds"`
	} `yaml:"invoices"`
	Wait struct {
		MaxSeconds int64 `yaml:"max_seconds"`
	} `yaml:"wait"`
	Webhooks struct {
		TimeoutSeconds int64 `yaml:"timeout_seconds"`
	} `yaml:"webhooks"`
	Reconciler struct {
		TTLSeconds      int64 `yaml:"ttl_seconds"`
		IntervalSeconds int64 `yaml:"interval_seconds"`
	} `yaml:"reconciler"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.DB.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	if cfg.Node.RESTURL == "" {
		return nil, errors.New("node.rest_url is required")
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("NODE_REST_URL"); v != "" {
		cfg.Node.RESTURL = v
	}
	if v := os.Getenv("NODE_STREAM_URL"); v != "" {
		cfg.Node.StreamURL = v
	}
	if v := os.Getenv("NODE_TIMEOUT_SECONDS"); v != "" {
		cfg.Node.TimeoutSeconds = atoi64Or(cfg.Node.TimeoutSeconds, v)
	}
	if v := os.Getenv("INVOICE_DESC_DEFAULT"); v != "" {
		cfg.Invoices.DefaultDescription = v
	}
	if v := os.Getenv("INVOICE_EXPIRY_SECONDS"); v != "" {
		cfg.Invoices.DefaultExpirySeconds = atoi64Or(cfg.Invoices.DefaultExpirySeconds, v)
	}
	if v := os.Getenv("MAX_WAIT"); v != "" {
		cfg.Wait.MaxSeconds = atoi64Or(cfg.Wait.MaxSeconds, v)
	}
	if v := os.Getenv("WEBHOOK_TIMEOUT_SECONDS"); v != "" {
		cfg.Webhooks.TimeoutSeconds = atoi64Or(cfg.Webhooks.TimeoutSeconds, v)
	}
	if v := os.Getenv("RECONCILER_TTL_SECONDS"); v != "" {
		cfg.Reconciler.TTLSeconds = atoi64Or(cfg.Reconciler.TTLSeconds, v)
	}
	if v := os.Getenv("RECONCILER_INTERVAL_SECONDS"); v != "" {
		cfg.Reconciler.IntervalSeconds = atoi64Or(cfg.Reconciler.IntervalSeconds, v)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Node.TimeoutSeconds <= 0 {
		cfg.Node.TimeoutSeconds = 10
	}
	if cfg.Invoices.DefaultDescription == "" {
		cfg.Invoices.DefaultDescription = "Lightning Charge Invoice"
	}
	if cfg.Invoices.DefaultExpirySeconds <= 0 {
		cfg.Invoices.DefaultExpirySeconds = 3600
	}
	if cfg.Wait.MaxSeconds <= 0 {
		cfg.Wait.MaxSeconds = 600
	}
	if cfg.Webhooks.TimeoutSeconds <= 0 {
		cfg.Webhooks.TimeoutSeconds = 10
	}
	if cfg.Reconciler.TTLSeconds < 0 {
		cfg.Reconciler.TTLSeconds = 0
	}
	if cfg.Reconciler.IntervalSeconds <= 0 {
		cfg.Reconciler.IntervalSeconds = 600
	}
}

func (c *Config) NodeTimeout() time.Duration {
	return time.Duration(c.Node.TimeoutSeconds) * time.Second
}

func (c *Config) DefaultExpiry() time.Duration {
	return time.Duration(c.Invoices.DefaultExpirySeconds) * time.Second
}

func (c *Config) MaxWait() time.Duration {
	return time.Duration(c.Wait.MaxSeconds) * time.Second
}

func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhooks.TimeoutSeconds) * time.Second
}

func (c *Config) ReconcileTTL() time.Duration {
	return time.Duration(c.Reconciler.TTLSeconds) * time.Second
}

func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.Reconciler.IntervalSeconds) * time.Second
}

func atoi64Or(fallback int64, v string) int64 {
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

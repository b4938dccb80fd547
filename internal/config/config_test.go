package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
db:
  dsn: postgres://localhost/charge
node:
  rest_url: http://localhost:9737
wait:
  max_seconds: 120
reconciler:
  ttl_seconds: 300
  interval_seconds: 60
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/charge", cfg.DB.DSN)
	assert.Equal(t, "http://localhost:9737", cfg.Node.RESTURL)
	assert.Equal(t, 2*time.Minute, cfg.MaxWait())
	assert.Equal(t, 5*time.Minute, cfg.ReconcileTTL())
	assert.Equal(t, time.Minute, cfg.ReconcileInterval())
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
db:
  dsn: postgres://localhost/charge
node:
  rest_url: http://localhost:9737
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Lightning Charge Invoice", cfg.Invoices.DefaultDescription)
	assert.Equal(t, time.Hour, cfg.DefaultExpiry())
	assert.Equal(t, 10*time.Minute, cfg.MaxWait())
	assert.Equal(t, 10*time.Second, cfg.WebhookTimeout())
	assert.Equal(t, 10*time.Second, cfg.NodeTimeout())
	assert.Equal(t, 10*time.Minute, cfg.ReconcileInterval())
}

func TestEnvOverridesWin(t *testing.T) {
	path := writeConfig(t, `
db:
  dsn: postgres://localhost/charge
node:
  rest_url: http://localhost:9737
wait:
  max_seconds: 120
`)

	t.Setenv("DB_DSN", "postgres://override/charge")
	t.Setenv("MAX_WAIT", "30")
	t.Setenv("INVOICE_DESC_DEFAULT", "My Shop Invoice")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://override/charge", cfg.DB.DSN)
	assert.Equal(t, 30*time.Second, cfg.MaxWait())
	assert.Equal(t, "My Shop Invoice", cfg.Invoices.DefaultDescription)
}

func TestLoadMissingRequired(t *testing.T) {
	path := writeConfig(t, `
node:
  rest_url: http://localhost:9737
`)
	_, err := Load(path)
	assert.EqualError(t, err, "db.dsn is required")

	path = writeConfig(t, `
db:
  dsn: postgres://localhost/charge
`)
	_, err = Load(path)
	assert.EqualError(t, err, "node.rest_url is required")
}

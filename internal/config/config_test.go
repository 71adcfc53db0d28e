package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9100
database:
  driver: mysql
  host: db
  port: 3306
  database: ledger
ledger:
  allow_negative_ready_to_assign: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.True(t, cfg.Ledger.AllowNegativeReadyToAssign)
	// 未配置的键使用默认值
	assert.Equal(t, 5, cfg.Outbox.MaxRetryCount)
	assert.Equal(t, 3, cfg.Ledger.RecurringMaxFailures)
	assert.Equal(t, "ledger-events", cfg.Kafka.Topic.LedgerEvents)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  path: /tmp/ledger.db
`)
	t.Setenv("LEDGER_SERVER_PORT", "7000")
	t.Setenv("LEDGER_DATABASE_PATH", "/var/lib/ledger.db")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/var/lib/ledger.db", cfg.Database.Path)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default is valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: true},
		{name: "mysql without host", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "kafka without brokers", mutate: func(c *Config) { c.Kafka.Enabled = true }, wantErr: true},
		{name: "unknown server mode", mutate: func(c *Config) { c.Server.Mode = "prod" }, wantErr: true},
		{name: "zero retries", mutate: func(c *Config) { c.Outbox.MaxRetryCount = 0 }, wantErr: true},
		{name: "zero recurring failures", mutate: func(c *Config) { c.Ledger.RecurringMaxFailures = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

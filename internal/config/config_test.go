package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleHunter/internal/connector"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8*time.Minute, cfg.Interval())
	assert.Equal(t, ":8070", cfg.Server.Addr)
	assert.Equal(t, []string{"java", "swift", "javascript", "ibm", "node"}, cfg.Keywords)
	assert.Len(t, cfg.Feeds, 2)
	assert.False(t, cfg.Notifications.Telegram.Enabled())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
logging:
  format: json
scheduler:
  intervalMinutes: 3
  pollTimeout: 90s
keywords: [go, rust]
connectors:
  - name: serverfault
    kind: stackexchange
    options:
      site: serverfault
breaker:
  failures: 2
`)

	cfg := Load(path)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 3*time.Minute, cfg.Interval())
	assert.Equal(t, 90*time.Second, cfg.Scheduler.PollTimeout)
	assert.Equal(t, []string{"go", "rust"}, cfg.Keywords)
	assert.Len(t, cfg.Feeds, 2)
	assert.Equal(t, uint32(2), cfg.Breaker.Failures)
	assert.Equal(t, 5*time.Minute, cfg.Breaker.OpenFor)
	assert.Equal(t, []connector.Spec{
		{Name: "serverfault", Kind: "stackexchange", Options: map[string]string{"site": "serverfault"}},
	}, cfg.ConnectorSpecs())
}

func TestLoadEmptyKeywordListIsKept(t *testing.T) {
	cfg := Load(writeConfig(t, "keywords: []\n"))
	assert.Empty(t, cfg.Keywords)
	assert.NotNil(t, cfg.Keywords)
}

func TestLoadFallsBackOnBadFile(t *testing.T) {
	missing := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, Default(), missing)

	broken := Load(writeConfig(t, "scheduler: [not, a, map"))
	assert.Equal(t, Default(), broken)
}

func TestLoadUsesEnvPath(t *testing.T) {
	t.Setenv(ConfigPathEnv, writeConfig(t, "server:\n  addr: 127.0.0.1:9000\n"))

	assert.Equal(t, "127.0.0.1:9000", Load("").Server.Addr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(addrEnv, ":9999")
	t.Setenv(intervalEnv, "15")
	t.Setenv(databaseDSNEnv, "postgres://hunter@localhost/articles")
	t.Setenv(telegramTokenEnv, "token")
	t.Setenv(telegramChatIDEnv, "chat")
	t.Setenv(logLevelEnv, "debug")

	cfg := Load("")

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 15*time.Minute, cfg.Interval())
	assert.Equal(t, "postgres://hunter@localhost/articles", cfg.Database.DSN)
	assert.True(t, cfg.Notifications.Telegram.Enabled())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestNonNumericIntervalIsIgnored(t *testing.T) {
	t.Setenv(intervalEnv, "soon")

	assert.Equal(t, 8, Load("").Scheduler.IntervalMinutes)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.Scheduler.IntervalMinutes = 0 }},
		{"zero poll timeout", func(c *Config) { c.Scheduler.PollTimeout = 0 }},
		{"no connectors", func(c *Config) { c.Connectors = nil }},
		{"unknown kind", func(c *Config) { c.Connectors[0].Kind = "nntp" }},
		{"duplicate connector", func(c *Config) { c.Connectors[1].Name = c.Connectors[0].Name }},
		{"feed without url", func(c *Config) { c.Feeds[0].Source = "" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

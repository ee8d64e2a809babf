package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "0 * * * *", cfg.Reminder.Schedule)
	assert.Equal(t, 22, cfg.Reminder.QuietStart)
	assert.Equal(t, 8, cfg.Reminder.QuietEnd)
	assert.Equal(t, 4, cfg.Reminder.Concurrency)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SPRACHIZ_DATABASE_DRIVER", "postgres")
	t.Setenv("SPRACHIZ_DATABASE_DSN", "postgres://localhost/sprachiz")
	t.Setenv("SPRACHIZ_LOG_LEVEL", "debug")
	t.Setenv("SPRACHIZ_LLM_PROVIDER", "anthropic")
	t.Setenv("SPRACHIZ_LLM_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/sprachiz", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	content := `
log:
  level: warn
  format: json
reminder:
  schedule: "*/15 * * * *"
  quiet_start: 23
  quiet_end: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "*/15 * * * *", cfg.Reminder.Schedule)
	assert.Equal(t, 23, cfg.Reminder.QuietStart)
	assert.Equal(t, 7, cfg.Reminder.QuietEnd)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SPRACHIZ_LOG_FORMAT=json\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SPRACHIZ_LOG_FORMAT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: "sqlite"},
			Log:      LogConfig{Level: "info", Format: "text"},
			Reminder: ReminderConfig{QuietStart: 22, QuietEnd: 8, Concurrency: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"quiet hour out of range", func(c *Config) { c.Reminder.QuietEnd = 24 }, true},
		{"zero concurrency", func(c *Config) { c.Reminder.Concurrency = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

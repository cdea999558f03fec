package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_API_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/trainer")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "token", cfg.TelegramAPIToken)
	assert.Equal(t, "spanish_trainer_progress_v2", cfg.Storage.ProgressKey)
	assert.Equal(t, DriverSQLite, cfg.Storage.LocalDriver)
	assert.Equal(t, 24*time.Hour, cfg.HTTP.InitDataMaxAge)
	assert.Equal(t, 19, cfg.Reminders.Hour)
	assert.NoError(t, cfg.ValidateBot())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := `
env: production
timezone: Europe/Madrid
storage:
  local_driver: file
  file_dir: /tmp/progress
reminders:
  hour: 20
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("REMINDERS_HOUR", "21")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, DriverFile, cfg.Storage.LocalDriver)
	assert.Equal(t, "/tmp/progress", cfg.Storage.FileDir)
	assert.Equal(t, 21, cfg.Reminders.Hour)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Madrid", loc.String())
}

func TestValidate(t *testing.T) {
	t.Setenv("TELEGRAM_API_TOKEN", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, cfg.ValidateBot(), ErrMissingEnvironmentVariables)
	assert.ErrorIs(t, cfg.ValidateCLI(false), ErrMissingEnvironmentVariables)
	assert.NoError(t, cfg.ValidateCLI(true))

	cfg.Storage.LocalDriver = "redis"
	assert.Error(t, cfg.ValidateCLI(true))

	cfg.Storage.LocalDriver = DriverMemory
	cfg.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.ValidateCLI(true))

	cfg.Timezone = "UTC+2"
	cfg.Reminders.Hour = 24
	assert.Error(t, cfg.ValidateCLI(true))
}

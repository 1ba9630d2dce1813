package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  postgres_dsn: postgres://localhost/social
publish:
  concurrency: 2
calendar:
  timezone: Europe/Berlin
scheduler:
  enabled: true
`), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/social", cfg.Database.PostgresDSN)
	assert.True(t, cfg.Database.MigrateOnStart)
	assert.Equal(t, 2, cfg.Publish.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Publish.PlatformTimeout)
	assert.Equal(t, "@every 1m", cfg.Scheduler.Spec)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "v18.0", cfg.Facebook.APIVersion)
	assert.Equal(t, "me", cfg.Facebook.PageID)
	assert.False(t, cfg.Instagram.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())

	loc, err := cfg.Calendar.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadFromFile_MissingDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "unset-below")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestCalendarLocation_Unknown(t *testing.T) {
	_, err := Calendar{Timezone: "Nowhere/Special"}.Location()
	assert.Error(t, err)
}

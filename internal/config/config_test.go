package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	// when
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	// then
	require.NoError(t, err)
	assert.Equal(t, ":8181", cfg.Server.Addr)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "budgetwatch", cfg.Database.Schema)
	assert.Equal(t, 720, cfg.Auth.SessionTtlHours)
	assert.False(t, cfg.Email.IsConfigured())
	assert.False(t, cfg.Evolution.IsConfigured())
}

func TestLoad_FileAndEnvOverrideDefaults(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "application.yaml")
	content := []byte("db:\n  host: db.internal\n  port: 6543\nevolution:\n  url: https://evo.example.com\n  apikey: key\n  instance: main\n")
	require.NoError(t, os.WriteFile(path, content, 0644))
	t.Setenv("BUDGETWATCH_DB_HOST", "db.from.env")
	t.Setenv("BUDGETWATCH_EMAIL_SMTPHOST", "smtp.example.com")

	// when
	cfg, err := Load(path)

	// then
	require.NoError(t, err)
	assert.Equal(t, "db.from.env", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.Evolution.IsConfigured())
	assert.True(t, cfg.Email.IsConfigured())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BETPOOL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 7, cfg.TrashRetentionDays)
	assert.Equal(t, 120, cfg.SaveGraceSeconds)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoad_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "betpool.yaml")
	content := `
dataDir: /var/lib/betpool
trashRetentionDays: 14
saveGraceSeconds: 30
logLevel: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("BETPOOL_CONFIG", path)

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/betpool", cfg.DataDir)
	assert.Equal(t, 14, cfg.TrashRetentionDays)
	assert.Equal(t, 30, cfg.SaveGraceSeconds)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "betpool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trashRetentionDays: 14\n"), 0o644))
	t.Setenv("BETPOOL_CONFIG", path)
	t.Setenv("BETPOOL_TRASH_RETENTION_DAYS", "3")
	t.Setenv("BETPOOL_DATA_DIR", "/tmp/pool")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.TrashRetentionDays)
	assert.Equal(t, "/tmp/pool", cfg.DataDir)
}

func TestLoad_RejectsNegativeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "betpool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("saveGraceSeconds: -1\n"), 0o644))
	t.Setenv("BETPOOL_CONFIG", path)

	_, err := load()
	assert.Error(t, err)
}

func TestConfig_DerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/srv/betpool"}

	assert.Equal(t, filepath.Join("/srv/betpool", "history"), cfg.HistoryDir())
	assert.Equal(t, filepath.Join("/srv/betpool", "templates"), cfg.TemplatesDir())
	assert.Equal(t, filepath.Join("/srv/betpool", "trash"), cfg.TrashDir())
}

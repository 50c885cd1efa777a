package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate_WritesDefaultsOnFirstLaunch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, filepath.Join(dir, "nested", DefaultDBName), cfg.DBPath)
	assert.Equal(t, "all", cfg.DefaultFilter)
	assert.Equal(t, "due_date", cfg.DefaultSort)
	assert.Equal(t, " ", cfg.Keys.Toggle)

	_, err = os.Stat(path)
	require.NoError(t, err, "config file should be created")

	again, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadOrCreate_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	data := `
server_url = "https://tasks.example.com"
default_sort = "priority"
notice_seconds = 2

[keys]
quit = "x"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, "https://tasks.example.com", cfg.ServerURL)
	assert.Equal(t, "priority", cfg.DefaultSort)
	assert.Equal(t, "x", cfg.Keys.Quit)
	assert.Equal(t, "a", cfg.Keys.Add)
	assert.Equal(t, DefaultNarrowWidth, cfg.NarrowWidth)
	assert.Equal(t, 2*time.Second, cfg.NoticeTTL())
}

func TestLoadOrCreate_RejectsUnknownFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`default_filter = "someday"`), 0o644))

	_, err := LoadOrCreate(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_filter")
}

func TestResolveConfigPath_EnvOverride(t *testing.T) {
	t.Setenv(envConfig, "/tmp/custom.toml")
	assert.Equal(t, "/tmp/custom.toml", ResolveConfigPath())
}

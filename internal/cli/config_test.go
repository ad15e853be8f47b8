package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig(viper.New())
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.PluginDirs)
	assert.NotEmpty(t, cfg.LibsDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.StartupPlugins)
}

func TestLoadConfigFromFile(t *testing.T) {
	confHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", confHome)

	dir := filepath.Join(confHome, "liveplugin")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
pluginDirs:
  - /srv/plugins
libsDir: /srv/libs
startupPlugins:
  - greeter
logLevel: debug
`), 0o644))

	cfg, err := LoadConfig(viper.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/plugins"}, cfg.PluginDirs)
	assert.Equal(t, "/srv/libs", cfg.LibsDir)
	assert.Equal(t, []string{"greeter"}, cfg.StartupPlugins)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	confHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", confHome)

	dir := filepath.Join(confHome, "liveplugin")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("logLevel: debug\n"), 0o644))

	t.Setenv("LIVEPLUGIN_LOGLEVEL", "error")

	cfg, err := LoadConfig(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadConfigBadFileFails(t *testing.T) {
	confHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", confHome)

	dir := filepath.Join(confHome, "liveplugin")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("pluginDirs: [unclosed"), 0o644))

	_, err := LoadConfig(viper.New())
	assert.Error(t, err)
}

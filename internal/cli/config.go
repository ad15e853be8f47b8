package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/lomoussw/live-plugin/internal/catalog"
)

// Config holds everything the CLI reads from flags, environment, and the
// config file.
type Config struct {
	// PluginDirs are scanned for plugin folders, in priority order.
	PluginDirs []string `mapstructure:"pluginDirs"`

	// LibsDir is exposed to plugin scripts for add-to-classpath
	// directives.
	LibsDir string `mapstructure:"libsDir"`

	// StartupPlugins run when the host starts with --startup.
	StartupPlugins []string `mapstructure:"startupPlugins"`

	// LogLevel is a logrus level name.
	LogLevel string `mapstructure:"logLevel"`
}

// LoadConfig resolves configuration in the usual precedence order: flags
// bound to v, then LIVEPLUGIN_* environment variables, then the config
// file, then defaults. A missing config file is not an error.
func LoadConfig(v *viper.Viper) (Config, error) {
	v.SetDefault("pluginDirs", catalog.DefaultPluginPaths())
	v.SetDefault("libsDir", defaultLibsDir())
	v.SetDefault("logLevel", "info")

	v.SetEnvPrefix("LIVEPLUGIN")
	v.AutomaticEnv()

	if dir, err := os.UserConfigDir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(dir, "liveplugin"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultLibsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".live-plugins-libs"
	}
	return filepath.Join(home, ".live-plugins-libs")
}

// Package cli implements the liveplugin command line interface.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand builds the liveplugin root command and its subcommands.
func NewRootCommand(version string) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "liveplugin",
		Short: "liveplugin runs script plugins from plain folders",
		Long: `liveplugin discovers plugin folders, loads each plugin's entry script
(plugin.lua or plugin.go), and executes it with the host binding. Plugins can
pull in extra code with add-to-classpath directives and can be rerun
automatically when their files change.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.StringSlice("plugin-dir", nil, "directory to scan for plugin folders (repeatable)")
	flags.String("libs-dir", "", "directory exposed to plugins as $"+"LIVE_PLUGINS_LIBS")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	cobra.CheckErr(v.BindPFlag("pluginDirs", flags.Lookup("plugin-dir")))
	cobra.CheckErr(v.BindPFlag("libsDir", flags.Lookup("libs-dir")))
	cobra.CheckErr(v.BindPFlag("logLevel", flags.Lookup("log-level")))

	root.AddCommand(
		newListCommand(v),
		newRunCommand(v),
		newWatchCommand(v),
	)

	return root
}

// loadAndSetup resolves the configuration and applies the log level.
func loadAndSetup(v *viper.Viper) (Config, error) {
	cfg, err := LoadConfig(v)
	if err != nil {
		return Config{}, err
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

func setupLogging(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: false})
}

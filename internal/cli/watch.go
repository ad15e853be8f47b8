package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lomoussw/live-plugin/internal/catalog"
	"github.com/lomoussw/live-plugin/internal/engine"
	"github.com/lomoussw/live-plugin/internal/engine/dispatch"
)

func newWatchCommand(v *viper.Viper) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [plugin-id...]",
		Short: "Run plugins and rerun them when their files change",
		Long: `Run the named plugins (every enabled plugin when none are named), then keep
watching their folders and rerun a plugin whenever its files change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAndSetup(v)
			if err != nil {
				return err
			}

			cat := catalog.New(catalog.WithPaths(cfg.PluginDirs...))
			if err := cat.Discover(); err != nil {
				return err
			}

			ids := args
			if len(ids) == 0 {
				ids = cat.EnabledIDs()
			}
			watched := make(map[string]bool, len(ids))
			for _, id := range ids {
				watched[id] = true
			}

			serial := dispatch.NewSerial(0)
			coord := engine.New(newEngineConfig(cfg, cat, serial.Dispatch))
			coord.Start()
			defer coord.Close()

			coord.RunPlugins(ids, false)

			watcher, err := catalog.NewWatcher(cat, debounce, func(id string) {
				if !watched[id] {
					return
				}
				logrus.WithField("plugin", id).Info("plugin changed, rerunning")
				coord.RunPlugins([]string{id}, false)
			})
			if err != nil {
				return err
			}
			defer watcher.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Blocks until interrupted; plugin bodies run here.
			serial.Run(ctx)
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "time plugin files must settle before a rerun")
	return cmd
}

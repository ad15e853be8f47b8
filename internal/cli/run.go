package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lomoussw/live-plugin/internal/catalog"
	"github.com/lomoussw/live-plugin/internal/engine"
	"github.com/lomoussw/live-plugin/internal/engine/dispatch"
	"github.com/lomoussw/live-plugin/internal/environ"
	"github.com/lomoussw/live-plugin/internal/runner/gorunner"
	"github.com/lomoussw/live-plugin/internal/runner/luarunner"
)

func newRunCommand(v *viper.Viper) *cobra.Command {
	var startup bool

	cmd := &cobra.Command{
		Use:   "run [plugin-id...]",
		Short: "Run plugins once",
		Long: `Run the named plugins in order. With no arguments, runs every enabled
plugin; with --startup, runs the configured startup plugins instead.`,
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
				if startup {
					ids = cfg.StartupPlugins
				} else {
					ids = cat.EnabledIDs()
				}
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no plugins to run")
				return nil
			}

			serial := dispatch.NewSerial(0)
			coord := engine.New(newEngineConfig(cfg, cat, serial.Dispatch))
			coord.Start()
			defer coord.Close()

			done := coord.RunPlugins(ids, startup)
			go func() {
				<-done
				serial.Close()
			}()

			// The calling goroutine is the designated thread plugin
			// bodies run on.
			serial.Run(cmd.Context())
			return nil
		},
	}
	cmd.Flags().BoolVar(&startup, "startup", false, "run the configured startup plugins")
	return cmd
}

// newEngineConfig wires the engine to the CLI host: catalog paths,
// process environment with the liveplugin variables injected, both
// runner variants, and stderr error reports.
func newEngineConfig(cfg Config, cat *catalog.Catalog, dispatchFn dispatch.Func) engine.Config {
	pluginsPath := ""
	if len(cfg.PluginDirs) > 0 {
		pluginsPath = cfg.PluginDirs[0]
	}
	return engine.Config{
		PluginPaths: cat.PathsByID,
		Environment: func() map[string]string {
			return environ.Snapshot(pluginsPath, cfg.LibsDir)
		},
		Runners: []engine.NewRunnerFunc{
			luarunner.New,
			gorunner.New,
		},
		Sink:     ConsoleSink{W: os.Stderr},
		Dispatch: dispatchFn,
	}
}

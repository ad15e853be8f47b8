package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lomoussw/live-plugin/internal/catalog"
)

func newListCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAndSetup(v)
			if err != nil {
				return err
			}

			cat := catalog.New(catalog.WithPaths(cfg.PluginDirs...))
			if err := cat.Discover(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, info := range cat.All() {
				status := ""
				if info.Disabled() {
					status = " (disabled)"
				}
				if info.Err != nil {
					status = " (broken manifest)"
				}
				fmt.Fprintf(out, "%s%s\t%s\n", info.ID, status, info.Path)
				if info.Manifest.Description != "" {
					fmt.Fprintf(out, "\t%s\n", info.Manifest.Description)
				}
			}
			return nil
		},
	}
}

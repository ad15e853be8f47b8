// Command liveplugin runs script plugins from plain folders.
package main

import (
	"os"

	"github.com/lomoussw/live-plugin/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}

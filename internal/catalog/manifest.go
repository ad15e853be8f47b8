package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ManifestFile is the optional metadata file at the root of a plugin
// folder.
const ManifestFile = "plugin.yml"

// Manifest describes a plugin to the catalog. Every field is optional; a
// plugin folder with no manifest gets defaults from its directory name.
type Manifest struct {
	// Name overrides the directory name as the plugin id.
	Name string `yaml:"name"`

	// Description is informational only.
	Description string `yaml:"description"`

	// Disabled excludes the plugin from run-all batches. It can still be
	// run when named explicitly.
	Disabled bool `yaml:"disabled"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

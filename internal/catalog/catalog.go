// Package catalog discovers plugin folders on disk and tracks them by id.
//
// Each immediate subdirectory of a configured plugin path is one plugin.
// The directory name is the plugin id unless a plugin.yml manifest
// overrides it. When several paths contain a plugin with the same id, the
// earlier configured path wins.
package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrNotFound is returned by Get for ids the catalog has not discovered.
var ErrNotFound = errors.New("catalog: plugin not found")

// Info is one discovered plugin.
type Info struct {
	ID       string
	Path     string
	Manifest Manifest

	// Err holds the manifest parse failure, if any. The plugin is still
	// listed; it just carries defaults.
	Err error
}

// Disabled reports whether the manifest excludes this plugin from
// run-all batches.
func (i Info) Disabled() bool { return i.Manifest.Disabled }

// Option configures a Catalog.
type Option func(*Catalog)

// WithPaths sets the directories scanned for plugin folders, in priority
// order.
func WithPaths(paths ...string) Option {
	return func(c *Catalog) {
		c.paths = append([]string(nil), paths...)
	}
}

// Catalog scans plugin paths and answers id lookups. Safe for concurrent
// use; Discover replaces the whole view atomically.
type Catalog struct {
	paths []string

	mu      sync.RWMutex
	plugins map[string]Info
}

// New returns a Catalog. With no options it scans DefaultPluginPaths.
func New(opts ...Option) *Catalog {
	c := &Catalog{plugins: map[string]Info{}}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.paths) == 0 {
		c.paths = DefaultPluginPaths()
	}
	return c
}

// DefaultPluginPaths returns the standard plugin directory under the
// user's home.
func DefaultPluginPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return []string{".live-plugins"}
	}
	return []string{filepath.Join(home, ".live-plugins")}
}

// Paths returns the directories the catalog scans.
func (c *Catalog) Paths() []string {
	return append([]string(nil), c.paths...)
}

// Discover rescans every configured path and replaces the catalog's view.
// Paths that do not exist are skipped silently; a manifest that fails to
// parse leaves the plugin listed under its directory name with the error
// recorded on its Info.
func (c *Catalog) Discover() error {
	found := map[string]Info{}

	for _, root := range c.paths {
		entries, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			info := describe(filepath.Join(root, entry.Name()), entry.Name())
			if _, taken := found[info.ID]; taken {
				continue
			}
			found[info.ID] = info
		}
	}

	c.mu.Lock()
	c.plugins = found
	c.mu.Unlock()
	return nil
}

func describe(dir, defaultID string) Info {
	info := Info{ID: defaultID, Path: dir}

	manifestPath := filepath.Join(dir, ManifestFile)
	if _, err := os.Stat(manifestPath); err != nil {
		return info
	}
	m, err := LoadManifest(manifestPath)
	if err != nil {
		info.Err = err
		return info
	}
	info.Manifest = m
	if m.Name != "" {
		info.ID = m.Name
	}
	return info
}

// Get returns the plugin with the given id.
func (c *Catalog) Get(id string) (Info, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.plugins[id]
	if !ok {
		return Info{}, ErrNotFound
	}
	return info, nil
}

// All returns every discovered plugin sorted by id, disabled ones
// included.
func (c *Catalog) All() []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Info, 0, len(c.plugins))
	for _, info := range c.plugins {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PathsByID returns the id-to-folder mapping for the engine, disabled
// plugins included so they can still be run by name.
func (c *Catalog) PathsByID() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.plugins))
	for id, info := range c.plugins {
		out[id] = info.Path
	}
	return out
}

// EnabledIDs returns the ids of every plugin not marked disabled, sorted.
func (c *Catalog) EnabledIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ids []string
	for id, info := range c.plugins {
		if info.Disabled() {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

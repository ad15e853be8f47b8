// Package loadctx builds the isolated per-run loading context a plugin's
// code and declared dependencies are resolved from.
package loadctx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/unzip"
)

// Context is an isolated module-resolution scope. It owns an ordered list
// of filesystem roots (dependencies first, the plugin's own root last) and
// an optional parent whose roots are consulted after its own. One Context
// is built per plugin run and discarded afterwards; contexts are never
// shared or pooled, so one plugin's dependencies cannot leak into another's
// resolution scope.
type Context struct {
	roots   []string
	parent  *Context
	scratch string
	gopath  string
}

// Build constructs a Context from the resolved classpath additions plus the
// plugin's own root. Paths are normalized: file:// URLs become local paths,
// zip and jar archives are extracted into a private scratch directory,
// plain files contribute their containing directory, and directories are
// used as-is. The plugin root is always appended last so explicit
// dependencies resolve first while plugin-local files stay visible.
//
// Any I/O failure while enumerating or extracting a path aborts the build;
// the caller abandons the run for this plugin only.
func Build(paths []string, pluginRoot string, parent *Context) (*Context, error) {
	c := &Context{parent: parent}
	for _, p := range paths {
		root, err := c.normalize(p)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.roots = append(c.roots, root)
	}
	if pluginRoot != "" {
		c.roots = append(c.roots, localPath(pluginRoot))
	}
	return c, nil
}

func localPath(p string) string {
	return filepath.Clean(strings.TrimPrefix(p, "file://"))
}

func (c *Context) normalize(p string) (string, error) {
	p = localPath(p)

	info, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("enumerating classpath entry %s: %w", p, err)
	}
	if info.IsDir() {
		return p, nil
	}

	switch strings.ToLower(filepath.Ext(p)) {
	case ".zip", ".jar":
		scratch, err := c.scratchDir()
		if err != nil {
			return "", err
		}
		dest := filepath.Join(scratch, strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)))
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return "", fmt.Errorf("extracting classpath entry %s: %w", p, err)
		}
		if err := unzip.Extract(p, dest); err != nil {
			return "", fmt.Errorf("extracting classpath entry %s: %w", p, err)
		}
		return dest, nil
	default:
		// A single script or data file makes its directory resolvable.
		return filepath.Dir(p), nil
	}
}

func (c *Context) scratchDir() (string, error) {
	if c.scratch != "" {
		return c.scratch, nil
	}
	dir, err := os.MkdirTemp("", "live-plugin-ctx-")
	if err != nil {
		return "", err
	}
	c.scratch = dir
	return dir, nil
}

// Roots returns the resolution roots in search order: this context's own
// roots followed by the parent chain's.
func (c *Context) Roots() []string {
	roots := append([]string(nil), c.roots...)
	if c.parent != nil {
		roots = append(roots, c.parent.Roots()...)
	}
	return roots
}

// PluginRoot returns the plugin's own root, the last own entry.
func (c *Context) PluginRoot() string {
	if len(c.roots) == 0 {
		return ""
	}
	return c.roots[len(c.roots)-1]
}

// LuaPath renders the roots as a Lua package.path pattern list.
func (c *Context) LuaPath() string {
	var pats []string
	for _, root := range c.Roots() {
		pats = append(pats,
			filepath.Join(root, "?.lua"),
			filepath.Join(root, "?", "init.lua"))
	}
	return strings.Join(pats, ";")
}

// GoPath materializes a private GOPATH whose src directory links every root
// by base name, for interpreters that resolve imports GOPATH-style. When
// two roots share a base name the earlier one wins. Built lazily; repeated
// calls return the same directory.
func (c *Context) GoPath() (string, error) {
	if c.gopath != "" {
		return c.gopath, nil
	}

	scratch, err := c.scratchDir()
	if err != nil {
		return "", err
	}
	gopath := filepath.Join(scratch, "gopath")
	src := filepath.Join(gopath, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		return "", err
	}

	for _, root := range c.Roots() {
		link := filepath.Join(src, filepath.Base(root))
		if _, err := os.Lstat(link); err == nil {
			continue
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return "", err
		}
		if err := os.Symlink(abs, link); err != nil {
			return "", fmt.Errorf("linking %s into loading context: %w", root, err)
		}
	}

	c.gopath = gopath
	return gopath, nil
}

// Close releases the scratch directory holding extracted archives and any
// materialized GOPATH. The context must not be used afterwards.
func (c *Context) Close() error {
	if c.scratch == "" {
		return nil
	}
	err := os.RemoveAll(c.scratch)
	c.scratch = ""
	c.gopath = ""
	return err
}

// Package environ builds the read-only environment snapshot exposed to
// classpath directives in plugin entry scripts.
package environ

import (
	"os"
	"strings"
)

// Keys injected by the host on top of the process environment.
const (
	// KeyPluginsPath points at the host-managed plugin storage directory.
	KeyPluginsPath = "LIVE_PLUGINS_PATH"

	// KeyLibsPath points at the host-managed library directory.
	KeyLibsPath = "LIVE_PLUGINS_LIBS"

	// KeyThisScript identifies the entry script currently being loaded.
	KeyThisScript = "THIS_SCRIPT"
)

// Snapshot returns the process environment plus the host-injected entries.
// The returned map is owned by the caller; the engine never mutates a
// snapshot after handing it to a plugin run.
func Snapshot(pluginsPath, libsPath string) map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	if pluginsPath != "" {
		env[KeyPluginsPath] = pluginsPath
	}
	if libsPath != "" {
		env[KeyLibsPath] = libsPath
	}
	return env
}

// WithScript copies env and records scriptPath under KeyThisScript. The
// input map is left untouched so one snapshot can serve a whole batch.
func WithScript(env map[string]string, scriptPath string) map[string]string {
	out := make(map[string]string, len(env)+1)
	for k, v := range env {
		out[k] = v
	}
	out[KeyThisScript] = scriptPath
	return out
}

package engine

import "github.com/lomoussw/live-plugin/internal/engine/dispatch"

// Binding holds the values the host exposes to a plugin script. Keys are
// the names the script sees; runners translate values into their
// language's types.
type Binding map[string]any

// Well-known binding keys. Every runner provides at least these.
const (
	BindingPluginPath = "pluginPath"
	BindingIsStartup  = "isStartup"
	BindingHost       = "host"
)

// Descriptor identifies one plugin within a batch.
type Descriptor struct {
	ID   string
	Path string
}

// Runner executes plugins written in one scripting language. Exactly one
// runner claims any given plugin folder, decided by CanRun.
//
// Run never returns an error: implementations record all failures on the
// Reporter they were constructed with, under pluginID, so a broken plugin
// does not interrupt the rest of the batch. The load phase (locating,
// classpath resolution, compilation) happens on the calling goroutine;
// the script body is executed through run, which marshals it onto the
// host's designated goroutine and blocks until it finishes.
type Runner interface {
	// Name identifies the runner in "no runner found" reports.
	Name() string

	// CanRun reports whether the folder at pluginPath contains this
	// runner's entry script. Presence alone claims the folder; Run
	// enforces that the match is unique and reports an ambiguity
	// instead of silently picking one file.
	CanRun(pluginPath string) bool

	// Run loads and executes the plugin rooted at pluginPath.
	Run(pluginPath, pluginID string, binding Binding, run dispatch.Func)
}

// NewRunnerFunc constructs a runner bound to one batch's reporter and
// environment snapshot. The coordinator calls every factory at the start
// of each batch so runners never share state across batches.
type NewRunnerFunc func(report *Reporter, env map[string]string) Runner

// Package luarunner executes plugins written in Lua on an embedded
// gopher-lua interpreter.
//
// A Lua plugin is a folder containing plugin.lua. The script is compiled
// on the batch worker; its body runs on the host's designated goroutine
// through the dispatch function, with the host binding installed as
// globals and package.path derived from the plugin's loading context.
package luarunner

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/lomoussw/live-plugin/internal/engine"
	"github.com/lomoussw/live-plugin/internal/engine/classpath"
	"github.com/lomoussw/live-plugin/internal/engine/dispatch"
	"github.com/lomoussw/live-plugin/internal/engine/loadctx"
	"github.com/lomoussw/live-plugin/internal/environ"
	"github.com/lomoussw/live-plugin/internal/fsutil"
)

// EntryScript is the fixed name of a Lua plugin's entry point.
const EntryScript = "plugin.lua"

// marker is the full directive prefix for Lua scripts.
const marker = "-- " + classpath.Keyword

// Runner executes Lua plugins. Construct one per batch with New.
type Runner struct {
	report *engine.Reporter
	env    map[string]string
	log    *logrus.Logger
}

// New is the engine.NewRunnerFunc for Lua plugins.
func New(report *engine.Reporter, env map[string]string) engine.Runner {
	return &Runner{report: report, env: env, log: logrus.StandardLogger()}
}

// Name identifies the runner in error reports.
func (r *Runner) Name() string { return "LuaPluginRunner" }

// CanRun reports whether the folder contains plugin.lua anywhere in its
// tree. Presence is enough to claim the folder; Run requires the match to
// be unique and reports an ambiguity itself.
func (r *Runner) CanRun(pluginPath string) bool {
	matches, err := fsutil.FilesNamed(pluginPath, EntryScript)
	return err == nil && len(matches) > 0
}

// Run loads and executes the plugin rooted at pluginPath. All failures
// are recorded on the reporter under pluginID; Run itself never fails.
func (r *Runner) Run(pluginPath, pluginID string, binding engine.Binding, run dispatch.Func) {
	script, err := fsutil.FindSingleFile(pluginPath, EntryScript)
	if err != nil {
		if errors.Is(err, fsutil.ErrMultipleFound) {
			r.report.AddLoadingFailure(pluginID, "found several entry scripts", err)
		} else {
			r.report.AddLoadingError(pluginID, EntryScript+" was not found in "+pluginPath)
		}
		return
	}

	src, err := os.ReadFile(script)
	if err != nil {
		r.report.AddLoadingFailure(pluginID, "couldn't read "+script, err)
		return
	}

	env := environ.WithScript(r.env, script)
	additions := classpath.Additions(string(src), marker, env, func(path string) {
		r.report.AddLoadingError(pluginID, fmt.Sprintf("couldn't find dependency '%s'", path))
	})
	if len(additions) > 0 {
		r.log.WithFields(logrus.Fields{"plugin": pluginID, "classpath": additions}).Debug("resolved classpath additions")
	}

	ctx, err := loadctx.Build(additions, pluginPath, nil)
	if err != nil {
		r.report.AddLoadingFailure(pluginID, "couldn't build loading context", err)
		return
	}
	defer func() {
		if err := ctx.Close(); err != nil {
			r.log.WithError(err).WithField("plugin", pluginID).Warn("couldn't clean up loading context")
		}
	}()

	L := newState(ctx)
	defer L.Close()

	fn, err := L.LoadFile(script)
	if err != nil {
		r.report.AddLoadingFailure(pluginID, "couldn't compile "+script, err)
		return
	}
	installBinding(L, binding)

	if err := run(func() error { return callCompiled(L, fn) }); err != nil {
		r.report.AddRunningError(pluginID, err)
	}
}

// callCompiled runs the compiled chunk, converting interpreter panics
// into errors so they land in the report instead of killing the host.
func callCompiled(L *lua.LState, fn *lua.LFunction) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	L.Push(fn)
	return L.PCall(0, lua.MultRet, nil)
}

// installBinding exposes every binding entry as a Lua global.
func installBinding(L *lua.LState, binding engine.Binding) {
	for key, value := range binding {
		L.SetGlobal(key, toLua(L, value))
	}
}

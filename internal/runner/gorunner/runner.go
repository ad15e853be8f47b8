// Package gorunner executes plugins written in Go source, interpreted by
// yaegi.
//
// A Go plugin is a folder containing plugin.go, written REPL-style
// without a package clause. Top-level declarations are compiled on the
// batch worker; the program (and its Run function, if one is declared)
// executes on the host's designated goroutine. The host binding is
// importable as the "liveplugin" package, and add-to-classpath folders
// become GOPATH roots so plugins can import packages shipped next to
// them.
package gorunner

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/lomoussw/live-plugin/internal/engine"
	"github.com/lomoussw/live-plugin/internal/engine/classpath"
	"github.com/lomoussw/live-plugin/internal/engine/dispatch"
	"github.com/lomoussw/live-plugin/internal/engine/loadctx"
	"github.com/lomoussw/live-plugin/internal/environ"
	"github.com/lomoussw/live-plugin/internal/fsutil"
)

// EntryScript is the fixed name of a Go plugin's entry point.
const EntryScript = "plugin.go"

// marker is the full directive prefix for Go scripts.
const marker = "// " + classpath.Keyword

// bindingImport is the package path scripts import to reach the host
// binding.
const bindingImport = "liveplugin"

// Runner executes Go plugins. Construct one per batch with New.
type Runner struct {
	report *engine.Reporter
	env    map[string]string
	log    *logrus.Logger
}

// New is the engine.NewRunnerFunc for Go plugins.
func New(report *engine.Reporter, env map[string]string) engine.Runner {
	return &Runner{report: report, env: env, log: logrus.StandardLogger()}
}

// Name identifies the runner in error reports.
func (r *Runner) Name() string { return "GoPluginRunner" }

// CanRun reports whether the folder contains plugin.go anywhere in its
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

	gopath, err := ctx.GoPath()
	if err != nil {
		r.report.AddLoadingFailure(pluginID, "couldn't build loading context", err)
		return
	}

	i := interp.New(interp.Options{GoPath: gopath})
	if err := i.Use(stdlib.Symbols); err != nil {
		r.report.AddLoadingFailure(pluginID, "couldn't initialize interpreter", err)
		return
	}
	if err := i.Use(bindingExports(binding)); err != nil {
		r.report.AddLoadingFailure(pluginID, "couldn't install host binding", err)
		return
	}

	prog, err := i.Compile(string(src))
	if err != nil {
		r.report.AddLoadingFailure(pluginID, "couldn't compile "+script, err)
		return
	}

	if err := run(func() error { return execute(i, prog) }); err != nil {
		r.report.AddRunningError(pluginID, err)
	}
}

// execute runs the compiled program, then its Run function when one is
// declared. Interpreter panics become errors so they land in the report
// instead of killing the host.
func execute(i *interp.Interpreter, prog *interp.Program) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("plugin panic: %v", rec)
		}
	}()

	if _, err = i.Execute(prog); err != nil {
		return err
	}
	if _, lookErr := i.Eval("Run"); lookErr != nil {
		// No entry function declared; the program body was the plugin.
		return nil
	}
	_, err = i.Eval("Run()")
	return err
}

// bindingExports packages the host binding as an importable interpreter
// package. Binding keys become exported identifiers; the whole map is also
// available as liveplugin.Binding.
func bindingExports(binding engine.Binding) interp.Exports {
	symbols := make(map[string]reflect.Value, len(binding)+1)
	for key, value := range binding {
		if value == nil {
			continue
		}
		symbols[exportedName(key)] = reflect.ValueOf(value)
	}
	symbols["Binding"] = reflect.ValueOf(map[string]any(binding))
	return interp.Exports{bindingImport + "/" + bindingImport: symbols}
}

func exportedName(key string) string {
	return strings.ToUpper(key[:1]) + key[1:]
}

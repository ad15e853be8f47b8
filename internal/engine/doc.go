// Package engine coordinates the execution of script plugins.
//
// A plugin is a directory tree with one fixed-name entry script. The host
// hands the engine a batch of plugin ids; for each id the engine selects
// the runner variant that owns the folder, resolves add-to-classpath
// directives from the entry script, builds an isolated loading context,
// compiles the script on the background worker, and executes the script
// body on the host's designated goroutine through a dispatch.Func.
//
// Failures never propagate: every error is recorded on a per-batch
// Reporter under its plugin id and flushed to the host's Sink after each
// plugin, so one broken plugin cannot stop the ones after it.
//
// Batches run strictly one at a time on a single background worker; a
// second RunPlugins call queues behind the first.
package engine

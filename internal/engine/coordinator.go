package engine

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lomoussw/live-plugin/internal/engine/dispatch"
)

// Config wires a Coordinator to its host.
type Config struct {
	// PluginPaths returns the current id-to-folder mapping. It is called
	// once per batch so registrations made between batches are seen.
	PluginPaths func() map[string]string

	// Environment returns the environment snapshot handed to runners.
	// It is called once per batch.
	Environment func() map[string]string

	// Runners are the factories for every supported language, in the
	// order they are asked to claim a plugin folder.
	Runners []NewRunnerFunc

	// Sink receives flushed error reports. If nil, reports go to the
	// logger.
	Sink Sink

	// Dispatch marshals script bodies onto the host's designated
	// goroutine. Required.
	Dispatch dispatch.Func

	// Host is exposed to scripts under the "host" binding key. May be nil.
	Host any

	// Logger defaults to logrus.StandardLogger.
	Logger *logrus.Logger
}

type batch struct {
	ids     []string
	startup bool
	done    chan struct{}
}

// Coordinator runs plugin batches strictly in FIFO order on a single
// background worker goroutine.
type Coordinator struct {
	cfg   Config
	queue chan batch

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New returns a Coordinator for cfg. Call Start before RunPlugins.
func New(cfg Config) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Sink == nil {
		log := cfg.Logger
		cfg.Sink = SinkFunc(func(title, message string) {
			log.WithField("plugin", title).Error(message)
		})
	}
	return &Coordinator{
		cfg:   cfg,
		queue: make(chan batch, 64),
	}
}

// Start launches the background worker.
func (c *Coordinator) Start() {
	c.wg.Add(1)
	go c.worker()
}

// RunPlugins queues one batch. The returned channel is closed when every
// plugin in the batch has finished (successfully or not). After Close the
// channel is returned already closed and nothing runs.
func (c *Coordinator) RunPlugins(ids []string, startup bool) <-chan struct{} {
	done := make(chan struct{})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.cfg.Logger.WithError(ErrClosed).Warn("plugin batch rejected")
		close(done)
		return done
	}
	c.queue <- batch{ids: ids, startup: startup, done: done}
	c.mu.Unlock()

	return done
}

// Close stops accepting new batches, lets the worker finish everything
// already queued, and waits for it to exit.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Coordinator) worker() {
	defer c.wg.Done()
	for b := range c.queue {
		c.runBatch(b)
		close(b.done)
	}
}

// runBatch executes one batch with a fresh reporter and fresh runners.
// The reporter is flushed after every plugin so reports for plugin k
// appear before plugin k+1 starts.
func (c *Coordinator) runBatch(b batch) {
	report := NewReporter()

	var env map[string]string
	if c.cfg.Environment != nil {
		env = c.cfg.Environment()
	}
	runners := make([]Runner, 0, len(c.cfg.Runners))
	for _, newRunner := range c.cfg.Runners {
		runners = append(runners, newRunner(report, env))
	}

	var paths map[string]string
	if c.cfg.PluginPaths != nil {
		paths = c.cfg.PluginPaths()
	}

	for _, id := range b.ids {
		c.cfg.Logger.WithField("plugin", id).Debug("running plugin")
		c.runOne(Descriptor{ID: id, Path: paths[id]}, b.startup, runners, report)
		report.Flush(c.cfg.Sink)
	}
}

func (c *Coordinator) runOne(d Descriptor, startup bool, runners []Runner, report *Reporter) {
	if d.Path == "" {
		report.AddLoadingFailure(d.ID, "no plugin folder is registered for this id", ErrUnknownPlugin)
		return
	}

	runner := selectRunner(runners, d.Path)
	if runner == nil {
		names := make([]string, len(runners))
		for i, r := range runners {
			names[i] = r.Name()
		}
		report.AddLoadingFailure(d.ID, "no entry script was found; tried: "+strings.Join(names, ", "), ErrNoRunner)
		return
	}

	binding := Binding{
		BindingPluginPath: d.Path,
		BindingIsStartup:  startup,
		BindingHost:       c.cfg.Host,
	}
	runner.Run(d.Path, d.ID, binding, c.cfg.Dispatch)
}

func selectRunner(runners []Runner, path string) Runner {
	for _, r := range runners {
		if r.CanRun(path) {
			return r
		}
	}
	return nil
}

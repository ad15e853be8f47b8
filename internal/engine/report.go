package engine

import (
	"fmt"
	"strings"
	"sync"
)

// Phase marks which stage of plugin execution an error belongs to.
type Phase int

const (
	// PhaseLoading covers everything before the script body runs:
	// locating the entry script, resolving classpath directives,
	// building the loading context, and compiling the script.
	PhaseLoading Phase = iota

	// PhaseRunning covers failures raised by the script body itself.
	PhaseRunning
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseRunning:
		return "running"
	default:
		return "unknown"
	}
}

// ExecutionError is a single failure recorded against a plugin.
type ExecutionError struct {
	PluginID string
	Phase    Phase
	Message  string
	Cause    error
}

// Line renders the error as one line of the flushed report.
func (e ExecutionError) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Phase, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Sink receives flushed error reports. The host decides how to surface
// them; the CLI prints to stderr, tests capture them in memory.
type Sink interface {
	Display(title, message string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(title, message string)

// Display calls f.
func (f SinkFunc) Display(title, message string) { f(title, message) }

// Reporter accumulates execution errors for one batch. Runners record
// into it from whichever goroutine they fail on; the coordinator flushes
// it after each plugin so reports appear as soon as a plugin finishes.
type Reporter struct {
	mu      sync.Mutex
	records []ExecutionError
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// AddLoadingError records a loading-phase failure with no underlying cause.
func (r *Reporter) AddLoadingError(pluginID, message string) {
	r.add(ExecutionError{PluginID: pluginID, Phase: PhaseLoading, Message: message})
}

// AddLoadingFailure records a loading-phase failure wrapping its cause.
func (r *Reporter) AddLoadingFailure(pluginID, message string, cause error) {
	r.add(ExecutionError{PluginID: pluginID, Phase: PhaseLoading, Message: message, Cause: cause})
}

// AddRunningError records a failure raised by the plugin's script body.
func (r *Reporter) AddRunningError(pluginID string, err error) {
	r.add(ExecutionError{PluginID: pluginID, Phase: PhaseRunning, Message: "plugin execution failed", Cause: err})
}

func (r *Reporter) add(e ExecutionError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, e)
}

// Errors returns a copy of the recorded errors in insertion order.
func (r *Reporter) Errors() []ExecutionError {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ExecutionError, len(r.records))
	copy(out, r.records)
	return out
}

// Flush groups recorded errors by plugin id, calls sink.Display once per
// id in first-appearance order, and clears the reporter. Flushing an
// empty reporter does nothing, so calling it repeatedly is safe.
func (r *Reporter) Flush(sink Sink) {
	r.mu.Lock()
	records := r.records
	r.records = nil
	r.mu.Unlock()

	if len(records) == 0 || sink == nil {
		return
	}

	order := make([]string, 0, len(records))
	grouped := make(map[string][]string)
	for _, rec := range records {
		if _, seen := grouped[rec.PluginID]; !seen {
			order = append(order, rec.PluginID)
		}
		grouped[rec.PluginID] = append(grouped[rec.PluginID], rec.Line())
	}
	for _, id := range order {
		sink.Display(id, strings.Join(grouped[id], "\n"))
	}
}

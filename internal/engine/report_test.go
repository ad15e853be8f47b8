package engine

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

type memorySink struct {
	mu      sync.Mutex
	reports []sinkReport
}

type sinkReport struct {
	title   string
	message string
}

func (s *memorySink) Display(title, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, sinkReport{title: title, message: message})
}

func (s *memorySink) all() []sinkReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sinkReport, len(s.reports))
	copy(out, s.reports)
	return out
}

func TestReporterRecordsInOrder(t *testing.T) {
	r := NewReporter()
	r.AddLoadingError("a", "first")
	r.AddRunningError("b", errors.New("second"))
	r.AddLoadingFailure("a", "third", errors.New("cause"))

	errs := r.Errors()
	if len(errs) != 3 {
		t.Fatalf("Errors() returned %d records, want 3", len(errs))
	}
	if errs[0].PluginID != "a" || errs[0].Phase != PhaseLoading {
		t.Errorf("first record = %+v, want loading error for a", errs[0])
	}
	if errs[1].PluginID != "b" || errs[1].Phase != PhaseRunning {
		t.Errorf("second record = %+v, want running error for b", errs[1])
	}
	if errs[2].Cause == nil {
		t.Error("third record lost its cause")
	}
}

func TestExecutionErrorLine(t *testing.T) {
	tests := []struct {
		name string
		err  ExecutionError
		want string
	}{
		{
			name: "message only",
			err:  ExecutionError{Phase: PhaseLoading, Message: "script not found"},
			want: "[loading] script not found",
		},
		{
			name: "with cause",
			err:  ExecutionError{Phase: PhaseRunning, Message: "plugin execution failed", Cause: errors.New("boom")},
			want: "[running] plugin execution failed: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Line(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReporterFlushGroupsByPlugin(t *testing.T) {
	r := NewReporter()
	r.AddLoadingError("a", "one")
	r.AddLoadingError("b", "two")
	r.AddLoadingError("a", "three")

	sink := &memorySink{}
	r.Flush(sink)

	reports := sink.all()
	if len(reports) != 2 {
		t.Fatalf("Flush produced %d reports, want 2", len(reports))
	}
	if reports[0].title != "a" || reports[1].title != "b" {
		t.Errorf("report order = %q, %q; want a then b", reports[0].title, reports[1].title)
	}
	lines := strings.Split(reports[0].message, "\n")
	if len(lines) != 2 {
		t.Errorf("plugin a report has %d lines, want 2: %q", len(lines), reports[0].message)
	}
}

func TestReporterFlushClears(t *testing.T) {
	r := NewReporter()
	r.AddLoadingError("a", "one")

	sink := &memorySink{}
	r.Flush(sink)
	r.Flush(sink)

	if got := len(sink.all()); got != 1 {
		t.Errorf("second Flush produced reports, total %d, want 1", got)
	}
	if got := len(r.Errors()); got != 0 {
		t.Errorf("reporter still holds %d records after Flush", got)
	}
}

func TestReporterFlushEmptyIsNoop(t *testing.T) {
	sink := &memorySink{}
	NewReporter().Flush(sink)
	if got := len(sink.all()); got != 0 {
		t.Errorf("flushing empty reporter produced %d reports", got)
	}
}

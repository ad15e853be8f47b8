package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// startSerial runs the dispatcher on its own goroutine and returns a stop
// function that blocks until the loop has exited.
func startSerial(t *testing.T, s *Serial) func() {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(context.Background())
	}()
	return func() {
		s.Close()
		<-done
	}
}

func TestDispatchRunsTask(t *testing.T) {
	s := NewSerial(0)
	stop := startSerial(t, s)
	defer stop()

	ran := false
	if err := s.Dispatch(func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !ran {
		t.Error("Dispatch() returned before the task ran")
	}
}

func TestDispatchReturnsTaskError(t *testing.T) {
	s := NewSerial(0)
	stop := startSerial(t, s)
	defer stop()

	want := errors.New("boom")
	if err := s.Dispatch(func() error { return want }); !errors.Is(err, want) {
		t.Errorf("Dispatch() error = %v, want %v", err, want)
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	s := NewSerial(0)
	stop := startSerial(t, s)
	defer stop()

	err := s.Dispatch(func() error { panic("kaboom") })
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("Dispatch() error = %v, want recovered panic", err)
	}
}

func TestDispatchRunsOnDesignatedGoroutine(t *testing.T) {
	s := NewSerial(0)
	stop := startSerial(t, s)
	defer stop()

	// Tasks from many goroutines are serialized; unsynchronized writes to
	// shared state are safe because only the Run goroutine executes them.
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Dispatch(func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	if counter != 10 {
		t.Errorf("counter = %d, want 10", counter)
	}
}

func TestDispatchAfterClose(t *testing.T) {
	s := NewSerial(0)
	stop := startSerial(t, s)
	stop()

	if err := s.Dispatch(func() error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Dispatch() after Close error = %v, want ErrClosed", err)
	}
}

func TestCloseDrainsQueuedTasks(t *testing.T) {
	s := NewSerial(4)

	// No Run loop yet: the task sits in the queue.
	result := make(chan error, 1)
	go func() {
		result <- s.Dispatch(func() error { return nil })
	}()

	// Give the goroutine time to enqueue, then run a loop that is closed
	// immediately so it drains instead of executing.
	time.Sleep(20 * time.Millisecond)
	s.Close()
	s.Run(context.Background())

	select {
	case err := <-result:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("queued Dispatch() error = %v, want ErrClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("queued Dispatch() never returned")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := NewSerial(0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop on context cancel")
	}
}

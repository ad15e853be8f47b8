package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher reruns plugins when their files change on disk. Events inside
// one plugin folder are debounced so a burst of writes (editor save,
// build output) produces one rerun.
type Watcher struct {
	catalog  *Catalog
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange func(pluginID string)
	log      *logrus.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool

	done chan struct{}
}

// NewWatcher watches every plugin folder known to the catalog and calls
// onChange with the plugin id after its files settle for the debounce
// interval. Each callback fires on its own timer goroutine, so when
// several plugins change at once onChange must be safe to call
// concurrently.
func NewWatcher(c *Catalog, debounce time.Duration, onChange func(pluginID string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		catalog:  c,
		fsw:      fsw,
		debounce: debounce,
		onChange: onChange,
		log:      logrus.StandardLogger(),
		timers:   map[string]*time.Timer{},
		done:     make(chan struct{}),
	}

	for _, info := range c.All() {
		if err := w.addRecursive(info.Path); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	go w.loop()
	return w, nil
}

// addRecursive watches dir and every subdirectory under it.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("plugin watcher error")
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	// New directories need their own watch for events inside them.
	if event.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.log.WithError(err).WithField("dir", event.Name).Warn("couldn't watch new directory")
			}
		}
	}

	id, ok := w.pluginFor(event.Name)
	if !ok {
		return
	}
	w.schedule(id)
}

// pluginFor maps a changed file to the plugin whose folder contains it.
func (w *Watcher) pluginFor(path string) (string, bool) {
	for _, info := range w.catalog.All() {
		if path == info.Path || strings.HasPrefix(path, info.Path+string(filepath.Separator)) {
			return info.ID, true
		}
	}
	return "", false
}

// schedule arms (or re-arms) the debounce timer for one plugin.
func (w *Watcher) schedule(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if timer, ok := w.timers[id]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.timers[id] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, id)
		closed := w.closed
		w.mu.Unlock()
		if !closed {
			w.onChange(id)
		}
	})
}

// Close stops watching and cancels pending debounce timers.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for id, timer := range w.timers {
		timer.Stop()
		delete(w.timers, id)
	}
	w.mu.Unlock()

	close(w.done)
	return w.fsw.Close()
}

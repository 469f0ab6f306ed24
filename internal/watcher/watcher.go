// Package watcher reloads the console configuration when the file changes on
// disk, reporting redacted diffs and handing the new config to the service.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nghyane/mux-console/internal/config"
	log "github.com/nghyane/mux-console/internal/logging"
)

const debounceInterval = 100 * time.Millisecond

// ReloadFunc receives the freshly loaded config and the redacted change list.
// It runs on the watcher goroutine; implementations should hand work off if
// they block.
type ReloadFunc func(cfg *config.Config, changes []string)

// Watcher watches a config file and reloads it on external edits.
// Rapid write bursts from editors and atomic renames collapse into one reload.
type Watcher struct {
	path     string
	onReload ReloadFunc

	mu            sync.Mutex
	current       *config.Config
	digest        string
	debounceTimer *time.Timer

	fw       *fsnotify.Watcher
	stopChan chan struct{}
}

// New creates a watcher for the config file at path.
// current is the config the service booted with; diffs run against it.
func New(path string, current *config.Config, onReload ReloadFunc) *Watcher {
	return &Watcher{
		path:     path,
		current:  current,
		digest:   configDigest(current),
		onReload: onReload,
		stopChan: make(chan struct{}),
	}
}

// Start begins watching. The parent directory is watched rather than the file
// itself so replacement saves (write to temp, rename over) stay observed.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return err
	}
	w.fw = fw
	go w.watchLoop()
	log.Debugf("watching config file: %s", w.path)
	return nil
}

// Stop ends watching and releases the notify handle.
func (w *Watcher) Stop() {
	close(w.stopChan)
	if w.fw != nil {
		_ = w.fw.Close()
	}
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			if w.debounceTimer != nil {
				w.debounceTimer.Stop()
			}
			w.debounceTimer = time.AfterFunc(debounceInterval, w.reload)
			w.mu.Unlock()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Warnf("config watcher error: %v", err)

		case <-w.stopChan:
			return
		}
	}
}

// reload parses the changed file and notifies the callback. A failed parse
// keeps the previous config so a half-saved file cannot take the console down.
func (w *Watcher) reload() {
	cfg, err := config.LoadConfig(w.path)
	if err != nil {
		log.Warnf("config reload failed, keeping previous config: %v", err)
		return
	}

	w.mu.Lock()
	old := w.current
	newDigest := configDigest(cfg)
	if newDigest != "" && newDigest == w.digest {
		w.mu.Unlock()
		log.Debugf("config file rewritten without changes")
		return
	}
	w.current = cfg
	w.digest = newDigest
	w.mu.Unlock()

	// An empty change list with a new digest means only redacted fields
	// moved, e.g. a token rotation. The callback still runs.
	changes := buildConfigChangeDetails(old, cfg)
	log.Infof("config reloaded: %s", w.path)
	for _, change := range changes {
		log.Infof("  %s", change)
	}

	if w.onReload != nil {
		w.onReload(cfg, changes)
	}
}

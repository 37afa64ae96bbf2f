package assets

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// Reloadable is anything whose files can be watched for hot reload.
// Catalog implements it.
type Reloadable interface {
	WatchedPaths() []string
	ReloadPath(path string) int
}

// Watcher reloads catalog records when their files change on disk.
type Watcher struct {
	logger core.Logger
	bus    *core.EventBus

	mutex    sync.RWMutex
	targets  []Reloadable
	dirs     map[string]struct{}
	isClosed bool

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewWatcher starts watching. bus may be nil; when set, change and
// removal events are fired on it.
func NewWatcher(bus *core.EventBus, opts ...Option) (*Watcher, error) {
	o := newOptions(opts...)
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		logger:   o.logger,
		bus:      bus,
		dirs:     make(map[string]struct{}),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.start()
	return w, nil
}

// Add starts watching the directories holding the files of r. A
// directory that cannot be watched is logged and skipped; the files in
// the other directories still reload.
func (w *Watcher) Add(r Reloadable) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.isClosed {
		return errors.New("watcher already closed")
	}
	for _, p := range r.WatchedPaths() {
		dir := filepath.Dir(absPath(p))
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.fsnotify.Add(dir); err != nil {
			w.logger.Warnf("cannot watch '%s' for '%s': %s", dir, p, err)
			continue
		}
		w.dirs[dir] = struct{}{}
	}
	w.targets = append(w.targets, r)
	return nil
}

// Close stops the watch loop. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return nil
	}
	w.isClosed = true
	w.mutex.Unlock()

	close(w.done)
	w.wg.Wait()
	return w.fsnotify.Close()
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			w.handleEvent(e)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("asset watcher: %s", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(e fsnotify.Event) {
	path := absPath(e.Name)
	switch {
	case e.Has(fsnotify.Create) || e.Has(fsnotify.Write):
		w.mutex.RLock()
		targets := append([]Reloadable(nil), w.targets...)
		w.mutex.RUnlock()

		started := 0
		for _, t := range targets {
			started += t.ReloadPath(path)
		}
		if started > 0 {
			w.logger.Infof("'%s' changed, %d asset(s) reloading", path, started)
			w.fire(core.EVENT_CODE_ASSET_CHANGED, path)
		}

	// Can't stat a deleted file; the record keeps its last payload.
	case e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename):
		if w.isWatched(path) {
			w.logger.Warnf("watched asset '%s' was removed", path)
			w.fire(core.EVENT_CODE_ASSET_REMOVED, path)
		}
	}
}

func (w *Watcher) isWatched(path string) bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	for _, t := range w.targets {
		for _, p := range t.WatchedPaths() {
			if absPath(p) == path {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) fire(code core.SystemEventCode, path string) {
	if w.bus == nil {
		return
	}
	w.bus.Fire(code, w, core.EventContext{Path: path})
}

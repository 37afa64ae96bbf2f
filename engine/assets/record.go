package assets

import (
	"fmt"
	"os"
	"sync"
	"time"

	units "github.com/docker/go-units"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// Loader parses the file at path into a payload of type T.
// On error the returned value is stored as the payload, so loaders
// should return the zero value.
type Loader[T any] interface {
	Load(path string) (T, error)
}

// LoaderFunc adapts a plain function to a Loader.
type LoaderFunc[T any] func(path string) (T, error)

func (f LoaderFunc[T]) Load(path string) (T, error) {
	return f(path)
}

// Cloner is implemented by payloads that hold references and need a
// deep copy in CopyPayload.
type Cloner[T any] interface {
	Clone() T
}

// RecordStatus is a point in time view of a record's lifecycle flags.
type RecordStatus struct {
	Path        string
	Started     bool
	Loaded      bool
	Succeeded   bool
	Consumed    bool
	InFlight    bool
	Generation  uint32
	LastLoad    time.Time
	LastElapsed time.Duration
	Err         error
}

// Record owns one asset payload and drives its loading.
type Record[T any] struct {
	path     string
	loader   Loader[T]
	logger   core.Logger
	metrics  *core.Metrics
	task     *Task
	loadLock sync.Mutex

	mu          sync.RWMutex
	payload     T
	started     bool
	loading     bool
	succeeded   bool
	consumed    bool
	generation  uint32
	lastErr     error
	lastLoad    time.Time
	lastElapsed time.Duration
}

// NewRecord creates a record for path. Nothing is loaded yet.
func NewRecord[T any](path string, loader Loader[T], opts ...Option) *Record[T] {
	o := newOptions(opts...)
	return newRecord(path, loader, o)
}

func newRecord[T any](path string, loader Loader[T], o options) *Record[T] {
	return &Record[T]{
		path:    path,
		loader:  loader,
		logger:  o.logger,
		metrics: o.metrics,
		task:    newTask(o.executor, o.logger),
	}
}

// Load runs the loader on the calling goroutine and reports whether it
// succeeded. A background load in flight is waited for first.
func (r *Record[T]) Load() bool {
	r.loadLock.Lock()
	defer r.loadLock.Unlock()

	r.mu.Lock()
	r.started = true
	r.loading = true
	r.mu.Unlock()

	clock := core.NewClock()
	clock.Start()
	payload, err := r.invoke()
	clock.Stop()

	r.mu.Lock()
	r.payload = payload
	r.succeeded = err == nil
	r.lastErr = err
	r.lastLoad = time.Now()
	r.lastElapsed = clock.Elapsed()
	if err == nil {
		r.generation++
	}
	r.loading = false
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.Update(clock.Elapsed(), err == nil)
	}
	if err != nil {
		r.logger.Warnf("failed to load asset '%s': %s", r.path, err)
		return false
	}
	r.logger.Debugf("loaded asset '%s'%s in %s", r.path, r.sizeSuffix(), clock.Elapsed())
	return true
}

func (r *Record[T]) invoke() (payload T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			payload = zero
			err = fmt.Errorf("loader panicked: %v", rec)
		}
	}()
	if r.loader == nil {
		return payload, fmt.Errorf("no loader for '%s'", r.path)
	}
	return r.loader.Load(r.path)
}

func (r *Record[T]) sizeSuffix() string {
	info, err := os.Stat(r.path)
	if err != nil || info.IsDir() {
		return ""
	}
	return fmt.Sprintf(" (%s)", units.HumanSize(float64(info.Size())))
}

// AsyncLoad starts Load on a background task and returns true if it did.
//
// It does nothing while a task is still running. Otherwise a task is
// started only for the very first load attempt of this record, or when
// force is true: a record that already attempted a load (synchronously or
// not) is NOT reloaded by a bare AsyncLoad(false). Pass force to refresh.
func (r *Record[T]) AsyncLoad(force bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.task.IsFinished() {
		return false
	}
	if r.started && !force {
		return false
	}
	if _, err := r.task.Start(func() { r.Load() }); err != nil {
		r.logger.Errorf("async load of '%s': %s", r.path, err)
		return false
	}
	return true
}

func (r *Record[T]) isLoadedLocked() bool {
	return r.started && !r.loading && r.task.IsFinished()
}

// IsLoaded is true once a load attempt completed and none is in flight.
// The payload is safe to read when it returns true.
func (r *Record[T]) IsLoaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isLoadedLocked()
}

// IsLoadSucceeded reports the outcome of the last attempt. False before
// any attempt.
func (r *Record[T]) IsLoadSucceeded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.succeeded
}

// IsLoadedOnlyOnce returns true the first time it is called after the
// record became loaded, and false on every later call until
// ResetLoadedOnlyOnce re-arms it.
func (r *Record[T]) IsLoadedOnlyOnce() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isLoadedLocked() && !r.consumed {
		r.consumed = true
		return true
	}
	return false
}

func (r *Record[T]) ResetLoadedOnlyOnce() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumed = false
}

func (r *Record[T]) FilePath() string {
	return r.path
}

// Payload returns the current payload. Read it after IsLoaded is true.
func (r *Record[T]) Payload() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.payload
}

// CopyPayload returns a private copy of the payload. Payloads that
// implement Cloner copy themselves. Anything else is deep copied field
// by field, so slices and maps in the copy never alias the record's.
func (r *Record[T]) CopyPayload() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := any(r.payload).(Cloner[T]); ok {
		return c.Clone()
	}
	return deepCopy(r.payload)
}

func (r *Record[T]) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// Generation counts successful loads.
func (r *Record[T]) Generation() uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

func (r *Record[T]) Status() RecordStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inFlight := r.loading || !r.task.IsFinished()
	return RecordStatus{
		Path:        r.path,
		Started:     r.started,
		Loaded:      r.started && !inFlight,
		Succeeded:   r.succeeded,
		Consumed:    r.consumed,
		InFlight:    inFlight,
		Generation:  r.generation,
		LastLoad:    r.lastLoad,
		LastElapsed: r.lastElapsed,
		Err:         r.lastErr,
	}
}

// Wait blocks until the background load in flight, if any, returned.
func (r *Record[T]) Wait() {
	r.task.Wait()
}

// Release waits for the background load in flight. The record must not
// be used afterwards.
func (r *Record[T]) Release() {
	r.task.Wait()
}

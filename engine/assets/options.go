package assets

import (
	"github.com/spaghettifunk/anima-assets/engine/core"
)

// Executor runs a function on another thread of control.
type Executor interface {
	Go(fn func())
}

type goroutineExecutor struct{}

// Go starts one goroutine per call.
func (goroutineExecutor) Go(fn func()) {
	go fn()
}

type options struct {
	name     string
	logger   core.Logger
	executor Executor
	metrics  *core.Metrics
	basePath string
	reader   ManifestReader
	hooks    []func(*Manifest) error
}

// Option configures records, catalogs and watchers.
type Option func(*options)

func newOptions(opts ...Option) options {
	o := options{
		logger:   core.DefaultLogger(),
		executor: goroutineExecutor{},
		reader:   FileManifestReader{},
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithName names a catalog. The name is reported in events and logs.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func WithLogger(l core.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithExecutor replaces the goroutine-per-load default, e.g. with a
// bounded systems.JobSystem.
func WithExecutor(e Executor) Option {
	return func(o *options) {
		if e != nil {
			o.executor = e
		}
	}
}

func WithMetrics(m *core.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithBasePath joins relative manifest entry paths to dir.
func WithBasePath(dir string) Option {
	return func(o *options) {
		o.basePath = dir
	}
}

func WithManifestReader(r ManifestReader) Option {
	return func(o *options) {
		if r != nil {
			o.reader = r
		}
	}
}

// WithManifestHook runs fn on every parsed manifest before its records
// are created. A hook error aborts the registration.
func WithManifestHook(fn func(*Manifest) error) Option {
	return func(o *options) {
		if fn != nil {
			o.hooks = append(o.hooks, fn)
		}
	}
}

package assets

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// countingLoader records how many times Load ran. When gate is set,
// Load blocks until it is closed.
type countingLoader struct {
	calls atomic.Int32
	fail  atomic.Bool
	gate  chan struct{}
}

func (l *countingLoader) Load(path string) (string, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	if l.fail.Load() {
		return "", errors.New("file is corrupted")
	}
	return "payload:" + path, nil
}

func quiet() Option {
	return WithLogger(core.DiscardLogger())
}

func TestRecordNeverLoaded(t *testing.T) {
	r := NewRecord[string]("a.dat", &countingLoader{}, quiet())

	assert.False(t, r.IsLoadSucceeded())
	assert.False(t, r.IsLoaded())
	assert.False(t, r.IsLoadedOnlyOnce())
	assert.Equal(t, "a.dat", r.FilePath())
	assert.Equal(t, "", r.Payload())

	s := r.Status()
	assert.False(t, s.InFlight)
	assert.False(t, s.Started)
	assert.Equal(t, uint32(0), s.Generation)
}

func TestRecordLoad(t *testing.T) {
	loader := &countingLoader{}
	r := NewRecord[string]("a.dat", loader, quiet())

	ok := r.Load()

	assert.True(t, ok)
	assert.True(t, r.IsLoaded())
	assert.True(t, r.IsLoadSucceeded())
	assert.NoError(t, r.Err())
	assert.Equal(t, "payload:a.dat", r.Payload())
	assert.Equal(t, uint32(1), r.Generation())
	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestRecordLoadFailure(t *testing.T) {
	loader := &countingLoader{}
	r := NewRecord[string]("a.dat", loader, quiet())
	require.True(t, r.Load())

	loader.fail.Store(true)
	ok := r.Load()

	assert.False(t, ok)
	assert.True(t, r.IsLoaded())
	assert.False(t, r.IsLoadSucceeded())
	assert.Error(t, r.Err())
	// The failed attempt leaves the payload in its default state.
	assert.Equal(t, "", r.Payload())
	assert.Equal(t, uint32(1), r.Generation())
}

func TestRecordLoaderPanic(t *testing.T) {
	r := NewRecord[string]("a.dat", LoaderFunc[string](func(string) (string, error) {
		panic("decoder exploded")
	}), quiet())

	assert.False(t, r.Load())
	assert.True(t, r.IsLoaded())
	require.Error(t, r.Err())
	assert.True(t, strings.Contains(r.Err().Error(), "decoder exploded"))
}

func TestRecordAsyncLoadStartsOneTask(t *testing.T) {
	loader := &countingLoader{gate: make(chan struct{})}
	r := NewRecord[string]("a.dat", loader, quiet())

	assert.True(t, r.AsyncLoad(false))
	assert.False(t, r.AsyncLoad(false))
	// Even force is a no-op while the first load is in flight.
	assert.False(t, r.AsyncLoad(true))
	assert.False(t, r.IsLoaded())

	close(loader.gate)
	r.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
	assert.True(t, r.IsLoaded())
	assert.True(t, r.IsLoadSucceeded())
}

func TestRecordAsyncLoadNeedsForceAfterFirstAttempt(t *testing.T) {
	loader := &countingLoader{}
	r := NewRecord[string]("a.dat", loader, quiet())

	require.True(t, r.Load())

	assert.False(t, r.AsyncLoad(false))
	r.Wait()
	assert.Equal(t, int32(1), loader.calls.Load())

	assert.True(t, r.AsyncLoad(true))
	r.Wait()
	assert.Equal(t, int32(2), loader.calls.Load())
	assert.Equal(t, uint32(2), r.Generation())
}

func TestRecordAsyncLoadOnceAutomatically(t *testing.T) {
	loader := &countingLoader{}
	r := NewRecord[string]("a.dat", loader, quiet())

	require.True(t, r.AsyncLoad(false))
	r.Wait()
	assert.False(t, r.AsyncLoad(false))
	r.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestRecordIsLoadedOnlyOnce(t *testing.T) {
	r := NewRecord[string]("a.dat", &countingLoader{}, quiet())
	require.True(t, r.Load())

	assert.True(t, r.IsLoadedOnlyOnce())
	assert.False(t, r.IsLoadedOnlyOnce())
	assert.False(t, r.IsLoadedOnlyOnce())

	// Reloading does not re-arm the latch.
	require.True(t, r.Load())
	assert.False(t, r.IsLoadedOnlyOnce())

	r.ResetLoadedOnlyOnce()
	assert.True(t, r.IsLoadedOnlyOnce())
	assert.False(t, r.IsLoadedOnlyOnce())
}

func TestRecordIsLoadedOnlyOnceWaitsForTask(t *testing.T) {
	loader := &countingLoader{gate: make(chan struct{})}
	r := NewRecord[string]("a.dat", loader, quiet())

	require.True(t, r.AsyncLoad(false))
	assert.False(t, r.IsLoadedOnlyOnce())
	assert.True(t, r.Status().InFlight)

	close(loader.gate)
	assert.Eventually(t, r.IsLoaded, time.Second, time.Millisecond)

	assert.True(t, r.IsLoadedOnlyOnce())
	assert.False(t, r.IsLoadedOnlyOnce())
}

func TestRecordReleaseWaitsForTask(t *testing.T) {
	var finished atomic.Bool
	r := NewRecord[string]("a.dat", LoaderFunc[string](func(path string) (string, error) {
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return path, nil
	}), quiet())

	require.True(t, r.AsyncLoad(false))
	r.Release()

	assert.True(t, finished.Load())
	assert.Equal(t, "a.dat", r.Payload())
}

func TestRecordMetrics(t *testing.T) {
	metrics := core.NewMetrics()
	loader := &countingLoader{}
	r := NewRecord[string]("a.dat", loader, quiet(), WithMetrics(metrics))

	r.Load()
	loader.fail.Store(true)
	r.Load()

	assert.Equal(t, uint64(2), metrics.Loads())
	assert.Equal(t, uint64(1), metrics.Failures())
}

type frames []int

func (f frames) Clone() frames {
	return append(frames(nil), f...)
}

func TestRecordCopyPayloadUsesClone(t *testing.T) {
	r := NewRecord[frames]("anim.dat", LoaderFunc[frames](func(string) (frames, error) {
		return frames{1, 2, 3}, nil
	}), quiet())
	require.True(t, r.Load())

	cp := r.CopyPayload()
	cp[0] = 42

	assert.Equal(t, frames{1, 2, 3}, r.Payload())
}

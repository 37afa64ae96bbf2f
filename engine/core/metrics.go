package core

import (
	"sync"
	"time"

	"github.com/spaghettifunk/anima-assets/engine/containers"
)

const AVG_COUNT int = 30

// Metrics keeps load counters and a rolling average of load times.
type Metrics struct {
	mu       sync.Mutex
	msTimes  *containers.RingQueue[float64]
	loads    uint64
	failures uint64
	slowest  time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{
		msTimes: containers.NewRingQueue[float64](AVG_COUNT),
	}
}

// Update records one completed load attempt.
func (m *Metrics) Update(elapsed time.Duration, succeeded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.msTimes.Push(float64(elapsed) / float64(time.Millisecond))
	m.loads++
	if !succeeded {
		m.failures++
	}
	if elapsed > m.slowest {
		m.slowest = elapsed
	}
}

// LoadTime returns the average load time in ms over the last AVG_COUNT loads.
func (m *Metrics) LoadTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return containers.Mean(m.msTimes)
}

func (m *Metrics) Loads() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

func (m *Metrics) Failures() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}

func (m *Metrics) Slowest() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slowest
}

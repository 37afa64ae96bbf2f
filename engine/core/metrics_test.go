package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	assert.Zero(t, m.LoadTime())

	m.Update(2*time.Millisecond, true)
	m.Update(4*time.Millisecond, false)
	m.Update(time.Millisecond, true)

	assert.Equal(t, uint64(3), m.Loads())
	assert.Equal(t, uint64(1), m.Failures())
	assert.Equal(t, 4*time.Millisecond, m.Slowest())
	assert.InDelta(t, 7.0/3.0, m.LoadTime(), 1e-9)
}

func TestMetricsRollingAverage(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(100*time.Millisecond, true)
	}
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(time.Millisecond, true)
	}
	assert.InDelta(t, 1.0, m.LoadTime(), 1e-9)
	assert.Equal(t, uint64(2*AVG_COUNT), m.Loads())
}

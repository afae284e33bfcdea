package sched

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manualBase() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestManualAfterDoesNotRunInline(t *testing.T) {
	m := NewManual(manualBase())
	fired := false
	m.After(0, func() { fired = true })
	require.False(t, fired, "zero-delay callback must wait for Advance")

	m.Advance(0)
	assert.True(t, fired)
}

func TestManualAdvanceRunsInDueOrder(t *testing.T) {
	m := NewManual(manualBase())
	var order []int
	m.After(30*time.Millisecond, func() { order = append(order, 3) })
	m.After(10*time.Millisecond, func() { order = append(order, 1) })
	m.After(20*time.Millisecond, func() { order = append(order, 2) })

	m.Advance(time.Hour)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestManualClockTracksDueTimes(t *testing.T) {
	m := NewManual(manualBase())
	var at time.Time
	m.After(5*time.Second, func() { at = m.Now() })

	m.Advance(time.Minute)
	assert.Equal(t, manualBase().Add(5*time.Second), at)
	assert.Equal(t, manualBase().Add(time.Minute), m.Now())
}

func TestManualCancel(t *testing.T) {
	m := NewManual(manualBase())
	fired := false
	h := m.After(time.Second, func() { fired = true })

	require.True(t, m.Cancel(h))
	require.False(t, m.Cancel(h), "second cancel reports false")

	m.Advance(time.Minute)
	assert.False(t, fired)
}

func TestManualChainedCallbacksWithinOneAdvance(t *testing.T) {
	m := NewManual(manualBase())
	var hops int
	var hop func()
	hop = func() {
		hops++
		if hops < 4 {
			m.After(0, hop)
		}
	}
	m.After(0, hop)

	m.Advance(0)
	assert.Equal(t, 4, hops, "yield chain drains within a single Advance")
}

func TestManualRunAll(t *testing.T) {
	m := NewManual(manualBase())
	var hops int
	var hop func()
	hop = func() {
		hops++
		if hops < 3 {
			m.After(time.Second, hop)
		}
	}
	m.After(time.Second, hop)

	m.RunAll()
	assert.Equal(t, 3, hops)
	assert.Equal(t, 0, m.Pending())
}

func TestTimersFireAndCancel(t *testing.T) {
	tm := NewTimers()
	defer tm.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	tm.After(time.Millisecond, wg.Done)
	wg.Wait()

	h := tm.After(time.Hour, func() { t.Error("cancelled callback fired") })
	require.True(t, tm.Cancel(h))
	assert.Equal(t, 0, tm.Pending())
}

func TestTimersStopCancelsEverything(t *testing.T) {
	tm := NewTimers()
	tm.After(time.Hour, func() { t.Error("callback fired after Stop") })
	tm.After(time.Hour, func() { t.Error("callback fired after Stop") })

	tm.Stop()
	assert.Equal(t, 0, tm.Pending())
}

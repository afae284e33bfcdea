package sched

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler and Clock for tests. Time only moves
// when Advance is called; due callbacks run inline on the advancing
// goroutine, in due order, including callbacks scheduled by other
// callbacks during the same Advance.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	next  Handle
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	handle Handle
	due    time.Time
	seq    uint64 // insertion order breaks due-time ties
	fn     func()
}

// NewManual creates a Manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now implements Clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// After implements Scheduler.
func (m *Manual) After(d time.Duration, fn func()) Handle {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.seq++
	m.tasks = append(m.tasks, &manualTask{
		handle: m.next,
		due:    m.now.Add(d),
		seq:    m.seq,
		fn:     fn,
	})
	return m.next
}

// Cancel implements Scheduler.
func (m *Manual) Cancel(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, task := range m.tasks {
		if task.handle == h {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves the clock forward by d and runs every callback that comes
// due, in due order. Advance(0) runs callbacks scheduled with a zero delay
// (cooperative yields).
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	deadline := m.now.Add(d)
	m.mu.Unlock()

	for {
		task := m.popDue(deadline)
		if task == nil {
			break
		}
		task.fn()
	}

	m.mu.Lock()
	if deadline.After(m.now) {
		m.now = deadline
	}
	m.mu.Unlock()
}

// RunAll repeatedly advances the clock to the next pending callback until
// none remain. Useful for draining yield chains of unknown length.
func (m *Manual) RunAll() {
	for {
		m.mu.Lock()
		if len(m.tasks) == 0 {
			m.mu.Unlock()
			return
		}
		earliest := m.tasks[0].due
		for _, task := range m.tasks[1:] {
			if task.due.Before(earliest) {
				earliest = task.due
			}
		}
		d := earliest.Sub(m.now)
		m.mu.Unlock()
		m.Advance(d)
	}
}

// Pending returns the number of callbacks waiting to fire.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// popDue removes and returns the earliest-due task at or before deadline,
// advancing the clock to its due time. Returns nil when nothing is due.
func (m *Manual) popDue(deadline time.Time) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due.Equal(m.tasks[j].due) {
			return m.tasks[i].seq < m.tasks[j].seq
		}
		return m.tasks[i].due.Before(m.tasks[j].due)
	})

	if len(m.tasks) == 0 || m.tasks[0].due.After(deadline) {
		return nil
	}
	task := m.tasks[0]
	m.tasks = m.tasks[1:]
	if task.due.After(m.now) {
		m.now = task.due
	}
	return task
}

package collectors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/gridkit/pkg/filter"
	"gitlab.com/tinyland/lab/gridkit/pkg/pipeline"
)

// MockSource is a configurable fake source for tests and demos. It returns
// canned rows and can be told to fail on demand.
type MockSource struct {
	mu       sync.Mutex
	name     string
	columns  []Column
	rows     []pipeline.MapRow
	interval time.Duration
	err      error
	calls    int
}

// NewMockSource returns a mock with a small fixed schema.
func NewMockSource(name string) *MockSource {
	return &MockSource{
		name:     name,
		interval: time.Second,
		columns: []Column{
			{Name: "id", Title: "ID", Type: filter.TypeText},
			{Name: "name", Title: "Name", Type: filter.TypeText},
			{Name: "value", Title: "Value", Type: filter.TypeNumber},
		},
	}
}

func (m *MockSource) Name() string            { return m.name }
func (m *MockSource) Columns() []Column       { return m.columns }
func (m *MockSource) Interval() time.Duration { return m.interval }

// SetRows replaces the canned row set returned by Collect.
func (m *MockSource) SetRows(rows []pipeline.MapRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
}

// SetError makes subsequent Collect calls fail with err. Pass nil to clear.
func (m *MockSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Collect has run.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Collect returns the canned rows, or the configured error.
func (m *MockSource) Collect(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return Snapshot{}, fmt.Errorf("mock source %s: %w", m.name, m.err)
	}

	rows := make([]pipeline.MapRow, len(m.rows))
	copy(rows, m.rows)
	return Snapshot{Rows: rows, Timestamp: time.Now()}, nil
}

// Package collectors defines the interfaces and registry for gridkit data
// sources. Each source (procs, mock) implements the Source interface and
// produces tabular snapshots that feed a pipeline store. Sources live in
// sub-packages and are registered with the Registry at startup.
package collectors

import (
	"context"
	"time"

	"gitlab.com/tinyland/lab/gridkit/pkg/filter"
	"gitlab.com/tinyland/lab/gridkit/pkg/pipeline"
)

// Column describes one column a source produces. The DataType drives
// filter coercion and comparison for values in this column.
type Column struct {
	// Name is the field key rows use for this column (e.g., "cpu").
	Name string

	// Title is the human-readable header text.
	Title string

	// Type tells the filter layer how to coerce values in this column.
	Type filter.DataType

	// Width is a rendering hint in cells; 0 means size to content.
	Width int
}

// Snapshot is the result of one collection cycle: a full replacement
// row set, keyed by the "id" field of each row.
type Snapshot struct {
	Rows      []pipeline.MapRow
	Timestamp time.Time
}

// Source is the interface all data sources implement.
type Source interface {
	// Name returns a unique identifier for this source (e.g., "procs").
	Name() string

	// Columns returns the column schema for rows this source produces.
	// The schema is fixed for the lifetime of the source.
	Columns() []Column

	// Collect performs one collection cycle and returns a full snapshot.
	Collect(ctx context.Context) (Snapshot, error)

	// Interval returns how often this source should run. The host uses
	// this to configure a per-source ticker.
	Interval() time.Duration
}

// SourceStatus tracks the runtime state of a single source. The registry
// updates this after every collection cycle.
type SourceStatus struct {
	Name        string
	Healthy     bool
	LastRun     time.Time
	LastError   error
	RunCount    int64
	ErrorCount  int64
	LastLatency time.Duration
}

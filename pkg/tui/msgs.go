// Package tui provides the Bubbletea front end for gridkit: a sortable,
// filterable process grid over a pipeline store, supervised by the
// loading watchdog. It follows the Elm architecture; all engine mutations
// happen inside Update, so the store only ever sees one writer.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/gridkit/pkg/collectors"
)

// TickMsg drives the periodic watchdog check and UI refresh.
type TickMsg struct {
	Time time.Time
}

// CollectDueMsg asks the model to start the next collection cycle.
type CollectDueMsg struct{}

// SnapshotMsg carries the result of one collection cycle from the
// collector goroutine back into the update loop.
type SnapshotMsg struct {
	Snapshot collectors.Snapshot
	Err      error
}

// tickCmd schedules the next TickMsg.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// collectDueCmd schedules the next collection cycle after d.
func collectDueCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return CollectDueMsg{}
	})
}

// collectCmd runs one collection cycle in a goroutine and delivers the
// result as a SnapshotMsg.
func collectCmd(reg *collectors.Registry, source string) tea.Cmd {
	return func() tea.Msg {
		snap, err := reg.Collect(context.Background(), source)
		return SnapshotMsg{Snapshot: snap, Err: err}
	}
}

// Package selection tracks selected row keys against a universe of valid
// keys, independent of whatever filter currently hides a row. It stays
// responsive on very large universes by coalescing change notifications
// with a trailing debounce and by processing select-all in cooperative
// batches, so no single action blocks the host event loop.
package selection

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/gridkit/pkg/notify"
	"gitlab.com/tinyland/lab/gridkit/pkg/sched"
)

// TriState summarizes the selection relative to the universe.
type TriState int

const (
	None TriState = iota
	Some
	All
)

func (t TriState) String() string {
	switch t {
	case None:
		return "none"
	case Some:
		return "some"
	case All:
		return "all"
	default:
		return "unknown"
	}
}

// Snapshot is the serializable selection state exposed to collaborators.
type Snapshot struct {
	SelectedIDs []string `json:"selectedIds"`
	Count       int      `json:"count"`
	Total       int      `json:"total"`
	Timestamp   string   `json:"timestamp"` // ISO-8601
}

// Config controls notification coalescing and select-all batching.
type Config struct {
	// DebounceThreshold is the universe size above which notifications
	// are coalesced. Zero means 500.
	DebounceThreshold int

	// DebounceInterval is the trailing quiet period for coalesced
	// notifications. Zero means 50ms.
	DebounceInterval time.Duration

	// BatchThreshold is the universe size above which SelectAll runs in
	// batches. Zero means 1000.
	BatchThreshold int

	// BatchSize is how many items one SelectAll batch processes before
	// yielding. Zero means 500.
	BatchSize int
}

func (c Config) defaults() Config {
	if c.DebounceThreshold <= 0 {
		c.DebounceThreshold = 500
	}
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = 50 * time.Millisecond
	}
	if c.BatchThreshold <= 0 {
		c.BatchThreshold = 1000
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	return c
}

// Manager owns the selection set. All methods are safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	sch    sched.Scheduler
	clock  sched.Clock
	logger *slog.Logger
	pub    *notify.Publisher[Snapshot]

	order    []string       // viewOrder for range operations
	universe map[string]int // id -> position in order
	selected map[string]struct{}

	debounce     sched.Handle // pending coalesced notification, 0 = none
	batch        sched.Handle // pending SelectAll continuation, 0 = none
	batchNextIdx int
}

// NewManager creates a Manager. scheduler and clock must be non-nil; a nil
// logger falls back to slog.Default().
func NewManager(cfg Config, scheduler sched.Scheduler, clock sched.Clock, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:      cfg.defaults(),
		sch:      scheduler,
		clock:    clock,
		logger:   logger,
		pub:      notify.NewPublisher[Snapshot](logger),
		universe: make(map[string]int),
		selected: make(map[string]struct{}),
	}
}

// Subscribe registers a listener for selection snapshots and returns its
// unsubscribe function. Listener panics are isolated per listener.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	return m.pub.Subscribe(fn)
}

// Initialize replaces the universe with ids (in order) and prunes every
// selected key no longer present. Any in-flight batched select-all is
// cancelled; the change notifies synchronously.
func (m *Manager) Initialize(ids []string) {
	m.mu.Lock()
	m.cancelBatchLocked()
	m.cancelDebounceLocked()

	m.order = append([]string(nil), ids...)
	m.universe = make(map[string]int, len(ids))
	for i, id := range ids {
		m.universe[id] = i
	}
	for id := range m.selected {
		if _, ok := m.universe[id]; !ok {
			delete(m.selected, id)
		}
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.pub.Publish(snap)
}

// SetViewOrder reorders the id list used by range operations without
// touching the universe or the selection. ids must all belong to the
// current universe; unknown ids are ignored.
func (m *Manager) SetViewOrder(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := m.universe[id]; !ok {
			continue
		}
		order = append(order, id)
		seen[id] = struct{}{}
	}
	// Rows hidden from the current view keep a stable position after the
	// visible ones so every universe member remains addressable.
	for _, id := range m.order {
		if _, ok := seen[id]; !ok {
			order = append(order, id)
		}
	}
	m.order = order
	for i, id := range order {
		m.universe[id] = i
	}
}

// ToggleItem flips the selection of id. Unknown ids are ignored.
func (m *Manager) ToggleItem(id string) {
	m.mu.Lock()
	if _, ok := m.universe[id]; !ok {
		m.mu.Unlock()
		return
	}
	if _, ok := m.selected[id]; ok {
		delete(m.selected, id)
	} else {
		m.selected[id] = struct{}{}
	}
	m.notifyLocked()
}

// SetItemSelection sets the selection of id explicitly. Unknown ids are
// ignored; a no-op change still notifies.
func (m *Manager) SetItemSelection(id string, selected bool) {
	m.mu.Lock()
	if _, ok := m.universe[id]; !ok {
		m.mu.Unlock()
		return
	}
	if selected {
		m.selected[id] = struct{}{}
	} else {
		delete(m.selected, id)
	}
	m.notifyLocked()
}

// IsSelected reports whether id is currently selected.
func (m *Manager) IsSelected(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.selected[id]
	return ok
}

// Count returns the number of selected keys.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.selected)
}

// SelectAll selects every id in the universe. Small universes complete
// synchronously. Universes above the batch threshold proceed in batches
// with a cooperative yield between them; exactly one notification fires
// after the final batch, never mid-run.
func (m *Manager) SelectAll() {
	m.mu.Lock()
	m.cancelBatchLocked()

	if len(m.order) <= m.cfg.BatchThreshold {
		for _, id := range m.order {
			m.selected[id] = struct{}{}
		}
		m.notifyLocked() // unlocks
		return
	}

	m.selectBatchLocked(0) // unlocks
}

// selectBatchLocked processes one batch starting at from and either
// schedules the next batch or finishes with a single synchronous
// notification. Called with the lock held; releases it.
func (m *Manager) selectBatchLocked(from int) {
	to := from + m.cfg.BatchSize
	if to > len(m.order) {
		to = len(m.order)
	}
	for _, id := range m.order[from:to] {
		m.selected[id] = struct{}{}
	}

	if to >= len(m.order) {
		m.batch = 0
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.pub.Publish(snap)
		return
	}

	m.batchNextIdx = to
	m.batch = m.sch.After(0, m.runNextBatch)
	m.mu.Unlock()
}

func (m *Manager) runNextBatch() {
	m.mu.Lock()
	if m.batch == 0 {
		// Cancelled between the yield and the callback.
		m.mu.Unlock()
		return
	}
	m.selectBatchLocked(m.batchNextIdx)
}

// ClearAll deselects everything and always notifies synchronously:
// deselection must never appear delayed. Pending batched or debounced
// work is cancelled.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	m.cancelBatchLocked()
	m.cancelDebounceLocked()
	m.selected = make(map[string]struct{})
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.pub.Publish(snap)
}

// SetSelected replaces the selection with exactly the given ids. Ids
// outside the universe are silently dropped.
func (m *Manager) SetSelected(ids []string) {
	m.mu.Lock()
	m.selected = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := m.universe[id]; ok {
			m.selected[id] = struct{}{}
		}
	}
	m.notifyLocked()
}

// SelectRange selects the inclusive index range [a, b] over the current
// view order. Argument order does not matter; bounds are clamped.
func (m *Manager) SelectRange(a, b int) {
	m.rangeSet(a, b, true)
}

// DeselectRange deselects the inclusive index range [a, b].
func (m *Manager) DeselectRange(a, b int) {
	m.rangeSet(a, b, false)
}

func (m *Manager) rangeSet(a, b int, selected bool) {
	if a > b {
		a, b = b, a
	}
	m.mu.Lock()
	if len(m.order) == 0 {
		m.mu.Unlock()
		return
	}
	if a < 0 {
		a = 0
	}
	if b >= len(m.order) {
		b = len(m.order) - 1
	}
	if a > b {
		m.mu.Unlock()
		return
	}
	for _, id := range m.order[a : b+1] {
		if selected {
			m.selected[id] = struct{}{}
		} else {
			delete(m.selected, id)
		}
	}
	m.notifyLocked()
}

// SelectAllState returns the tri-state summary.
func (m *Manager) SelectAllState() TriState {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case len(m.selected) == 0:
		return None
	case len(m.selected) == len(m.universe) && len(m.universe) > 0:
		return All
	default:
		return Some
	}
}

// Snapshot returns the current selection snapshot. Ids come back in view
// order.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// SetSelectionFromJSON restores a selection from a serialized Snapshot.
// It never fails loudly: malformed payloads are logged and leave the
// selection unchanged; ids absent from the universe are silently dropped.
func (m *Manager) SetSelectionFromJSON(raw []byte) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		m.logger.Warn("selection: discarding malformed selection payload", "error", err)
		return
	}

	m.mu.Lock()
	m.selected = make(map[string]struct{}, len(snap.SelectedIDs))
	for _, id := range snap.SelectedIDs {
		if _, ok := m.universe[id]; ok {
			m.selected[id] = struct{}{}
		}
	}
	m.notifyLocked()
}

// FlushPendingUpdates forces a pending debounced notification to fire
// immediately. Used for deterministic teardown.
func (m *Manager) FlushPendingUpdates() {
	m.mu.Lock()
	if m.debounce == 0 {
		m.mu.Unlock()
		return
	}
	m.sch.Cancel(m.debounce)
	m.debounce = 0
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.pub.Publish(snap)
}

// Close cancels any pending timers. The manager must not be used after
// Close.
func (m *Manager) Close() {
	m.mu.Lock()
	m.cancelBatchLocked()
	m.cancelDebounceLocked()
	m.mu.Unlock()
}

// notifyLocked publishes a change either synchronously (small universe)
// or via the trailing debounce (large universe). Called with the lock
// held; releases it.
func (m *Manager) notifyLocked() {
	if len(m.universe) <= m.cfg.DebounceThreshold {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.pub.Publish(snap)
		return
	}

	// Supersede any pending notification so rapid successive changes
	// collapse into one downstream update.
	if m.debounce != 0 {
		m.sch.Cancel(m.debounce)
	}
	m.debounce = m.sch.After(m.cfg.DebounceInterval, m.fireDebounced)
	m.mu.Unlock()
}

func (m *Manager) fireDebounced() {
	m.mu.Lock()
	if m.debounce == 0 {
		m.mu.Unlock()
		return
	}
	m.debounce = 0
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.pub.Publish(snap)
}

func (m *Manager) snapshotLocked() Snapshot {
	ids := make([]string, 0, len(m.selected))
	for _, id := range m.order {
		if _, ok := m.selected[id]; ok {
			ids = append(ids, id)
		}
	}
	return Snapshot{
		SelectedIDs: ids,
		Count:       len(ids),
		Total:       len(m.universe),
		Timestamp:   m.clock.Now().UTC().Format(time.RFC3339),
	}
}

func (m *Manager) cancelBatchLocked() {
	if m.batch != 0 {
		m.sch.Cancel(m.batch)
		m.batch = 0
	}
}

func (m *Manager) cancelDebounceLocked() {
	if m.debounce != 0 {
		m.sch.Cancel(m.debounce)
		m.debounce = 0
	}
}

// Package pipeline owns the authoritative in-memory dataset and derives
// every downstream view from it: filtered, sorted, paginated and
// aggregated. Each mutating action runs through one serialized dispatcher
// and synchronously recomputes the dependent state before returning, so
// the invariant displayData = paginate(sort(filter(originalData))) holds
// after every action, not just on initial load. Derived id slices are
// replaced wholesale (copy-on-write), never edited in place, so readers
// always observe either the pre- or post-mutation view.
package pipeline

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/gridkit/pkg/cache"
	"gitlab.com/tinyland/lab/gridkit/pkg/filter"
	"gitlab.com/tinyland/lab/gridkit/pkg/notify"
	"gitlab.com/tinyland/lab/gridkit/pkg/sched"
	"gitlab.com/tinyland/lab/gridkit/pkg/selection"
)

// EventKind discriminates pipeline notifications.
type EventKind int

const (
	EventData EventKind = iota
	EventFilter
	EventSort
	EventPage
	EventAggregation
	EventRefresh
)

// Event is delivered to subscribers after every completed action.
type Event struct {
	Kind EventKind
}

// Config controls a Store.
type Config struct {
	// PageSize is the initial page size. Zero means 50.
	PageSize int

	// UniqueValueCacheSize bounds the unique-values memo. Zero means 64.
	UniqueValueCacheSize int

	// Selection is the manager handling selection state. Nil means the
	// Store creates one with default settings.
	Selection *selection.Manager

	// Scheduler and Clock back the internally created selection manager
	// and diagnostics. Nil means real timers and the system clock.
	Scheduler sched.Scheduler
	Clock     sched.Clock

	// Logger is used for degraded-unit reporting. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// Pagination is the derived paging state.
type Pagination struct {
	CurrentPage int
	PageSize    int
	TotalItems  int
	TotalPages  int
}

// Store is the query pipeline state owner for rows of type T.
type Store[T any] struct {
	mu     sync.Mutex
	acc    Accessor[T]
	logger *slog.Logger
	clock  sched.Clock

	ownTimers *sched.Timers // non-nil only when the Store created them

	rows       map[string]T
	orderedIDs []string // original load order

	filters  filter.State
	advanced filter.State
	sorts    []SortSpec

	pageSize    int
	currentPage int
	page        Pagination

	aggs       map[string]Aggregation
	aggResults map[string]any

	filteredIDs []string
	sortedIDs   []string
	displayIDs  []string

	generation        uint64
	memo              *cache.Store
	lastFilterLatency time.Duration

	sel *selection.Manager
	pub *notify.Publisher[Event]
}

// NewStore creates an empty Store for rows reached through acc. acc.Key
// and acc.Field must be non-nil.
func NewStore[T any](acc Accessor[T], cfg Config) *Store[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = sched.SystemClock()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	memoSize := cfg.UniqueValueCacheSize
	if memoSize <= 0 {
		memoSize = 64
	}

	s := &Store[T]{
		acc:         acc,
		logger:      logger,
		clock:       clock,
		rows:        make(map[string]T),
		filters:     filter.State{},
		advanced:    filter.State{},
		pageSize:    pageSize,
		currentPage: 1,
		page:        Pagination{CurrentPage: 1, PageSize: pageSize},
		aggs:        make(map[string]Aggregation),
		aggResults:  make(map[string]any),
		memo:        cache.NewStore(cache.StoreConfig{MaxEntries: memoSize, Clock: clock}),
		sel:         cfg.Selection,
		pub:         notify.NewPublisher[Event](logger),
	}
	if s.sel == nil {
		scheduler := cfg.Scheduler
		if scheduler == nil {
			timers := sched.NewTimers()
			s.ownTimers = timers
			scheduler = timers
		}
		s.sel = selection.NewManager(selection.Config{}, scheduler, clock, logger)
	}
	return s
}

// Close tears down the store: pending selection timers are cancelled and,
// if the store created its own timer scheduler, it is stopped.
func (s *Store[T]) Close() {
	s.sel.Close()
	if s.ownTimers != nil {
		s.ownTimers.Stop()
	}
}

// Subscribe registers a listener for pipeline events and returns its
// unsubscribe function. A panicking listener is isolated and logged; it
// never breaks the triggering action or other listeners.
func (s *Store[T]) Subscribe(fn func(Event)) func() {
	return s.pub.Subscribe(fn)
}

// Selection exposes the selection manager for direct subscription and the
// heavy-scale selection path.
func (s *Store[T]) Selection() *selection.Manager {
	return s.sel
}

// SetData replaces the dataset wholesale, resets pagination to the first
// page and recomputes every derived view. Selected keys still present in
// the new universe survive; all others are pruned.
func (s *Store[T]) SetData(rows []T) {
	s.mu.Lock()
	s.rows = make(map[string]T, len(rows))
	s.orderedIDs = make([]string, 0, len(rows))
	for _, row := range rows {
		id := s.acc.Key(row)
		if _, dup := s.rows[id]; dup {
			s.logger.Warn("pipeline: duplicate row key replaces earlier row", "key", id)
		} else {
			s.orderedIDs = append(s.orderedIDs, id)
		}
		s.rows[id] = row
	}
	s.generation++
	s.memo.InvalidateAll()
	s.currentPage = 1
	s.recomputeLocked()
	universe := append([]string(nil), s.orderedIDs...)
	order := s.sortedViewOrderLocked()
	s.mu.Unlock()

	s.sel.Initialize(universe)
	s.sel.SetViewOrder(order)
	s.pub.Publish(Event{Kind: EventData})
}

// Refresh deterministically recombines filter, advanced filter, sort and
// pagination from originalData alone. Used after any external mutation
// that bypassed individual actions.
func (s *Store[T]) Refresh() {
	s.finishAction(EventRefresh, func() {})
}

// Row returns the row for id.
func (s *Store[T]) Row(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	return row, ok
}

// RowCount returns the size of the full dataset.
func (s *Store[T]) RowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orderedIDs)
}

// FilteredIDs returns the current filtered id list in display order prior
// to pagination.
func (s *Store[T]) FilteredIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sortedIDs...)
}

// DisplayIDs returns the ids of the current page.
func (s *Store[T]) DisplayIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.displayIDs...)
}

// DisplayRows materializes the current page's rows.
func (s *Store[T]) DisplayRows() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.displayIDs))
	for _, id := range s.displayIDs {
		out = append(out, s.rows[id])
	}
	return out
}

// Pagination returns the derived paging state.
func (s *Store[T]) Pagination() Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// LastFilterLatency reports how long the most recent filter pass took.
func (s *Store[T]) LastFilterLatency() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFilterLatency
}

// Generation is bumped on every SetData; derived caches key off it.
func (s *Store[T]) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// UniqueValues returns the distinct values of column over the full
// dataset with occurrence counts, memoized per data generation.
func (s *Store[T]) UniqueValues(column string) []filter.ValueCount {
	s.mu.Lock()
	key := cache.Key("unique", strconv.FormatUint(s.generation, 10), column)
	if vals, ok := cache.GetTyped[[]filter.ValueCount](s.memo, key); ok {
		s.mu.Unlock()
		return vals
	}
	vals := filter.UniqueValues(s.orderedIDs, s.getterLocked(), column)
	s.memo.Put(key, vals)
	s.mu.Unlock()
	return vals
}

// ApplyFilter merges a single column filter into the basic filter state
// and recomputes.
func (s *Store[T]) ApplyFilter(column string, cf filter.ColumnFilter) {
	s.finishAction(EventFilter, func() {
		if cf.ColumnName == "" {
			cf.ColumnName = column
		}
		s.filters[column] = cf
	})
}

// RemoveFilter drops the basic filter for column.
func (s *Store[T]) RemoveFilter(column string) {
	s.finishAction(EventFilter, func() {
		delete(s.filters, column)
	})
}

// ApplyAdvancedFilter replaces the advanced filter state and recomputes.
func (s *Store[T]) ApplyAdvancedFilter(state filter.State) {
	s.finishAction(EventFilter, func() {
		s.advanced = state.Clone()
		if s.advanced == nil {
			s.advanced = filter.State{}
		}
	})
}

// ClearFilters resets the basic filter state.
func (s *Store[T]) ClearFilters() {
	s.finishAction(EventFilter, func() {
		s.filters = filter.State{}
	})
}

// ClearAllFilters resets both basic and advanced filter state.
func (s *Store[T]) ClearAllFilters() {
	s.finishAction(EventFilter, func() {
		s.filters = filter.State{}
		s.advanced = filter.State{}
	})
}

// FilterState returns a copy of the active basic filter state.
func (s *Store[T]) FilterState() filter.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

// SerializedFilters returns the basic filter state in the stable wire
// format.
func (s *Store[T]) SerializedFilters() (string, error) {
	s.mu.Lock()
	state := s.filters.Clone()
	s.mu.Unlock()
	return filter.Serialize(state)
}

// RestoreFilters replaces the basic filter state from the wire format.
// Malformed input yields an empty filter state rather than an error.
func (s *Store[T]) RestoreFilters(raw string) {
	state := filter.Deserialize(raw, s.logger)
	s.finishAction(EventFilter, func() {
		s.filters = state
	})
}

// SetPagination sets page and page size together.
func (s *Store[T]) SetPagination(page, size int) {
	s.finishAction(EventPage, func() {
		if size > 0 {
			s.pageSize = size
		}
		s.currentPage = page
	})
}

// SetCurrentPage moves to page, clamped to the valid range during
// recompute.
func (s *Store[T]) SetCurrentPage(page int) {
	s.finishAction(EventPage, func() {
		s.currentPage = page
	})
}

// SetPageSize changes the page size and resets to the first page.
func (s *Store[T]) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	s.finishAction(EventPage, func() {
		s.pageSize = size
		s.currentPage = 1
	})
}

// ToggleRowSelection, SelectAllRows, ClearSelection and SetSelectedRows
// are the selection passthroughs: below the manager's debounce threshold
// they complete synchronously; above it the manager coalesces and
// batches.

func (s *Store[T]) ToggleRowSelection(id string) { s.sel.ToggleItem(id) }

func (s *Store[T]) SelectAllRows() { s.sel.SelectAll() }

func (s *Store[T]) ClearSelection() { s.sel.ClearAll() }

func (s *Store[T]) SetSelectedRows(ids []string) { s.sel.SetSelected(ids) }

// finishAction is the serialized dispatcher every mutation flows through:
// mutate under the lock, recompute the derived views, propagate the new
// view order to selection, then notify.
func (s *Store[T]) finishAction(kind EventKind, mutate func()) {
	s.mu.Lock()
	mutate()
	s.recomputeLocked()
	order := s.sortedViewOrderLocked()
	s.mu.Unlock()

	s.sel.SetViewOrder(order)
	s.pub.Publish(Event{Kind: kind})
}

// recomputeLocked rebuilds filtered -> sorted -> display -> aggregations.
// Every derived slice is computed into locals and committed at the end,
// so a failure mid-recompute retains the last known-good view instead of
// leaving the grid blank.
func (s *Store[T]) recomputeLocked() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("pipeline: recompute failed, retaining last known-good view", "panic", r)
		}
	}()

	get := s.getterLocked()

	start := s.clock.Now()
	filtered := filter.Apply(s.orderedIDs, get, s.filters)
	filtered = filter.Apply(filtered, get, s.advanced)
	s.lastFilterLatency = s.clock.Now().Sub(start)

	sorted := s.sortIDsLocked(filtered)
	page := derivePagination(len(sorted), s.pageSize, s.currentPage)
	display := pageSlice(sorted, page)
	aggs := s.aggregateLocked(filtered)

	s.filteredIDs = filtered
	s.sortedIDs = sorted
	s.displayIDs = display
	s.page = page
	s.currentPage = page.CurrentPage
	s.aggResults = aggs
}

// getterLocked adapts the accessor to the filter package's Getter.
func (s *Store[T]) getterLocked() filter.Getter {
	return func(id, column string) (any, bool) {
		row, ok := s.rows[id]
		if !ok {
			return nil, false
		}
		return s.acc.Field(row, column)
	}
}

func (s *Store[T]) sortedViewOrderLocked() []string {
	return append([]string(nil), s.sortedIDs...)
}

// derivePagination computes the paging invariants: totalPages =
// ceil(totalItems/pageSize); an empty result pins currentPage to 1 with
// zero pages; otherwise the page is clamped to the valid range.
func derivePagination(totalItems, pageSize, currentPage int) Pagination {
	p := Pagination{PageSize: pageSize, TotalItems: totalItems}
	if totalItems == 0 {
		p.CurrentPage = 1
		p.TotalPages = 0
		return p
	}
	p.TotalPages = (totalItems + pageSize - 1) / pageSize
	if currentPage < 1 {
		currentPage = 1
	}
	if currentPage > p.TotalPages {
		currentPage = p.TotalPages
	}
	p.CurrentPage = currentPage
	return p
}

func pageSlice(ids []string, p Pagination) []string {
	if p.TotalItems == 0 {
		return nil
	}
	start := (p.CurrentPage - 1) * p.PageSize
	end := start + p.PageSize
	if start > len(ids) {
		start = len(ids)
	}
	if end > len(ids) {
		end = len(ids)
	}
	return append([]string(nil), ids[start:end]...)
}

// Package viewport computes which contiguous slice of rows must actually
// be materialized for rendering, given a scroll offset and container
// extent. Row heights may be uniform or per-row; per-row heights live in a
// binary indexed tree so the virtual extent and prefix sums are maintained
// incrementally rather than recomputed from scratch on every change.
package viewport

import "sync"

// Config controls a Window.
type Config struct {
	// DefaultRowHeight is the height assumed for rows that have not been
	// measured. Zero means 1.
	DefaultRowHeight int

	// Overscan is how many extra rows are included beyond each edge of
	// the geometrically visible range. Overscan only ever widens the
	// range. Negative values are treated as zero.
	Overscan int
}

func (c Config) defaults() Config {
	if c.DefaultRowHeight <= 0 {
		c.DefaultRowHeight = 1
	}
	if c.Overscan < 0 {
		c.Overscan = 0
	}
	return c
}

// Range is the half-open row-index window [Start, End) to materialize.
type Range struct {
	Start              int
	End                int
	ScrollOffset       int
	TotalVirtualExtent int
}

// Len returns the number of rows in the range.
func (r Range) Len() int { return r.End - r.Start }

// Window tracks row count and heights and answers windowing queries.
type Window struct {
	mu      sync.Mutex
	cfg     Config
	rows    int
	uniform bool // no per-row override yet; arithmetic fast path
	heights *fenwick
}

// New creates a Window with zero rows.
func New(cfg Config) *Window {
	return &Window{cfg: cfg.defaults(), uniform: true}
}

// SetRowCount resizes the window to n rows. New rows take the default
// height; shrinking discards the tail measurements. Existing measured
// heights are preserved.
func (w *Window) SetRowCount(n int) {
	if n < 0 {
		n = 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.uniform {
		w.rows = n
		return
	}
	if n < w.heights.len() {
		w.heights.truncate(n)
	}
	for w.heights.len() < n {
		w.heights.append(w.cfg.DefaultRowHeight)
	}
	w.rows = n
}

// RowCount returns the current number of rows.
func (w *Window) RowCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// SetRowHeight records a measured height for row i. Out-of-range indices
// and non-positive heights are ignored.
func (w *Window) SetRowHeight(i, h int) {
	if h <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= w.rows {
		return
	}
	if w.uniform {
		if h == w.cfg.DefaultRowHeight {
			return
		}
		w.materialize()
	}
	w.heights.set(i, h)
}

// RowHeight returns the height of row i, or the default height for
// out-of-range indices.
func (w *Window) RowHeight(i int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= w.rows || w.uniform {
		return w.cfg.DefaultRowHeight
	}
	return w.heights.get(i)
}

// TotalExtent returns the full virtual height of all rows.
func (w *Window) TotalExtent() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalLocked()
}

// Range computes the window for the given scroll offset and container
// extent: the smallest [start, end) covering every geometrically visible
// row, widened by the overscan on both sides, clamped to [0, rows).
func (w *Window) Range(scroll, extent int) Range {
	w.mu.Lock()
	defer w.mu.Unlock()

	total := w.totalLocked()
	if scroll < 0 {
		scroll = 0
	}
	if extent < 0 {
		extent = 0
	}

	r := Range{ScrollOffset: scroll, TotalVirtualExtent: total}
	if w.rows == 0 || extent == 0 {
		return r
	}

	var start, end int
	if w.uniform {
		h := w.cfg.DefaultRowHeight
		start = scroll / h
		end = ceilDiv(scroll+extent, h)
	} else {
		// start: smallest index whose prefix sum exceeds scroll, i.e.
		// the row containing the offset.
		start = w.heights.lowerBound(scroll) - 1
		if start < 0 {
			start = 0
		}
		// end: smallest count of rows whose summed height reaches the
		// bottom edge.
		end = w.heights.lowerBound(scroll + extent - 1)
	}

	start -= w.cfg.Overscan
	end += w.cfg.Overscan
	if start < 0 {
		start = 0
	}
	if end > w.rows {
		end = w.rows
	}
	if start > end {
		start = end
	}

	r.Start, r.End = start, end
	return r
}

// ScrollToIndex returns the scroll offset that places row i at the top of
// the container: the summed heights of rows [0, i). Unmeasured rows
// contribute the default height. The index is clamped to [0, rows].
func (w *Window) ScrollToIndex(i int) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if i < 0 {
		i = 0
	}
	if i > w.rows {
		i = w.rows
	}
	if w.uniform {
		return i * w.cfg.DefaultRowHeight
	}
	return w.heights.prefix(i)
}

// materialize switches from the arithmetic fast path to the height tree.
// Called with the lock held, on the first per-row override.
func (w *Window) materialize() {
	w.heights = newFenwick(w.rows)
	for i := 0; i < w.rows; i++ {
		w.heights.append(w.cfg.DefaultRowHeight)
	}
	w.uniform = false
}

func (w *Window) totalLocked() int {
	if w.uniform {
		return w.rows * w.cfg.DefaultRowHeight
	}
	return w.heights.total()
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

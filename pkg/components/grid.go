package components

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/gridkit/pkg/viewport"
)

// ---------------------------------------------------------------------------
// Column sizing
// ---------------------------------------------------------------------------

// SizingKind discriminates the three column sizing strategies.
type SizingKind int

const (
	sizingFixed   SizingKind = iota
	sizingPercent            // percentage of total width
	sizingFill               // takes remaining space
)

// ColumnSizing describes how a column's width is computed.
type ColumnSizing struct {
	Kind  SizingKind
	Value int // width for Fixed, percentage 1-100 for Percent, unused for Fill
}

// SizingFixed returns a ColumnSizing that allocates exactly width cells.
func SizingFixed(width int) ColumnSizing {
	if width < 0 {
		width = 0
	}
	return ColumnSizing{Kind: sizingFixed, Value: width}
}

// SizingPercent returns a ColumnSizing that allocates pct% of available width.
func SizingPercent(pct int) ColumnSizing {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return ColumnSizing{Kind: sizingPercent, Value: pct}
}

// SizingFill returns a ColumnSizing that shares remaining space equally with
// other Fill columns.
func SizingFill() ColumnSizing {
	return ColumnSizing{Kind: sizingFill}
}

// ---------------------------------------------------------------------------
// Column and Row
// ---------------------------------------------------------------------------

// Column defines a single column in a Grid. Key identifies the column to
// sort marks and header click zones; Title is what renders.
type Column struct {
	Key      string
	Title    string
	Sizing   ColumnSizing
	Align    Align
	MinWidth int
}

// Row is a single rendered data row. Selected rows get a marker and the
// selected style.
type Row struct {
	ID       string
	Cells    []string
	Selected bool
}

// SortMark annotates a sorted column header with its direction and its
// position in a multi-column sort order (1-based).
type SortMark struct {
	Descending bool
	Priority   int
}

// ---------------------------------------------------------------------------
// Styles
// ---------------------------------------------------------------------------

// Styles bundles the lipgloss styles the grid renders with.
type Styles struct {
	Header    lipgloss.Style
	Cursor    lipgloss.Style
	Selected  lipgloss.Style
	Cell      lipgloss.Style
	Indicator lipgloss.Style
}

// DefaultStyles returns the stock grid appearance.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")),
		Cursor:    lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		Cell:      lipgloss.NewStyle(),
		Indicator: lipgloss.NewStyle().Faint(true),
	}
}

// GridConfig is the configuration used to construct a Grid.
type GridConfig struct {
	Columns    []Column
	Styles     Styles
	ShowHeader bool

	// MarkHeader, when set, wraps each rendered header cell. The TUI layer
	// uses this to register mouse zones keyed by column.
	MarkHeader func(columnKey, rendered string) string
}

// ---------------------------------------------------------------------------
// Grid
// ---------------------------------------------------------------------------

// selMarkerWidth is the cells reserved for the selection marker column.
const selMarkerWidth = 2

// Grid renders a page of rows with a sortable header, selection markers,
// and a movable cursor. It holds presentation state only; filtering,
// sorting, and pagination happen upstream in the pipeline store.
type Grid struct {
	mu           sync.Mutex
	columns      []Column
	rows         []Row
	win          *viewport.Window
	sorts        map[string]SortMark
	styles       Styles
	showHeader   bool
	markHeader   func(string, string) string
	scrollOffset int
	cursor       int
}

// NewGrid creates a Grid from cfg.
func NewGrid(cfg GridConfig) *Grid {
	return &Grid{
		columns: cfg.Columns,
		// Every row draws as exactly one line and the slice shown is
		// exact, so the window stays uniform with no overscan.
		win:        viewport.New(viewport.Config{}),
		sorts:      make(map[string]SortMark),
		styles:     cfg.Styles,
		showHeader: cfg.ShowHeader,
		markHeader: cfg.MarkHeader,
		cursor:     -1,
	}
}

// SetRows replaces the rendered page. The cursor stays on the same row ID
// when it survives the swap, otherwise it clamps into range.
func (g *Grid) SetRows(rows []Row) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var keepID string
	if g.cursor >= 0 && g.cursor < len(g.rows) {
		keepID = g.rows[g.cursor].ID
	}

	g.rows = rows
	g.win.SetRowCount(len(rows))
	g.cursor = -1
	if keepID != "" {
		for i, r := range rows {
			if r.ID == keepID {
				g.cursor = i
				break
			}
		}
	}
	if g.cursor < 0 && len(rows) > 0 {
		g.cursor = 0
	}
	if g.scrollOffset > len(rows) {
		g.scrollOffset = len(rows)
	}
}

// SetSorts replaces the header sort marks, keyed by column key.
func (g *Grid) SetSorts(marks map[string]SortMark) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sorts = marks
}

// CursorDown moves the cursor down one row, clamped to the page.
func (g *Grid) CursorDown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.rows) == 0 {
		return
	}
	if g.cursor < len(g.rows)-1 {
		g.cursor++
	}
}

// CursorUp moves the cursor up one row, clamped to the page.
func (g *Grid) CursorUp() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.rows) == 0 {
		return
	}
	if g.cursor > 0 {
		g.cursor--
	} else {
		g.cursor = 0
	}
}

// Cursor returns the cursor index into the current page, or -1 when the
// page is empty.
func (g *Grid) Cursor() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cursor
}

// CursorRow returns the row under the cursor, or false when there is none.
func (g *Grid) CursorRow() (Row, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cursor < 0 || g.cursor >= len(g.rows) {
		return Row{}, false
	}
	return g.rows[g.cursor], true
}

// ScrollUp moves the viewport up by n rows.
func (g *Grid) ScrollUp(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollOffset -= n
	if g.scrollOffset < 0 {
		g.scrollOffset = 0
	}
}

// ScrollDown moves the viewport down by n rows.
func (g *Grid) ScrollDown(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollOffset += n
	if g.scrollOffset > len(g.rows) {
		g.scrollOffset = len(g.rows)
	}
}

// ScrollToTop scrolls to the first row.
func (g *Grid) ScrollToTop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollOffset = 0
}

// ScrollToBottom scrolls so the last row sits at the top of the viewport
// and moves the cursor onto it.
func (g *Grid) ScrollToBottom() {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.win.RowCount()
	if n == 0 {
		return
	}
	g.scrollOffset = g.win.ScrollToIndex(n - 1)
	g.cursor = n - 1
}

// Render draws the grid into a string of the given dimensions. Each line
// is exactly width visible cells; the output has exactly height lines.
func (g *Grid) Render(width, height int) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if width <= 0 || height <= 0 {
		return ""
	}

	colWidths := g.resolveWidths(width - selMarkerWidth)

	headerLines := 0
	if g.showHeader {
		headerLines = 2 // header row + separator
	}
	dataHeight := height - headerLines
	if dataHeight < 0 {
		dataHeight = 0
	}

	var lines []string
	if g.showHeader {
		lines = append(lines, g.renderHeader(colWidths, width))
		lines = append(lines, g.renderSeparator(colWidths, width))
	}

	if len(g.rows) == 0 && dataHeight > 0 {
		empty := Pad(Truncate("(no rows)", width, "…"), width, AlignCenter)
		lines = append(lines, g.styles.Indicator.Render(empty))
	} else if dataHeight > 0 {
		if g.scrollOffset > len(g.rows) {
			g.scrollOffset = len(g.rows)
		}
		// Keep the cursor visible before deciding on indicators.
		if g.cursor >= 0 {
			if g.cursor < g.scrollOffset {
				g.scrollOffset = g.cursor
			}
			if g.cursor >= g.scrollOffset+dataHeight {
				g.scrollOffset = g.cursor - dataHeight + 1
			}
		}

		topIndicator := g.scrollOffset > 0
		visible := dataHeight
		if topIndicator {
			visible--
		}
		bottomIndicator := g.scrollOffset+visible < len(g.rows)
		if bottomIndicator {
			visible--
		}
		if visible <= 0 {
			topIndicator, bottomIndicator = false, false
			visible = dataHeight
		}

		if topIndicator {
			ind := fmt.Sprintf("▲ %d more", g.scrollOffset)
			lines = append(lines, g.styles.Indicator.Render(Pad(Truncate(ind, width, "…"), width, AlignCenter)))
		}

		rng := g.win.Range(g.scrollOffset, visible)
		for i := rng.Start; i < rng.End; i++ {
			lines = append(lines, g.renderRow(g.rows[i], i, colWidths, width))
		}

		if bottomIndicator {
			ind := fmt.Sprintf("▼ %d more", len(g.rows)-rng.End)
			lines = append(lines, g.styles.Indicator.Render(Pad(Truncate(ind, width, "…"), width, AlignCenter)))
		}
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines[:height], "\n")
}

// ---------------------------------------------------------------------------
// Internal rendering helpers
// ---------------------------------------------------------------------------

func (g *Grid) renderHeader(colWidths []int, totalWidth int) string {
	var sb strings.Builder
	sb.WriteString(g.styles.Header.Render(strings.Repeat(" ", selMarkerWidth)))

	used := selMarkerWidth
	for i, col := range g.columns {
		if i >= len(colWidths) || colWidths[i] <= 0 {
			continue
		}
		w := colWidths[i]

		title := col.Title
		if mark, ok := g.sorts[col.Key]; ok {
			caret := "▲"
			if mark.Descending {
				caret = "▼"
			}
			if len(g.sorts) > 1 && mark.Priority > 0 {
				caret = fmt.Sprintf("%s%d", caret, mark.Priority)
			}
			title = title + " " + caret
		}

		cell := g.styles.Header.Render(Pad(Truncate(title, w, "…"), w, col.Align))
		if g.markHeader != nil {
			cell = g.markHeader(col.Key, cell)
		}
		sb.WriteString(cell)
		used += w
	}

	if used < totalWidth {
		sb.WriteString(g.styles.Header.Render(strings.Repeat(" ", totalWidth-used)))
	}
	return sb.String()
}

func (g *Grid) renderSeparator(colWidths []int, totalWidth int) string {
	return g.styles.Indicator.Render(strings.Repeat("─", totalWidth))
}

func (g *Grid) renderRow(row Row, rowIndex int, colWidths []int, totalWidth int) string {
	style := g.styles.Cell
	if rowIndex == g.cursor {
		style = g.styles.Cursor
	} else if row.Selected {
		style = g.styles.Selected
	}

	marker := "  "
	if row.Selected {
		marker = "▎ "
	}

	var sb strings.Builder
	sb.WriteString(marker)

	used := selMarkerWidth
	for i := range g.columns {
		if i >= len(colWidths) || colWidths[i] <= 0 {
			continue
		}
		w := colWidths[i]
		cell := ""
		if i < len(row.Cells) {
			cell = row.Cells[i]
		}
		sb.WriteString(Pad(Truncate(cell, w, "…"), w, g.columns[i].Align))
		used += w
	}
	if used < totalWidth {
		sb.WriteString(strings.Repeat(" ", totalWidth-used))
	}
	return style.Render(sb.String())
}

// ---------------------------------------------------------------------------
// Column width resolution
// ---------------------------------------------------------------------------

// resolveWidths distributes the available width over the columns: fixed
// first, then percent, then fill columns share the rest; MinWidth steals
// back from fill columns when a column came up short.
func (g *Grid) resolveWidths(totalWidth int) []int {
	n := len(g.columns)
	if n == 0 || totalWidth <= 0 {
		return nil
	}

	widths := make([]int, n)
	remaining := totalWidth

	for i, col := range g.columns {
		if col.Sizing.Kind == sizingFixed {
			w := col.Sizing.Value
			if w > remaining {
				w = remaining
			}
			widths[i] = w
			remaining -= w
		}
	}

	for i, col := range g.columns {
		if col.Sizing.Kind == sizingPercent {
			w := (totalWidth * col.Sizing.Value) / 100
			if w > remaining {
				w = remaining
			}
			widths[i] = w
			remaining -= w
		}
	}

	fillCount := 0
	for _, col := range g.columns {
		if col.Sizing.Kind == sizingFill {
			fillCount++
		}
	}
	if fillCount > 0 && remaining > 0 {
		each := remaining / fillCount
		extra := remaining % fillCount
		filled := 0
		for i, col := range g.columns {
			if col.Sizing.Kind == sizingFill {
				w := each
				if filled < extra {
					w++
				}
				widths[i] = w
				filled++
			}
		}
	}

	for i, col := range g.columns {
		if col.MinWidth > 0 && widths[i] < col.MinWidth {
			deficit := col.MinWidth - widths[i]
			widths[i] = col.MinWidth
			for j := n - 1; j >= 0 && deficit > 0; j-- {
				if j == i || g.columns[j].Sizing.Kind != sizingFill {
					continue
				}
				canSteal := widths[j] - g.columns[j].MinWidth
				if canSteal <= 0 {
					continue
				}
				steal := deficit
				if steal > canSteal {
					steal = canSteal
				}
				widths[j] -= steal
				deficit -= steal
			}
		}
	}

	return widths
}

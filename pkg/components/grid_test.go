package components

import (
	"regexp"
	"strings"
	"testing"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func lineCount(s string) int {
	return len(strings.Split(s, "\n"))
}

func testColumns() []Column {
	return []Column{
		{Key: "name", Title: "Name", Sizing: SizingFill(), MinWidth: 4},
		{Key: "cpu", Title: "CPU%", Sizing: SizingFixed(8), Align: AlignRight},
		{Key: "mem", Title: "Mem%", Sizing: SizingPercent(20), Align: AlignRight},
	}
}

func testGrid() *Grid {
	return NewGrid(GridConfig{
		Columns:    testColumns(),
		Styles:     DefaultStyles(),
		ShowHeader: true,
	})
}

func TestRenderDimensions(t *testing.T) {
	g := testGrid()
	g.SetRows([]Row{
		{ID: "1", Cells: []string{"systemd", "0.1", "0.4"}},
		{ID: "2", Cells: []string{"gridkit", "2.0", "1.1"}},
	})

	out := g.Render(60, 10)
	if got := lineCount(out); got != 10 {
		t.Fatalf("expected 10 lines, got %d", got)
	}
	for i, line := range strings.Split(out, "\n") {
		if w := VisibleLen(line); w != 60 {
			t.Errorf("line %d: width %d, want 60", i, w)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	g := testGrid()
	out := stripANSI(g.Render(40, 5))
	if !strings.Contains(out, "(no rows)") {
		t.Fatalf("empty grid should show placeholder, got %q", out)
	}
}

func TestHeaderSortCarets(t *testing.T) {
	g := testGrid()
	g.SetRows([]Row{{ID: "1", Cells: []string{"a", "1", "1"}}})

	g.SetSorts(map[string]SortMark{"cpu": {Descending: true, Priority: 1}})
	out := stripANSI(g.Render(60, 5))
	if !strings.Contains(out, "CPU% ▼") {
		t.Fatalf("descending sort caret missing: %q", out)
	}

	// Multi-column sorts get 1-based priority digits.
	g.SetSorts(map[string]SortMark{
		"cpu":  {Descending: true, Priority: 1},
		"name": {Priority: 2},
	})
	out = stripANSI(g.Render(60, 5))
	if !strings.Contains(out, "▼1") || !strings.Contains(out, "▲2") {
		t.Fatalf("multi-sort priorities missing: %q", out)
	}
}

func TestSelectionMarker(t *testing.T) {
	g := testGrid()
	g.SetRows([]Row{
		{ID: "1", Cells: []string{"plain", "1", "1"}},
		{ID: "2", Cells: []string{"picked", "2", "2"}, Selected: true},
	})

	out := stripANSI(g.Render(60, 6))
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "picked") && !strings.Contains(line, "▎") {
			t.Fatalf("selected row missing marker: %q", line)
		}
		if strings.Contains(line, "plain") && strings.Contains(line, "▎") {
			t.Fatalf("unselected row has marker: %q", line)
		}
	}
}

func TestCursorFollowsRowID(t *testing.T) {
	g := testGrid()
	g.SetRows([]Row{
		{ID: "a", Cells: []string{"a", "", ""}},
		{ID: "b", Cells: []string{"b", "", ""}},
		{ID: "c", Cells: []string{"c", "", ""}},
	})
	g.CursorDown()
	if g.Cursor() != 1 {
		t.Fatalf("cursor = %d, want 1", g.Cursor())
	}

	// Re-sorted page: the cursor sticks to row "b" at its new index.
	g.SetRows([]Row{
		{ID: "c", Cells: []string{"c", "", ""}},
		{ID: "b", Cells: []string{"b", "", ""}},
		{ID: "a", Cells: []string{"a", "", ""}},
	})
	if g.Cursor() != 1 {
		t.Fatalf("cursor = %d after reorder, want 1", g.Cursor())
	}

	// Row gone: cursor clamps to the top.
	g.SetRows([]Row{{ID: "a", Cells: []string{"a", "", ""}}})
	if g.Cursor() != 0 {
		t.Fatalf("cursor = %d after removal, want 0", g.Cursor())
	}
}

func TestCursorClamps(t *testing.T) {
	g := testGrid()
	g.SetRows([]Row{
		{ID: "1", Cells: []string{"x", "", ""}},
		{ID: "2", Cells: []string{"y", "", ""}},
	})
	for i := 0; i < 10; i++ {
		g.CursorDown()
	}
	if g.Cursor() != 1 {
		t.Fatalf("cursor = %d, want 1", g.Cursor())
	}
	for i := 0; i < 10; i++ {
		g.CursorUp()
	}
	if g.Cursor() != 0 {
		t.Fatalf("cursor = %d, want 0", g.Cursor())
	}
}

func TestScrollIndicators(t *testing.T) {
	g := NewGrid(GridConfig{Columns: testColumns(), Styles: DefaultStyles()})
	rows := make([]Row, 20)
	for i := range rows {
		rows[i] = Row{ID: string(rune('a' + i)), Cells: []string{"row", "", ""}}
	}
	g.SetRows(rows)
	for i := 0; i < 10; i++ {
		g.CursorDown()
	}
	g.ScrollDown(5)

	out := stripANSI(g.Render(40, 8))
	if !strings.Contains(out, "▲") || !strings.Contains(out, "▼") {
		t.Fatalf("expected both scroll indicators: %q", out)
	}
}

func TestScrollToBottom(t *testing.T) {
	g := NewGrid(GridConfig{Columns: testColumns(), Styles: DefaultStyles()})
	rows := make([]Row, 30)
	for i := range rows {
		rows[i] = Row{ID: string(rune('a' + i)), Cells: []string{"proc" + string(rune('a'+i)), "", ""}}
	}
	g.SetRows(rows)
	g.ScrollToBottom()

	if got := g.Cursor(); got != 29 {
		t.Fatalf("cursor = %d, want 29", got)
	}
	out := stripANSI(g.Render(40, 6))
	if !strings.Contains(out, "proc"+string(rune('a'+29))) {
		t.Fatalf("last row not visible after scroll to bottom: %q", out)
	}
	if strings.Contains(out, "▼") {
		t.Fatalf("no rows remain below, yet bottom indicator rendered: %q", out)
	}
}

func TestVisibleSliceClampedToRowCount(t *testing.T) {
	g := NewGrid(GridConfig{Columns: testColumns(), Styles: DefaultStyles()})
	g.SetRows([]Row{
		{ID: "1", Cells: []string{"alpha", "", ""}},
		{ID: "2", Cells: []string{"beta", "", ""}},
	})
	g.ScrollDown(10)

	out := stripANSI(g.Render(40, 6))
	if !strings.Contains(out, "alpha") || !strings.Contains(out, "beta") {
		t.Fatalf("overscrolled grid should still show both rows: %q", out)
	}
}

func TestMarkHeaderWrapsCells(t *testing.T) {
	var marked []string
	g := NewGrid(GridConfig{
		Columns:    testColumns(),
		Styles:     DefaultStyles(),
		ShowHeader: true,
		MarkHeader: func(key, rendered string) string {
			marked = append(marked, key)
			return rendered
		},
	})
	g.Render(60, 3)
	if len(marked) != 3 {
		t.Fatalf("marked %d headers, want 3: %v", len(marked), marked)
	}
}

func TestResolveWidthsMinWidthSteal(t *testing.T) {
	g := NewGrid(GridConfig{Columns: []Column{
		{Key: "a", Sizing: SizingFixed(30), MinWidth: 30},
		{Key: "b", Sizing: SizingFill(), MinWidth: 5},
		{Key: "c", Sizing: SizingFixed(2), MinWidth: 8},
	}})
	widths := g.resolveWidths(40)
	if widths[2] != 8 {
		t.Fatalf("min width not enforced: %v", widths)
	}
	total := widths[0] + widths[1] + widths[2]
	if total > 43 {
		t.Fatalf("widths overflow badly: %v", widths)
	}
}

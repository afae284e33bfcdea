package tui

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/gridkit/pkg/collectors"
	"gitlab.com/tinyland/lab/gridkit/pkg/components"
	"gitlab.com/tinyland/lab/gridkit/pkg/filter"
	"gitlab.com/tinyland/lab/gridkit/pkg/pipeline"
	"gitlab.com/tinyland/lab/gridkit/pkg/preset"
	"gitlab.com/tinyland/lab/gridkit/pkg/watchdog"
)

// chrome is the lines used outside the grid: status bar, filter line,
// and help footer.
const chrome = 3

// Options configures the TUI model. Store, Watchdog, Registry and Source
// are required.
type Options struct {
	Store    *pipeline.Store[pipeline.MapRow]
	Watchdog *watchdog.Watchdog
	Registry *collectors.Registry
	Source   string
	Columns  []collectors.Column
	Interval time.Duration
	Logger   *slog.Logger

	// Styles overrides the grid appearance; nil means DefaultStyles.
	Styles *components.Styles
}

// notices collects watchdog events delivered outside the update loop.
type notices struct {
	mu   sync.Mutex
	last string
}

func (n *notices) set(s string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last = s
}

func (n *notices) get() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// Model is the root Bubbletea model.
type Model struct {
	opts    Options
	keys    keyMap
	grid    *components.Grid
	zones   *zone.Manager
	filt    textinput.Model
	spin    spinner.Model
	help    help.Model
	notices *notices
	unsub   func()

	width     int
	height    int
	filtering bool
	presetIdx int
	quitting  bool
}

// New builds the TUI model around an already wired engine.
func New(opts Options) *Model {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cols := make([]components.Column, len(opts.Columns))
	for i, c := range opts.Columns {
		gc := components.Column{Key: c.Name, Title: c.Title, Sizing: components.SizingFill(), MinWidth: 4}
		if c.Width > 0 {
			gc.Sizing = components.SizingFixed(c.Width)
		}
		if c.Type == filter.TypeNumber {
			gc.Align = components.AlignRight
		}
		cols[i] = gc
	}

	styles := components.DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}

	zones := zone.New()
	grid := components.NewGrid(components.GridConfig{
		Columns:    cols,
		Styles:     styles,
		ShowHeader: true,
		MarkHeader: func(key, rendered string) string {
			return zones.Mark("hdr:"+key, rendered)
		},
	})

	ti := textinput.New()
	ti.Placeholder = "filter by name…"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		opts:    opts,
		keys:    defaultKeyMap(),
		grid:    grid,
		zones:   zones,
		filt:    ti,
		spin:    sp,
		help:    help.New(),
		notices: &notices{},
	}

	m.unsub = opts.Watchdog.Subscribe(func(ev watchdog.Event) {
		switch ev.Kind {
		case watchdog.EventForcedReset:
			m.notices.set("loading state force-reset")
		case watchdog.EventRecovered:
			m.notices.set("recovered from collector error")
		case watchdog.EventRecoveryFailed:
			m.notices.set(fmt.Sprintf("collector unhealthy: %v", ev.Err))
		}
	})

	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.startCollect(), tickCmd(time.Second))
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.syncGrid()
		return m, nil

	case TickMsg:
		m.opts.Watchdog.Check()
		m.syncGrid()
		return m, tickCmd(time.Second)

	case CollectDueMsg:
		return m, m.startCollect()

	case SnapshotMsg:
		if msg.Err != nil {
			m.opts.Watchdog.ReportError(msg.Err)
		} else {
			m.opts.Watchdog.StopLoading()
			m.opts.Store.SetData(msg.Snapshot.Rows)
		}
		m.syncGrid()
		return m, collectDueCmd(m.opts.Interval)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.grid.ScrollUp(3)
		return m, nil
	case tea.MouseButtonWheelDown:
		m.grid.ScrollDown(3)
		return m, nil
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionRelease {
			return m, nil
		}
		for _, c := range m.opts.Columns {
			if m.zones.Get("hdr:" + c.Name).InBounds(msg) {
				m.cycleSort(c.Name)
				m.syncGrid()
				break
			}
		}
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		switch msg.Type {
		case tea.KeyEnter:
			m.applyQuickFilter(m.filt.Value())
			m.filtering = false
			m.filt.Blur()
			m.syncGrid()
			return m, nil
		case tea.KeyEsc:
			m.filtering = false
			m.filt.Blur()
			m.filt.Reset()
			m.opts.Store.RemoveFilter("name")
			m.syncGrid()
			return m, nil
		}
		var cmd tea.Cmd
		m.filt, cmd = m.filt.Update(msg)
		return m, cmd
	}

	keys := m.keys
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, keys.Up):
		m.grid.CursorUp()
	case key.Matches(msg, keys.Down):
		m.grid.CursorDown()
	case key.Matches(msg, keys.Top):
		m.grid.ScrollToTop()
	case key.Matches(msg, keys.Bottom):
		m.grid.ScrollToBottom()
	case key.Matches(msg, keys.PrevPage):
		p := m.opts.Store.Pagination()
		m.opts.Store.SetCurrentPage(p.CurrentPage - 1)
		m.syncGrid()
	case key.Matches(msg, keys.NextPage):
		p := m.opts.Store.Pagination()
		m.opts.Store.SetCurrentPage(p.CurrentPage + 1)
		m.syncGrid()
	case key.Matches(msg, keys.Toggle):
		if row, ok := m.grid.CursorRow(); ok {
			m.opts.Store.ToggleRowSelection(row.ID)
			m.syncGrid()
		}
	case key.Matches(msg, keys.SelectAll):
		m.opts.Store.SelectAllRows()
		m.syncGrid()
	case key.Matches(msg, keys.ClearSel):
		m.opts.Store.ClearSelection()
		m.syncGrid()
	case key.Matches(msg, keys.Filter):
		m.filtering = true
		m.filt.Focus()
		return m, textinput.Blink
	case key.Matches(msg, keys.ClearFilt):
		m.filt.Reset()
		m.opts.Store.ClearAllFilters()
		m.syncGrid()
	case key.Matches(msg, keys.Preset):
		names := preset.Names()
		m.presetIdx = (m.presetIdx + 1) % len(names)
		preset.Apply(preset.Get(names[m.presetIdx]), m.opts.Store)
		m.notices.set("preset: " + names[m.presetIdx])
		m.syncGrid()
	case key.Matches(msg, keys.Refresh):
		return m, m.startCollect()
	case key.Matches(msg, keys.ForceReset):
		m.opts.Watchdog.ForceReset()
		m.syncGrid()
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width <= 0 || m.height <= chrome {
		return "terminal too small"
	}

	gridH := m.height - chrome
	var b strings.Builder
	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	b.WriteString(m.grid.Render(m.width, gridH))
	b.WriteByte('\n')
	if m.filtering {
		b.WriteString(m.filt.View())
	} else if m.filt.Value() != "" {
		b.WriteString(lipgloss.NewStyle().Faint(true).Render("filter: " + m.filt.Value()))
	}
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))

	return m.zones.Scan(b.String())
}

// Close tears down subscriptions and the zone manager.
func (m *Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
	m.zones.Close()
}

// ---------------------------------------------------------------------------
// Engine glue
// ---------------------------------------------------------------------------

// startCollect marks the watchdog loading and kicks off one cycle.
func (m *Model) startCollect() tea.Cmd {
	m.opts.Watchdog.StartLoading()
	return collectCmd(m.opts.Registry, m.opts.Source)
}

// syncGrid pushes the store's current page and sort order into the grid.
func (m *Model) syncGrid() {
	st := m.opts.Store
	ids := st.DisplayIDs()
	sel := st.Selection()

	rows := make([]components.Row, 0, len(ids))
	for _, id := range ids {
		raw, ok := st.Row(id)
		if !ok {
			continue
		}
		cells := make([]string, len(m.opts.Columns))
		for i, c := range m.opts.Columns {
			cells[i] = formatCell(raw[c.Name], c.Type)
		}
		rows = append(rows, components.Row{ID: id, Cells: cells, Selected: sel.IsSelected(id)})
	}
	m.grid.SetRows(rows)

	marks := make(map[string]components.SortMark)
	for i, sp := range st.SortSpecs() {
		marks[sp.Column] = components.SortMark{
			Descending: sp.Direction == pipeline.Descending,
			Priority:   i + 1,
		}
	}
	m.grid.SetSorts(marks)
}

// cycleSort advances a column through ascending, descending, unsorted.
func (m *Model) cycleSort(column string) {
	st := m.opts.Store
	for _, sp := range st.SortSpecs() {
		if sp.Column != column {
			continue
		}
		if sp.Direction == pipeline.Ascending {
			st.AddSort(column, pipeline.Descending)
		} else {
			st.ClearSorting()
		}
		return
	}
	st.AddSort(column, pipeline.Ascending)
}

// applyQuickFilter installs a contains filter on the name column.
func (m *Model) applyQuickFilter(query string) {
	st := m.opts.Store
	if strings.TrimSpace(query) == "" {
		st.RemoveFilter("name")
		return
	}
	st.ApplyFilter("name", filter.ColumnFilter{
		ColumnName: "name",
		FilterType: string(filter.TypeText),
		Conditions: []filter.Condition{{
			Field:    "name",
			Operator: filter.OpContains,
			Value:    query,
			DataType: filter.TypeText,
		}},
		IsActive: true,
	})
}

func (m *Model) statusLine() string {
	st := m.opts.Store
	wd := m.opts.Watchdog
	p := st.Pagination()

	var parts []string
	if wd.IsLoading() {
		parts = append(parts, m.spin.View()+"collecting")
	} else {
		parts = append(parts, wd.CurrentState().String())
	}
	parts = append(parts, fmt.Sprintf("page %d/%d", p.CurrentPage, max(p.TotalPages, 1)))
	parts = append(parts, fmt.Sprintf("%d rows", p.TotalItems))
	if n := st.Selection().Count(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if d := st.LastFilterLatency(); d > 0 {
		parts = append(parts, fmt.Sprintf("filter %s", d.Round(time.Microsecond)))
	}
	if notice := m.notices.get(); notice != "" {
		parts = append(parts, notice)
	}

	line := strings.Join(parts, " · ")
	line = components.Truncate(line, m.width, "…")
	return lipgloss.NewStyle().Bold(true).Render(components.Pad(line, m.width, components.AlignLeft))
}

// formatCell renders a raw field value for display.
func formatCell(v any, dt filter.DataType) string {
	if v == nil {
		return ""
	}
	if dt == filter.TypeNumber {
		if f, ok := filter.Number(v); ok {
			if f == float64(int64(f)) {
				return strconv.FormatInt(int64(f), 10)
			}
			return strconv.FormatFloat(f, 'f', 1, 64)
		}
	}
	return filter.Text(v)
}

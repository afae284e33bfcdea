// gridkit is an interactive process grid for the terminal.
//
// It polls the local process table, runs each snapshot through a
// filter/sort/paginate pipeline, and renders the result as a sortable,
// selectable Bubbletea grid. A loading watchdog supervises the collector
// so a wedged cycle can never leave the UI stuck on a spinner.
//
// Usage:
//
//	gridkit [flags]
//
// Flags:
//
//	-config string   Path to configuration file (default: XDG search)
//	-preset string   Named view preset to start with (default "default")
//	-presets         List available presets and exit
//	-page-size int   Rows per page override (0 = preset/config value)
//	-once            Collect one snapshot, print the grid, and exit
//	-verbose         Enable verbose logging
//	-version         Print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xterm "github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"gitlab.com/tinyland/lab/gridkit/pkg/collectors"
	"gitlab.com/tinyland/lab/gridkit/pkg/collectors/procs"
	"gitlab.com/tinyland/lab/gridkit/pkg/components"
	"gitlab.com/tinyland/lab/gridkit/pkg/config"
	"gitlab.com/tinyland/lab/gridkit/pkg/filter"
	"gitlab.com/tinyland/lab/gridkit/pkg/pipeline"
	"gitlab.com/tinyland/lab/gridkit/pkg/preset"
	"gitlab.com/tinyland/lab/gridkit/pkg/sched"
	"gitlab.com/tinyland/lab/gridkit/pkg/selection"
	"gitlab.com/tinyland/lab/gridkit/pkg/theme"
	"gitlab.com/tinyland/lab/gridkit/pkg/tui"
	"gitlab.com/tinyland/lab/gridkit/pkg/watchdog"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		presetName  = flag.String("preset", "", "Named view preset to start with")
		listPresets = flag.Bool("presets", false, "List available presets and exit")
		pageSize    = flag.Int("page-size", 0, "Rows per page override")
		runOnce     = flag.Bool("once", false, "Collect one snapshot, print the grid, and exit")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("gridkit %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// User presets shadow builtins with the same name.
	if cfg.General.PresetPath != "" {
		if err := preset.LoadFile(cfg.General.PresetPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load presets: %v\n", err)
			os.Exit(1)
		}
	}

	if *listPresets {
		for _, name := range preset.Names() {
			p := preset.Get(name)
			fmt.Printf("%-12s %s\n", name, p.Description)
		}
		os.Exit(0)
	}

	logLevel := parseLogLevel(cfg.General.LogLevel)
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	// Wire the engine: collector -> store -> watchdog.
	timers := sched.NewTimers()
	defer timers.Stop()
	clock := sched.SystemClock()

	sel := selection.NewManager(selection.Config{
		DebounceThreshold: cfg.Selection.DebounceThreshold,
		DebounceInterval:  cfg.Selection.DebounceInterval.Duration,
		BatchThreshold:    cfg.Selection.BatchThreshold,
		BatchSize:         cfg.Selection.BatchSize,
	}, timers, clock, logger)

	store := pipeline.NewStore(pipeline.MapAccessor("id"), pipeline.Config{
		PageSize:             cfg.Engine.PageSize,
		UniqueValueCacheSize: cfg.Engine.UniqueValueCacheSize,
		Selection:            sel,
		Scheduler:            timers,
		Clock:                clock,
		Logger:               logger,
	})
	defer store.Close()

	source := procs.New(procs.Config{Interval: cfg.Collector.Interval.Duration})
	registry := collectors.NewRegistry()
	if err := registry.Register(source); err != nil {
		logger.Error("failed to register source", "error", err)
		os.Exit(1)
	}

	probe := func() (bool, error) {
		st, ok := registry.Status(source.Name())
		if !ok || st.Healthy {
			return false, nil
		}
		return false, st.LastError
	}
	wd := watchdog.New(watchdog.Config{
		MaxConsecutiveStarts: cfg.Watchdog.MaxConsecutiveStarts,
		LoadingBudget:        cfg.Watchdog.LoadingBudget.Duration,
		MaxRecoveryAttempts:  cfg.Watchdog.MaxRecoveryAttempts,
		RecoveryInterval:     cfg.Watchdog.RecoveryInterval.Duration,
	}, timers, clock, probe, logger)
	defer wd.Close()

	if cfg.General.ThemePath != "" {
		if _, err := theme.LoadFile(cfg.General.ThemePath); err != nil {
			logger.Error("failed to load theme", "error", err)
			os.Exit(1)
		}
	}
	styles := theme.Get(cfg.General.Theme).Styles()

	startPreset := *presetName
	if startPreset == "" {
		startPreset = "default"
	}
	preset.Apply(preset.Get(startPreset), store)
	if *pageSize > 0 {
		store.SetPageSize(*pageSize)
	}

	if *runOnce {
		if err := runOnceMode(ctx, registry, source, store, styles); err != nil {
			logger.Error("snapshot failed", "error", err)
			os.Exit(1)
		}
		return
	}

	model := tui.New(tui.Options{
		Store:    store,
		Watchdog: wd,
		Registry: registry,
		Source:   source.Name(),
		Columns:  source.Columns(),
		Interval: source.Interval(),
		Logger:   logger,
		Styles:   &styles,
	})
	defer model.Close()

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		logger.Error("TUI error", "error", err)
		os.Exit(1)
	}
}

// runOnceMode prints a single snapshot to stdout and exits. Output is
// plain text when stdout is not a terminal.
func runOnceMode(ctx context.Context, reg *collectors.Registry, source *procs.Source, store *pipeline.Store[pipeline.MapRow], styles components.Styles) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	snap, err := reg.Collect(cctx, source.Name())
	if err != nil {
		return err
	}
	store.SetData(snap.Rows)

	width := 100
	if w, _, err := xterm.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		width = w
	}
	height := len(store.DisplayIDs()) + 2

	cols := make([]components.Column, 0, len(source.Columns()))
	for _, c := range source.Columns() {
		gc := components.Column{Key: c.Name, Title: c.Title, Sizing: components.SizingFill(), MinWidth: 4}
		if c.Width > 0 {
			gc.Sizing = components.SizingFixed(c.Width)
		}
		if c.Type == filter.TypeNumber {
			gc.Align = components.AlignRight
		}
		cols = append(cols, gc)
	}
	grid := components.NewGrid(components.GridConfig{
		Columns:    cols,
		Styles:     styles,
		ShowHeader: true,
	})

	ids := store.DisplayIDs()
	rows := make([]components.Row, 0, len(ids))
	for _, id := range ids {
		raw, ok := store.Row(id)
		if !ok {
			continue
		}
		cells := make([]string, len(source.Columns()))
		for i, c := range source.Columns() {
			cells[i] = filter.Text(raw[c.Name])
		}
		rows = append(rows, components.Row{ID: id, Cells: cells})
	}
	grid.SetRows(rows)

	fmt.Println(grid.Render(width, height))
	return nil
}

// parseLogLevel maps a config string to a slog level, defaulting to Info.
func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

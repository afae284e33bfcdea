// Package watchdog supervises a shared busy/loading flag so the engine can
// never remain permanently stuck in a transient "busy" state. It is a small
// finite-state machine over Idle, Loading, ErrorRecovering and ForcedReset:
// re-entrant loading calls, an exceeded dwell budget, and exhausted
// recovery attempts all funnel into one forced reset that clears every
// timer and counter and notifies downstream consumers exactly once.
package watchdog

import (
	"log/slog"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/gridkit/pkg/notify"
	"gitlab.com/tinyland/lab/gridkit/pkg/sched"
)

// State is the supervisor's current FSM state. ForcedReset is transient:
// it is observable in the reset Event but the machine always comes to rest
// in Idle.
type State int

const (
	Idle State = iota
	Loading
	ErrorRecovering
	ForcedReset
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case ErrorRecovering:
		return "error-recovering"
	case ForcedReset:
		return "forced-reset"
	default:
		return "unknown"
	}
}

// EventKind discriminates watchdog notifications.
type EventKind int

const (
	EventLoadingStarted EventKind = iota
	EventLoadingStopped
	EventForcedReset
	EventRecovered
	EventRecoveryFailed
)

// Event is delivered to subscribers on every state transition.
type Event struct {
	Kind  EventKind
	State State
	Err   error
}

// LoadingState is the externally visible loading snapshot.
type LoadingState struct {
	IsLoading             bool
	LoadingStart          time.Time
	ConsecutiveStartCount int
}

// Probe reports the dependent collaborator's condition during recovery.
// Recovery succeeds only when the collaborator is neither loading nor in
// error.
type Probe func() (loading bool, err error)

// Config controls the supervisor's budgets.
type Config struct {
	// MaxConsecutiveStarts is how many StartLoading calls may pile up
	// without a StopLoading before a forced reset. Zero means 5.
	MaxConsecutiveStarts int

	// LoadingBudget is the maximum Loading dwell time, enforced by
	// Check. Zero means 10s.
	LoadingBudget time.Duration

	// MaxRecoveryAttempts bounds retries in ErrorRecovering. Zero
	// means 5.
	MaxRecoveryAttempts int

	// RecoveryInterval is the pause between recovery attempts. Zero
	// means 250ms.
	RecoveryInterval time.Duration
}

func (c Config) defaults() Config {
	if c.MaxConsecutiveStarts <= 0 {
		c.MaxConsecutiveStarts = 5
	}
	if c.LoadingBudget <= 0 {
		c.LoadingBudget = 10 * time.Second
	}
	if c.MaxRecoveryAttempts <= 0 {
		c.MaxRecoveryAttempts = 5
	}
	if c.RecoveryInterval <= 0 {
		c.RecoveryInterval = 250 * time.Millisecond
	}
	return c
}

// Watchdog is the supervisor. All methods are safe for concurrent use.
type Watchdog struct {
	mu     sync.Mutex
	cfg    Config
	sch    sched.Scheduler
	clock  sched.Clock
	logger *slog.Logger
	pub    *notify.Publisher[Event]
	probe  Probe

	state             State
	loadingStart      time.Time
	consecutiveStarts int
	recoveryAttempts  int
	recoveryTimer     sched.Handle // 0 = none
	lastErr           error
	closed            bool
}

// New creates a Watchdog. scheduler and clock must be non-nil; probe may
// be nil if ReportError is never used; a nil logger falls back to
// slog.Default().
func New(cfg Config, scheduler sched.Scheduler, clock sched.Clock, probe Probe, logger *slog.Logger) *Watchdog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watchdog{
		cfg:    cfg.defaults(),
		sch:    scheduler,
		clock:  clock,
		logger: logger,
		pub:    notify.NewPublisher[Event](logger),
		probe:  probe,
	}
}

// Subscribe registers a listener for watchdog events and returns its
// unsubscribe function.
func (w *Watchdog) Subscribe(fn func(Event)) func() {
	return w.pub.Subscribe(fn)
}

// StartLoading marks the supervised resource busy. Re-entrant calls while
// already Loading increment the consecutive-start counter; exceeding the
// configured maximum forces an immediate reset without waiting for the
// dwell budget, protecting against call sites that re-enter loading
// without ever completing.
func (w *Watchdog) StartLoading() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}

	if w.state == Loading {
		w.consecutiveStarts++
		if w.consecutiveStarts > w.cfg.MaxConsecutiveStarts {
			w.logger.Warn("watchdog: loading re-entered past limit, forcing reset",
				"calls", w.consecutiveStarts)
			w.forceResetLocked() // unlocks
			return
		}
		w.mu.Unlock()
		return
	}

	w.state = Loading
	w.loadingStart = w.clock.Now()
	w.consecutiveStarts = 1
	ev := Event{Kind: EventLoadingStarted, State: Loading}
	w.mu.Unlock()

	w.pub.Publish(ev)
}

// StopLoading marks the supervised resource idle again and clears the
// consecutive-start counter. A stop without a matching start is a no-op.
func (w *Watchdog) StopLoading() {
	w.mu.Lock()
	if w.state != Loading {
		w.mu.Unlock()
		return
	}
	w.state = Idle
	w.consecutiveStarts = 0
	ev := Event{Kind: EventLoadingStopped, State: Idle}
	w.mu.Unlock()

	w.pub.Publish(ev)
}

// Check is the periodic watchdog pulse, invoked from the host's
// render/update path. A Loading state older than the dwell budget is
// force-reset.
func (w *Watchdog) Check() {
	w.mu.Lock()
	if w.state != Loading {
		w.mu.Unlock()
		return
	}
	elapsed := w.clock.Now().Sub(w.loadingStart)
	if elapsed <= w.cfg.LoadingBudget {
		w.mu.Unlock()
		return
	}
	w.logger.Warn("watchdog: loading exceeded dwell budget, forcing reset",
		"elapsed", elapsed, "budget", w.cfg.LoadingBudget)
	w.forceResetLocked() // unlocks
}

// ReportError moves the supervisor into ErrorRecovering and schedules
// recovery attempts. Between attempts the probe is re-checked; recovery
// succeeds only once the dependent collaborator reports not-loading and
// no error. Exhausting the attempts stops loading and leaves a persistent
// surfaced error instead of retrying forever.
func (w *Watchdog) ReportError(err error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.lastErr = err
	w.state = ErrorRecovering
	w.recoveryAttempts = 0
	if w.recoveryTimer != 0 {
		w.sch.Cancel(w.recoveryTimer)
	}
	w.recoveryTimer = w.sch.After(w.cfg.RecoveryInterval, w.attemptRecovery)
	w.mu.Unlock()
}

func (w *Watchdog) attemptRecovery() {
	w.mu.Lock()
	if w.state != ErrorRecovering || w.recoveryTimer == 0 {
		w.mu.Unlock()
		return
	}
	w.recoveryTimer = 0
	w.recoveryAttempts++
	attempt := w.recoveryAttempts

	var loading bool
	var err error
	if w.probe != nil {
		loading, err = w.probe()
	}

	if !loading && err == nil {
		w.state = Idle
		w.lastErr = nil
		w.recoveryAttempts = 0
		ev := Event{Kind: EventRecovered, State: Idle}
		w.mu.Unlock()
		w.pub.Publish(ev)
		return
	}

	if attempt >= w.cfg.MaxRecoveryAttempts {
		w.logger.Error("watchdog: recovery attempts exhausted",
			"attempts", attempt, "error", w.lastErr)
		w.state = Idle
		w.consecutiveStarts = 0
		ev := Event{Kind: EventRecoveryFailed, State: Idle, Err: w.lastErr}
		w.mu.Unlock()
		w.pub.Publish(ev)
		return
	}

	w.recoveryTimer = w.sch.After(w.cfg.RecoveryInterval, w.attemptRecovery)
	w.mu.Unlock()
}

// ForceReset unconditionally resets the supervisor: every pending timer
// is cancelled, all counters and flags clear, the state returns to Idle,
// and exactly one reset notification fires.
func (w *Watchdog) ForceReset() {
	w.mu.Lock()
	w.forceResetLocked()
}

// forceResetLocked implements ForceReset. Called with the lock held;
// releases it.
func (w *Watchdog) forceResetLocked() {
	if w.recoveryTimer != 0 {
		w.sch.Cancel(w.recoveryTimer)
		w.recoveryTimer = 0
	}
	w.state = ForcedReset
	w.consecutiveStarts = 0
	w.recoveryAttempts = 0
	w.lastErr = nil
	w.loadingStart = time.Time{}
	w.state = Idle
	ev := Event{Kind: EventForcedReset, State: Idle}
	w.mu.Unlock()

	w.pub.Publish(ev)
}

// IsLoading reports whether the supervised resource is busy.
func (w *Watchdog) IsLoading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == Loading
}

// CurrentState returns the FSM state.
func (w *Watchdog) CurrentState() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Err returns the persistent surfaced error after exhausted recovery, or
// nil.
func (w *Watchdog) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Loading returns the externally visible loading snapshot.
func (w *Watchdog) Loading() LoadingState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return LoadingState{
		IsLoading:             w.state == Loading,
		LoadingStart:          w.loadingStart,
		ConsecutiveStartCount: w.consecutiveStarts,
	}
}

// Close cancels every pending timer. Leaking a timer past teardown is a
// resource leak; Close makes teardown deterministic.
func (w *Watchdog) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.recoveryTimer != 0 {
		w.sch.Cancel(w.recoveryTimer)
		w.recoveryTimer = 0
	}
}

package deadman

import (
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPeriod is the heartbeat period used when none is given.
const DefaultPeriod = 20 * time.Second

// Switch trips when no heartbeat arrives within its period.
type Switch struct {
	period time.Duration
	check  time.Duration
	busy   func() bool
	action func()
	logger *slog.Logger
	now    func() time.Time

	last    atomic.Int64
	tripped atomic.Bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// Option configures a Switch.
type Option func(*Switch)

// WithBusy sets the predicate that reports pending work. The switch only
// trips while busy returns true; without it the switch treats the loop as
// always busy.
func WithBusy(busy func() bool) Option {
	return func(s *Switch) { s.busy = busy }
}

// WithAction replaces the trigger action. The default exits with status 1.
func WithAction(action func()) Option {
	return func(s *Switch) {
		if action != nil {
			s.action = action
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Switch) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCheckInterval sets how often the switch looks at the last heartbeat.
// Default: one second, or the period if that is shorter.
func WithCheckInterval(d time.Duration) Option {
	return func(s *Switch) {
		if d > 0 {
			s.check = d
		}
	}
}

// New creates a disarmed switch. A non-positive period means DefaultPeriod.
func New(period time.Duration, opts ...Option) *Switch {
	if period <= 0 {
		period = DefaultPeriod
	}
	s := &Switch{
		period: period,
		check:  min(time.Second, period),
		busy:   func() bool { return true },
		action: func() { os.Exit(1) },
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start arms the switch. It returns false if the switch is already running.
func (s *Switch) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Error("dead man switch already running")
		return false
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.Heartbeat()
	go s.watch(s.stopCh, s.done)
	return true
}

// Heartbeat records that the watched loop made progress.
func (s *Switch) Heartbeat() {
	s.last.Store(s.now().UnixNano())
}

// Disable disarms the switch and waits for the watcher to exit. The trigger
// action does not run after Disable returns.
func (s *Switch) Disable() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info("dead man switch disabled")
}

// Tripped reports whether the switch has fired.
func (s *Switch) Tripped() bool {
	return s.tripped.Load()
}

func (s *Switch) watch(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.check)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if !s.busy() {
			// an idle loop is not a stuck loop
			s.Heartbeat()
			continue
		}
		since := s.now().Sub(time.Unix(0, s.last.Load()))
		if since >= s.period {
			s.trigger(since)
			return
		}
	}
}

func (s *Switch) trigger(since time.Duration) {
	s.tripped.Store(true)
	s.logger.Error("dead man switch activated",
		"period", s.period,
		"since_heartbeat", since)

	for i, stack := range goroutineStacks() {
		s.logger.Error("goroutine stack", "index", i, "stack", stack)
	}

	s.logger.Error("dead man switch running trigger action")
	s.action()
}

// goroutineStacks returns the stack of every goroutine, one entry each.
func goroutineStacks() []string {
	buf := make([]byte, 64<<10)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		if len(buf) >= 16<<20 {
			break
		}
		buf = make([]byte, 2*len(buf))
	}
	return strings.Split(strings.TrimSpace(string(buf)), "\n\n")
}

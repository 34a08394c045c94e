package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"
)

// Hook priorities. Lower runs first.
const (
	PriorityWorker  = 20 // stop taking tasks before closing what they use
	PriorityGraph   = 80
	PriorityTracing = 90 // flush spans last so shutdown is traced
)

// Hook is a function called during shutdown.
type Hook struct {
	Name     string
	Priority int
	Fn       func(ctx context.Context) error
}

// Config configures the handler.
type Config struct {
	// Timeout for running all hooks (default: 30s)
	Timeout time.Duration
	// Signals to listen for (default: SIGTERM, SIGINT)
	Signals []os.Signal
}

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Signals: []os.Signal{syscall.SIGTERM, syscall.SIGINT},
	}
}

// Handler runs registered hooks in priority order once a signal arrives or
// Trigger is called.
type Handler struct {
	mu      sync.Mutex
	hooks   []Hook
	timeout time.Duration
	signals []os.Signal
	logger  *slog.Logger

	triggerCh   chan struct{}
	doneCh      chan struct{}
	started     bool
	triggerOnce sync.Once
	errs        []error
}

// New creates a handler. A nil config uses DefaultConfig; a nil logger uses
// slog.Default.
func New(cfg *Config, logger *slog.Logger) *Handler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		timeout:   cfg.Timeout,
		signals:   cfg.Signals,
		logger:    logger,
		triggerCh: make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Register adds a hook. Hooks with equal priority run in registration order.
func (h *Handler) Register(name string, priority int, fn func(ctx context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, Hook{Name: name, Priority: priority, Fn: fn})
	sort.SliceStable(h.hooks, func(i, j int) bool {
		return h.hooks[i].Priority < h.hooks[j].Priority
	})
}

// Start begins listening for signals. Calling it twice is a no-op.
func (h *Handler) Start() {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	if len(h.signals) > 0 {
		signal.Notify(sigCh, h.signals...)
	}

	go func() {
		select {
		case sig := <-sigCh:
			h.logger.Info("shutdown signal received", "signal", sig.String())
		case <-h.triggerCh:
			h.logger.Info("shutdown requested")
		}
		signal.Stop(sigCh)
		h.run()
	}()
}

// Trigger starts shutdown without a signal. It is a no-op before Start.
func (h *Handler) Trigger() {
	h.mu.Lock()
	started := h.started
	h.mu.Unlock()
	if !started {
		return
	}
	h.triggerOnce.Do(func() { close(h.triggerCh) })
}

// Wait blocks until every hook has run and returns the hook errors.
func (h *Handler) Wait() []error {
	<-h.doneCh
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.errs...)
}

// Done is closed once shutdown completes.
func (h *Handler) Done() <-chan struct{} {
	return h.doneCh
}

func (h *Handler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := append([]Hook(nil), h.hooks...)
	h.mu.Unlock()

	// A failing hook does not stop the rest.
	var errs []error
	for _, hook := range hooks {
		start := time.Now()
		if err := hook.Fn(ctx); err != nil {
			h.logger.Error("shutdown hook failed", "hook", hook.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		h.logger.Debug("shutdown hook done", "hook", hook.Name, "duration", time.Since(start))
	}

	h.mu.Lock()
	h.errs = errs
	h.mu.Unlock()
	close(h.doneCh)
}

package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"photo-share/internal/logging"
)

// Config holds memory monitor configuration
type Config struct {
	// LimitBytes is the reference limit; 0 uses GOMEMLIMIT and disables the monitor when
	// that is not set either.
	LimitBytes int64
	// ResumeAt is the usage ratio below which a paused monitor resumes.
	ResumeAt float64
	// PauseAt is the usage ratio at which new uploads are held back.
	PauseAt float64
	// CheckInterval is how often usage is sampled.
	CheckInterval time.Duration
}

// DefaultConfig returns the default monitor settings.
func DefaultConfig() Config {
	return Config{
		ResumeAt:      0.7,
		PauseAt:       0.85,
		CheckInterval: 5 * time.Second,
	}
}

// Observer records memory metrics.
type Observer interface {
	ObserveMemoryUsage(ratio float64)
	ObserveMemoryPaused(paused bool)
}

type observerHolder struct{ o Observer }

var defaultObserver atomic.Pointer[observerHolder]

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver.Store(&observerHolder{o: o})
}

func observe() Observer {
	if h := defaultObserver.Load(); h != nil {
		return h.o
	}
	return nil
}

// Monitor samples heap usage against a limit and holds callers of [Monitor.Wait] while
// usage is critical.
type Monitor struct {
	cfg   Config
	limit int64
	read  func() uint64

	mu      sync.Mutex
	current uint64
	paused  bool
	resume  chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMonitor creates a memory monitor.
func NewMonitor(cfg Config) *Monitor {
	limit := cfg.LimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < 1<<62 {
			limit = l
		}
	}
	if limit == 0 {
		logging.Info("Memory monitor: no memory limit configured, upload backpressure disabled")
	}

	return &Monitor{
		cfg:    cfg,
		limit:  limit,
		read:   heapAlloc,
		resume: make(chan struct{}),
		stop:   make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Start begins sampling in the background. It does nothing when no limit is known.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(m.cfg.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.check()
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends sampling and releases every waiter.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) check() {
	alloc := m.read()
	usage := float64(alloc) / float64(m.limit)

	m.mu.Lock()
	m.current = alloc
	changed := false
	switch {
	case !m.paused && usage >= m.cfg.PauseAt:
		logging.Warn("Memory critical (%.1f%% of limit), holding new uploads", usage*100)
		m.paused = true
		changed = true
		go runtime.GC()
	case m.paused && usage < m.cfg.ResumeAt:
		logging.Info("Memory recovered (%.1f%% of limit), accepting uploads", usage*100)
		m.paused = false
		changed = true
		close(m.resume)
		m.resume = make(chan struct{})
	}
	paused := m.paused
	m.mu.Unlock()

	if ob := observe(); ob != nil {
		ob.ObserveMemoryUsage(usage)
		if changed {
			ob.ObserveMemoryPaused(paused)
		}
	}
}

// Wait returns immediately unless the monitor is paused. Otherwise it blocks until usage
// recovers, the monitor stops, or ctx ends, in which case it returns ctx.Err().
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.Lock()
	if !m.paused {
		m.mu.Unlock()
		return nil
	}
	resume := m.resume
	m.mu.Unlock()

	logging.Debug("Upload waiting for memory to recover")
	select {
	case <-resume:
		return nil
	case <-m.stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether uploads are currently held back.
func (m *Monitor) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Usage returns the last sampled usage as a ratio of the limit, or 0 without a limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.current) / float64(m.limit)
}

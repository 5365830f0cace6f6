package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/safetyline/hsg245-stack/cli/internal/client"
)

// DefaultHealthInterval is how often the monitor re-checks the server.
const DefaultHealthInterval = 10 * time.Second

// HealthChecker is satisfied by the API client.
type HealthChecker interface {
	CheckHealth(ctx context.Context) client.HealthReport
}

// HealthMonitor checks health once on Start and then on every tick until
// Stop or context cancellation.
type HealthMonitor struct {
	checker  HealthChecker
	interval time.Duration
	onChange func(ServerStatus)

	mu     sync.Mutex
	status ServerStatus
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHealthMonitor creates a monitor. onChange may be nil.
func NewHealthMonitor(checker HealthChecker, interval time.Duration, onChange func(ServerStatus)) *HealthMonitor {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	return &HealthMonitor{
		checker:  checker,
		interval: interval,
		onChange: onChange,
		status:   StatusChecking,
	}
}

// Start launches the polling goroutine. Calling Start twice is a no-op.
func (m *HealthMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.run(ctx, m.done)
}

// Stop cancels polling and waits for the goroutine to exit.
func (m *HealthMonitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Status returns the last observed status.
func (m *HealthMonitor) Status() ServerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *HealthMonitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *HealthMonitor) check(ctx context.Context) {
	status := StatusOffline
	if m.checker.CheckHealth(ctx).Online() {
		status = StatusOnline
	}
	if ctx.Err() != nil {
		return
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()

	if m.onChange != nil {
		m.onChange(status)
	}
}

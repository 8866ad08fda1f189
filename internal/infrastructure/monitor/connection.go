package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Check is a named dependency probe. The service is online only while every
// critical check passes.
type Check struct {
	Name     string
	Critical bool
	Timeout  time.Duration
	Ping     func(ctx context.Context) error
}

// BufferSizer reports the number of buffered writes.
type BufferSizer interface {
	Size() (int, error)
}

type Monitor struct {
	checks []Check
	buffer BufferSizer

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(interval time.Duration, buffer BufferSizer, logger *zap.Logger, checks ...Check) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checks:   checks,
		buffer:   buffer,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start probes once synchronously, then keeps probing in the background.
func (m *Monitor) Start() {
	m.Refresh(context.Background())
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := m.status
	status.Components = make(map[string]bool, len(m.status.Components))
	for k, v := range m.status.Components {
		status.Components[k] = v
	}
	return status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every check once and stores the result.
func (m *Monitor) Refresh(ctx context.Context) {
	status := Status{
		Components: make(map[string]bool, len(m.checks)),
		Online:     true,
		LastCheck:  time.Now(),
	}
	for _, c := range m.checks {
		ok := m.run(ctx, c)
		status.Components[c.Name] = ok
		if c.Critical && !ok {
			status.Online = false
		}
	}
	if m.buffer != nil {
		size, err := m.buffer.Size()
		if err != nil {
			m.logger.Warn("buffer size check failed", zap.Error(err))
		}
		status.BufferSize = size
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if !previous.LastCheck.IsZero() && previous.Online != status.Online {
		m.logger.Warn("connectivity changed", zap.Bool("online", status.Online), zap.Any("components", status.Components))
	}
}

func (m *Monitor) run(ctx context.Context, c Check) bool {
	if c.Ping == nil {
		return false
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		m.logger.Debug("health check failed", zap.String("check", c.Name), zap.Error(err))
		return false
	}
	return true
}

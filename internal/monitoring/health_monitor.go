package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	HEALTHCHECK_INTERVAL = 15 * time.Second
	HEALTHCHECK_TIMEOUT  = 2 * time.Second
)

// Monitor polls a dependency and exposes its last known health. A new
// Monitor starts healthy.
type Monitor struct {
	name     string
	check    func(context.Context) error
	interval time.Duration
	healthy  atomic.Bool
}

func NewMonitor(name string, check func(context.Context) error, interval time.Duration) *Monitor {
	m := &Monitor{name: name, check: check, interval: interval}
	m.healthy.Store(true)
	return m
}

func (m *Monitor) Healthy() bool {
	return m.healthy.Load()
}

func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, HEALTHCHECK_TIMEOUT)
	defer cancel()

	err := m.check(checkCtx)
	isHealthy := err == nil
	wasHealthy := m.healthy.Swap(isHealthy)

	switch {
	case wasHealthy && !isHealthy:
		slog.Warn("[HealthCheck] Dependency is unhealthy",
			slog.String("dependency", m.name),
			slog.String("error", err.Error()))
	case !wasHealthy && isHealthy:
		slog.Info("[HealthCheck] Dependency recovered",
			slog.String("dependency", m.name))
	}
}

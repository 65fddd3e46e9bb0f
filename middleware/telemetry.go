package middleware

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds outbound request counts and duration statistics per client.
type Metrics struct {
	mu      sync.RWMutex
	clients map[string]*ClientMetrics
}

// ClientMetrics holds metrics for requests sent to a single client.
type ClientMetrics struct {
	Count   atomic.Int64
	Errors  atomic.Int64
	TotalNs atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{clients: make(map[string]*ClientMetrics)}
}

func (m *Metrics) getOrCreate(client string) *ClientMetrics {
	m.mu.RLock()
	cm, ok := m.clients[client]
	m.mu.RUnlock()
	if ok {
		return cm
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cm, ok := m.clients[client]; ok {
		return cm
	}
	cm = &ClientMetrics{}
	m.clients[client] = cm
	return cm
}

// Snapshot returns a point-in-time copy of all per-client metrics.
func (m *Metrics) Snapshot() map[string]ClientSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]ClientSnapshot, len(m.clients))
	for name, cm := range m.clients {
		snap[name] = ClientSnapshot{
			Count:     cm.Count.Load(),
			Errors:    cm.Errors.Load(),
			TotalTime: time.Duration(cm.TotalNs.Load()),
		}
	}
	return snap
}

// ClientSnapshot is a point-in-time copy of metrics for one client.
type ClientSnapshot struct {
	Count     int64
	Errors    int64
	TotalTime time.Duration
}

// Telemetry returns middleware that collects per-client request count and
// latency metrics. Useful for spotting the slow server in a fan-out.
func Telemetry(metrics *Metrics) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, client, method string, params json.RawMessage) (json.RawMessage, error) {
			cm := metrics.getOrCreate(client)
			start := time.Now()
			result, err := next(ctx, client, method, params)
			elapsed := time.Since(start)

			cm.Count.Add(1)
			cm.TotalNs.Add(int64(elapsed))
			if err != nil {
				cm.Errors.Add(1)
			}

			return result, err
		}
	}
}

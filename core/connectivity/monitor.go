// Package connectivity reports whether the network is reachable as a single
// boolean signal with change notifications.
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultProbeURL      = "https://connectivitycheck.gstatic.com/generate_204"
	defaultProbeInterval = 10 * time.Second
	defaultProbeTimeout  = 5 * time.Second
)

type Monitor struct {
	probeURL   string
	interval   time.Duration
	httpClient *http.Client

	mu          sync.RWMutex
	offline     bool
	subscribers map[int]func(offline bool)
	nextID      int

	startOnce sync.Once
}

type MonitorOption func(*Monitor)

func WithProbeURL(probeURL string) MonitorOption {
	return func(m *Monitor) { m.probeURL = probeURL }
}

func WithProbeInterval(interval time.Duration) MonitorOption {
	return func(m *Monitor) { m.interval = interval }
}

func WithHTTPClient(httpClient *http.Client) MonitorOption {
	return func(m *Monitor) { m.httpClient = httpClient }
}

func NewMonitor(opts ...MonitorOption) *Monitor {
	monitor := &Monitor{
		probeURL: defaultProbeURL,
		interval: defaultProbeInterval,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultProbeTimeout,
		},
		subscribers: map[int]func(offline bool){},
	}
	for _, opt := range opts {
		opt(monitor)
	}
	return monitor
}

// Start begins probing until the context is cancelled. The first probe runs
// immediately so Offline reflects reality before the first tick.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		go func() {
			m.setOffline(!m.probe(ctx))

			ticker := time.NewTicker(m.interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					m.setOffline(!m.probe(ctx))
				}
			}
		}()
	})
}

// Offline returns the current connectivity judgement.
func (m *Monitor) Offline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.offline
}

// Subscribe registers a callback invoked on every connectivity flip. The
// returned function unsubscribes it.
func (m *Monitor) Subscribe(callback func(offline bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = callback
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

func (m *Monitor) setOffline(offline bool) {
	m.mu.Lock()
	if m.offline == offline {
		m.mu.Unlock()
		return
	}
	m.offline = offline

	subscribers := make([]func(offline bool), 0, len(m.subscribers))
	for _, subscriber := range m.subscribers {
		subscribers = append(subscribers, subscriber)
	}
	m.mu.Unlock()

	for _, subscriber := range subscribers {
		subscriber(offline)
	}
}

func (m *Monitor) probe(ctx context.Context) bool {
	request, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		return false
	}

	response, err := m.httpClient.Do(request)
	if err != nil {
		return false
	}
	defer response.Body.Close()

	return response.StatusCode < http.StatusInternalServerError
}

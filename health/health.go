// Package health provides liveness and readiness checks for storecore.
//
// Checks run concurrently under a shared timeout. The /healthz handler
// answers liveness (process up); /ready runs every registered checker and
// reports degraded state with per-check latency.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Check represents the result of a single health check.
type Check struct {
	Name      string `json:"name"`
	Status    Status `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Checker produces a Check when probed.
type Checker interface {
	Name() string
	Check(ctx context.Context) *Check
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func NewChecker(name string, fn func(ctx context.Context) error) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (c *CheckerFunc) Name() string { return c.name }

func (c *CheckerFunc) Check(ctx context.Context) *Check {
	if err := c.fn(ctx); err != nil {
		return &Check{Name: c.name, Status: StatusUnhealthy, Message: err.Error()}
	}
	return &Check{Name: c.name, Status: StatusHealthy}
}

// Report is the aggregate result of all registered checks.
type Report struct {
	Status  Status  `json:"status"`
	Version string  `json:"version"`
	Checks  []Check `json:"checks"`
}

// Manager runs registered checkers concurrently under a timeout.
type Manager struct {
	version  string
	timeout  time.Duration
	mu       sync.RWMutex
	checkers []Checker
}

func NewManager(version string, timeout time.Duration) *Manager {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Manager{version: version, timeout: timeout}
}

func (m *Manager) Register(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
}

// Run probes every checker and aggregates the result.
func (m *Manager) Run(ctx context.Context) *Report {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.RLock()
	checkers := make([]Checker, len(m.checkers))
	copy(checkers, m.checkers)
	m.mu.RUnlock()

	report := &Report{Status: StatusHealthy, Version: m.version, Checks: make([]Check, len(checkers))}

	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			start := time.Now()
			check := c.Check(ctx)
			check.LatencyMS = time.Since(start).Milliseconds()
			report.Checks[i] = *check
		}(i, c)
	}
	wg.Wait()

	for _, check := range report.Checks {
		if check.Status != StatusHealthy {
			report.Status = StatusUnhealthy
			break
		}
	}
	return report
}

// LiveHandler answers liveness: the process is up.
func (m *Manager) LiveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
}

// ReadyHandler answers readiness by running every registered check.
func (m *Manager) ReadyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := m.Run(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if report.Status != StatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	})
}

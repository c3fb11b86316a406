// Package health provides component health checks and a JSON HTTP handler.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status of a component or of the whole system.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckFunc probes one component. Return nil when healthy.
type CheckFunc func(ctx context.Context) error

// ComponentHealth is the result of one check.
type ComponentHealth struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Error       string        `json:"error,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"duration"`
}

// SystemHealth aggregates all component results.
type SystemHealth struct {
	Status     Status                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     time.Duration              `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// Checker runs registered checks on demand.
type Checker struct {
	mu      sync.Mutex
	checks  map[string]CheckFunc
	timeout time.Duration
	started time.Time
}

func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
		started: time.Now(),
	}
}

// Register adds a named check. Later registrations replace earlier ones.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// Check runs all registered checks and aggregates the result.
func (c *Checker) Check(ctx context.Context) SystemHealth {
	c.mu.Lock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.Unlock()

	sys := SystemHealth{
		Status:     StatusHealthy,
		Timestamp:  time.Now(),
		Uptime:     time.Since(c.started),
		Components: make(map[string]ComponentHealth, len(checks)),
	}

	for name, fn := range checks {
		start := time.Now()
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := fn(cctx)
		cancel()

		ch := ComponentHealth{
			Name:        name,
			Status:      StatusHealthy,
			LastChecked: start,
			Duration:    time.Since(start),
		}
		if err != nil {
			ch.Status = StatusUnhealthy
			ch.Error = err.Error()
			sys.Status = StatusUnhealthy
		}
		sys.Components[name] = ch
	}
	return sys
}

// Handler serves the aggregated health as JSON; 503 when unhealthy.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sys := c.Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if sys.Status != StatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(sys)
	})
}

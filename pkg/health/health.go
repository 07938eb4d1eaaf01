// Package health provides a minimal readiness endpoint backed by named
// checks.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
)

// Check reports whether one dependency is healthy.
type Check func() error

// Checker aggregates named health checks.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewChecker returns an empty Checker.
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Check)}
}

// Register adds a named check.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Handler serves the aggregated health status as JSON; any failing check
// turns the response into 503.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.RLock()
		defer c.mu.RUnlock()

		status := http.StatusOK
		results := make(map[string]string, len(c.checks))
		for name, check := range c.checks {
			if err := check(); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				results[name] = "ok"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(results)
	})
}

// Package health provides connectivity health checks for the CLI's
// external collaborators, currently just the validator endpoint.
package health

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	// StatusUp indicates the component is healthy.
	StatusUp Status = "UP"
	// StatusDown indicates the component is unhealthy.
	StatusDown Status = "DOWN"
	// StatusUnknown indicates the component's health has not been checked.
	StatusUnknown Status = "UNKNOWN"
)

// Check is the result of checking a single component.
type Check struct {
	// Name is the name of the component being checked.
	Name string
	// Status is the health status of the component.
	Status Status
	// Message provides more detail about the health status.
	Message string
	// LastChecked is when the component was last checked.
	LastChecked time.Time
	// Error is the error that failed the check, if any.
	Error error
}

// MarshalJSON implements the json.Marshaler interface.
func (c Check) MarshalJSON() ([]byte, error) {
	var errorStr string
	if c.Error != nil {
		errorStr = c.Error.Error()
	}

	return json.Marshal(struct {
		Name        string    `json:"name"`
		Status      Status    `json:"status"`
		Message     string    `json:"message,omitempty"`
		LastChecked time.Time `json:"last_checked"`
		Error       string    `json:"error,omitempty"`
	}{
		Name:        c.Name,
		Status:      c.Status,
		Message:     c.Message,
		LastChecked: c.LastChecked,
		Error:       errorStr,
	})
}

// CheckFunc probes one component.
type CheckFunc func(ctx context.Context) error

// Checker runs registered health checks.
type Checker struct {
	mu     sync.Mutex
	checks map[string]CheckFunc
	names  []string
}

// NewChecker creates an empty checker.
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]CheckFunc)}
}

// Register adds a named check. Registering an existing name replaces the
// check.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.checks[name]; !ok {
		c.names = append(c.names, name)
	}
	c.checks[name] = fn
}

// Run executes all checks in registration order and returns their
// results.
func (c *Checker) Run(ctx context.Context) []Check {
	c.mu.Lock()
	names := append([]string(nil), c.names...)
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.Unlock()

	results := make([]Check, 0, len(names))
	for _, name := range names {
		check := Check{Name: name, Status: StatusUp, LastChecked: time.Now()}
		if err := checks[name](ctx); err != nil {
			check.Status = StatusDown
			check.Error = err
			check.Message = err.Error()
		}
		results = append(results, check)
	}
	return results
}

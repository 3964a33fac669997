package repositories

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

const defaultProbeTimeout = 1500 * time.Millisecond

// HealthStatus classifies a probe outcome.
type HealthStatus string

const (
	// HealthOK means the dependency answered in time.
	HealthOK HealthStatus = "ok"
	// HealthDegraded means the dependency answered with an error.
	HealthDegraded HealthStatus = "degraded"
	// HealthDown means the dependency timed out or the probe was cancelled.
	HealthDown HealthStatus = "down"
)

// HealthProbe is one readiness probe against a backing dependency.
type HealthProbe struct {
	Name    string
	Timeout time.Duration
	Check   func(context.Context) error
}

// HealthResult is the outcome of a single probe.
type HealthResult struct {
	Status    HealthStatus
	Detail    string
	Latency   time.Duration
	CheckedAt time.Time
}

// HealthReport aggregates every probe outcome. Status carries the worst
// individual result.
type HealthReport struct {
	Status      HealthStatus
	Checks      map[string]HealthResult
	GeneratedAt time.Time
}

// HealthChecker runs the configured probes concurrently on demand.
type HealthChecker struct {
	probes  []HealthProbe
	timeout time.Duration
	now     func() time.Time
}

// HealthOption customises the checker.
type HealthOption func(*HealthChecker)

// WithProbeTimeout overrides the default per-probe timeout.
func WithProbeTimeout(timeout time.Duration) HealthOption {
	return func(c *HealthChecker) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHealthClock injects a clock, primarily for tests.
func WithHealthClock(now func() time.Time) HealthOption {
	return func(c *HealthChecker) {
		if now != nil {
			c.now = now
		}
	}
}

// NewHealthChecker validates and registers the probe set.
func NewHealthChecker(probes []HealthProbe, opts ...HealthOption) (*HealthChecker, error) {
	if len(probes) == 0 {
		return nil, errors.New("health checker: at least one probe is required")
	}
	for _, probe := range probes {
		if strings.TrimSpace(probe.Name) == "" {
			return nil, errors.New("health checker: probe name is required")
		}
		if probe.Check == nil {
			return nil, errors.New("health checker: probe " + probe.Name + " has no check function")
		}
	}

	checker := &HealthChecker{
		probes:  append([]HealthProbe(nil), probes...),
		timeout: defaultProbeTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(checker)
		}
	}
	return checker, nil
}

// Collect runs every probe and aggregates the outcomes.
func (c *HealthChecker) Collect(ctx context.Context) HealthReport {
	results := make(map[string]HealthResult, len(c.probes))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	wg.Add(len(c.probes))
	for _, probe := range c.probes {
		probe := probe
		go func() {
			defer wg.Done()

			timeout := probe.Timeout
			if timeout <= 0 {
				timeout = c.timeout
			}
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := c.now()
			err := probe.Check(probeCtx)
			end := c.now()

			result := HealthResult{
				Status:    HealthOK,
				Detail:    "ok",
				Latency:   end.Sub(start),
				CheckedAt: end,
			}
			switch {
			case err == nil:
			case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
				result.Status = HealthDown
				result.Detail = err.Error()
			default:
				result.Status = HealthDegraded
				result.Detail = err.Error()
			}

			mu.Lock()
			results[probe.Name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := HealthOK
	for _, result := range results {
		if result.Status == HealthDown {
			status = HealthDown
			break
		}
		if result.Status == HealthDegraded {
			status = HealthDegraded
		}
	}

	return HealthReport{
		Status:      status,
		Checks:      results,
		GeneratedAt: c.now(),
	}
}

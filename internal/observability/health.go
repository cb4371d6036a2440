package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusOK        HealthStatus = "ok"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// HealthCheckResponse is the overall health check response.
type HealthCheckResponse struct {
	Status        HealthStatus               `json:"status"`
	Version       string                     `json:"version"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Timestamp     string                     `json:"timestamp"`
	Checks        map[string]ComponentHealth `json:"checks"`
}

// HealthCheckFunc checks one component.
type HealthCheckFunc func(ctx context.Context) ComponentHealth

// HealthChecker performs health checks on registered components.
type HealthChecker struct {
	version   string
	startTime time.Time
	checks    map[string]HealthCheckFunc
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		version:   version,
		startTime: time.Now(),
		checks:    make(map[string]HealthCheckFunc),
	}
}

// RegisterCheck registers a health check for a component.
func (hc *HealthChecker) RegisterCheck(name string, checkFunc HealthCheckFunc) {
	hc.checks[name] = checkFunc
}

// Check performs all registered checks. Overall status is the worst
// component status.
func (hc *HealthChecker) Check(ctx context.Context) HealthCheckResponse {
	response := HealthCheckResponse{
		Status:        HealthStatusOK,
		Version:       hc.version,
		UptimeSeconds: int64(time.Since(hc.startTime).Seconds()),
		Timestamp:     time.Now().Format(time.RFC3339),
		Checks:        make(map[string]ComponentHealth),
	}
	for name, checkFunc := range hc.checks {
		ch := checkFunc(ctx)
		response.Checks[name] = ch
		switch ch.Status {
		case HealthStatusUnhealthy:
			response.Status = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if response.Status == HealthStatusOK {
				response.Status = HealthStatusDegraded
			}
		}
	}
	return response
}

// Handler serves the health check response as JSON.
func (hc *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := hc.Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if resp.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	})
}

// ReachabilityCheck reports degraded when the primary peer has gone quiet
// on the short-range link.
func ReachabilityCheck(reachable func() bool) HealthCheckFunc {
	return func(ctx context.Context) ComponentHealth {
		if reachable() {
			return ComponentHealth{Status: HealthStatusOK}
		}
		return ComponentHealth{
			Status:  HealthStatusDegraded,
			Message: "primary peer unreachable on short-range link",
		}
	}
}

// QueueSaturationCheck reports degraded when any tier is at or above the
// given occupancy fraction of its usable capacity.
func QueueSaturationCheck(depths func() (depth, usable [3]int), threshold float64) HealthCheckFunc {
	return func(ctx context.Context) ComponentHealth {
		depth, usable := depths()
		for i := range depth {
			if usable[i] == 0 {
				continue
			}
			if float64(depth[i])/float64(usable[i]) >= threshold {
				return ComponentHealth{
					Status:  HealthStatusDegraded,
					Message: fmt.Sprintf("tier %d at %d/%d occupancy", i, depth[i], usable[i]),
				}
			}
		}
		return ComponentHealth{Status: HealthStatusOK}
	}
}

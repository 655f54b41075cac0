package observability

import "context"

// HealthStatus is the health state of a component.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the health of one component, such as a loader.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// NewHealth returns an up Health for the named component.
func NewHealth(name string, details map[string]string) Health {
	return Health{Name: name, Status: HealthStatusUp, Details: details}
}

// Fail marks h down with err as its message. A nil err leaves h unchanged.
func (h *Health) Fail(err error) {
	if err == nil {
		return
	}
	h.Status = HealthStatusDown
	h.Message = err.Error()
}

// Degrade marks h degraded with msg unless it is already down.
func (h *Health) Degrade(msg string) {
	if h.Status == HealthStatusDown {
		return
	}
	h.Status = HealthStatusDegraded
	h.Message = msg
}

// Clone returns a copy of h that shares no map with it, so a snapshot can be
// handed to another goroutine.
func (h Health) Clone() Health {
	if h.Details != nil {
		details := make(map[string]string, len(h.Details))
		for k, v := range h.Details {
			details[k] = v
		}
		h.Details = details
	}
	return h
}

// ServiceHealth aggregates the health of every component a process runs.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	Health(ctx context.Context) Health
}

// NewServiceHealth creates a ServiceHealth with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// Check queries every checker and adds its result.
func (sh *ServiceHealth) Check(ctx context.Context, checkers ...HealthChecker) *ServiceHealth {
	for _, c := range checkers {
		sh.AddComponent(c.Health(ctx))
	}
	return sh
}

// AddComponent adds a component result. A down component takes the service
// down; a degraded one degrades it unless it is already down.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)

	switch ch.Status {
	case HealthStatusDown:
		sh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if sh.Status != HealthStatusDown {
			sh.Status = HealthStatusDegraded
		}
	}
}

// Package health tracks whether the pipeline's components have started and whether
// any of them has since lost its dependency (broker, database).
package health

import "time"

type ComponentStatus struct {
	Name      string    `json:"name"`
	Ready     bool      `json:"ready"`
	Degraded  string    `json:"degraded,omitempty"`
	StartedAt time.Time `json:"started_at"`
	ReadyAt   time.Time `json:"ready_at,omitempty"`
}

type ReadinessStatus struct {
	Ready      bool              `json:"ready"`
	Components []ComponentStatus `json:"components"`
	ReadyAt    time.Time         `json:"ready_at,omitempty"`
}

// ComponentManager is what components use to report their state.
type ComponentManager interface {
	// AddComponent registers name and returns the function that marks it started.
	AddComponent(name string) func()
	// SetDegraded takes a started component out of readiness while reason is non-nil.
	// A nil reason restores it.
	SetDegraded(name string, reason error)
}

// ReadinessChecker answers readiness probes.
type ReadinessChecker interface {
	IsReady() bool
	GetStatus() ReadinessStatus
}

package health

import (
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type component struct {
	startedAt time.Time
	readyAt   time.Time
	degraded  error
}

func (c *component) ready() bool { return !c.readyAt.IsZero() }

type readiness struct {
	mu         sync.RWMutex
	components map[string]*component
	sealed     bool
	started    chan struct{}
	log        *zap.Logger
}

func newReadiness(log *zap.Logger) *readiness {
	return &readiness{
		components: make(map[string]*component),
		started:    make(chan struct{}),
		log:        log,
	}
}

// NewReadinessModule provides the readiness tracker under its interfaces. Registration
// ends when the application starts.
func NewReadinessModule() fx.Option {
	return fx.Options(
		fx.Provide(
			newReadiness,
			func(r *readiness) ComponentManager { return r },
			func(r *readiness) ReadinessChecker { return r },
		),
		fx.Invoke(func(lc fx.Lifecycle, r *readiness) {
			lc.Append(fx.StartHook(r.seal))
		}),
	)
}

func (r *readiness) AddComponent(name string) func() {
	if name == "" {
		panic("health: component name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.components[name]; ok {
		r.log.Warn("component registered twice", zap.String("component", name))
	} else {
		r.components[name] = &component{startedAt: time.Now()}
	}
	return func() { r.markReady(name) }
}

func (r *readiness) markReady(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.components[name]
	if !ok || c.ready() {
		return
	}
	c.readyAt = time.Now()
	r.log.Debug("component ready", zap.String("component", name))
	r.closeIfStartedLocked()
}

func (r *readiness) SetDegraded(name string, reason error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.components[name]
	if !ok {
		return
	}
	changed := (c.degraded == nil) != (reason == nil)
	c.degraded = reason
	if !changed {
		return
	}
	if reason != nil {
		r.log.Warn("component degraded", zap.String("component", name), zap.Error(reason))
	} else {
		r.log.Info("component recovered", zap.String("component", name))
	}
}

func (r *readiness) seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
	r.closeIfStartedLocked()
}

func (r *readiness) closeIfStartedLocked() {
	if !r.sealed || r.hasStarted() {
		return
	}
	for _, c := range r.components {
		if !c.ready() {
			return
		}
	}
	close(r.started)
	r.log.Info("all components ready", zap.Int("components", len(r.components)))
}

func (r *readiness) hasStarted() bool {
	select {
	case <-r.started:
		return true
	default:
		return false
	}
}

func (r *readiness) isReadyLocked() bool {
	if !r.hasStarted() {
		return false
	}
	for _, c := range r.components {
		if c.degraded != nil {
			return false
		}
	}
	return true
}

// IsReady is true once every component started and none is degraded.
func (r *readiness) IsReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isReadyLocked()
}

func (r *readiness) GetStatus() ReadinessStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := ReadinessStatus{
		Ready:      r.isReadyLocked(),
		Components: make([]ComponentStatus, 0, len(r.components)),
	}
	for name, c := range r.components {
		cs := ComponentStatus{
			Name:      name,
			Ready:     c.ready() && c.degraded == nil,
			StartedAt: c.startedAt,
			ReadyAt:   c.readyAt,
		}
		if c.degraded != nil {
			cs.Degraded = c.degraded.Error()
		}
		if status.Ready && c.readyAt.After(status.ReadyAt) {
			status.ReadyAt = c.readyAt
		}
		status.Components = append(status.Components, cs)
	}
	slices.SortFunc(status.Components, func(a, b ComponentStatus) int {
		return strings.Compare(a.Name, b.Name)
	})
	return status
}

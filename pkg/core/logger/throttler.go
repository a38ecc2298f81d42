package logger

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultThrottleInterval = 5 * time.Minute

type throttleState struct {
	limiter    *rate.Limiter
	suppressed atomic.Int64
}

// LogThrottler logs a recurring condition at WARN once per interval per key and at
// DEBUG in between. Each instance throttles independently.
type LogThrottler struct {
	log      *zap.Logger
	states   sync.Map // map[string]*throttleState
	interval time.Duration
}

// NewLogThrottler uses a 5 minute interval when interval is zero.
func NewLogThrottler(log *zap.Logger, interval time.Duration) *LogThrottler {
	if interval == 0 {
		interval = defaultThrottleInterval
	}
	return &LogThrottler{log: log, interval: interval}
}

// Warn logs msg at WARN when the key's interval allows it, adding how many
// occurrences were demoted to DEBUG since the previous WARN.
func (t *LogThrottler) Warn(key string, msg string, fields ...zap.Field) {
	s := t.state(key)
	if !s.limiter.Allow() {
		s.suppressed.Add(1)
		t.log.Debug(msg, fields...)
		return
	}
	if n := s.suppressed.Swap(0); n > 0 {
		fields = append(fields, zap.Int64("suppressed", n))
	}
	t.log.Warn(msg, fields...)
}

// Recovered ends the condition of key. It logs msg at INFO when the key had warned,
// and the next Warn for key is logged immediately.
func (t *LogThrottler) Recovered(key string, msg string, fields ...zap.Field) {
	v, ok := t.states.LoadAndDelete(key)
	if !ok {
		return
	}
	if n := v.(*throttleState).suppressed.Load(); n > 0 {
		fields = append(fields, zap.Int64("suppressed", n))
	}
	t.log.Info(msg, fields...)
}

func (t *LogThrottler) state(key string) *throttleState {
	if v, ok := t.states.Load(key); ok {
		return v.(*throttleState)
	}
	s := &throttleState{limiter: rate.NewLimiter(rate.Every(t.interval), 1)}
	actual, _ := t.states.LoadOrStore(key, s)
	return actual.(*throttleState)
}

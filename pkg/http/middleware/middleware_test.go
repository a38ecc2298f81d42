package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Sokol111/match-events/pkg/core/logger"
	"github.com/Sokol111/match-events/pkg/http/problems"
	"github.com/Sokol111/match-events/pkg/http/server"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func boolPtr(b bool) *bool { return &b }

func serve(e *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) problems.Problem {
	t.Helper()
	var p problems.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func TestNewEngine_OrdersByPriorityAndSkipsNil(t *testing.T) {
	// Arrange
	var order []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			order = append(order, name)
			c.Next()
		}
	}
	e := NewEngine(
		Middleware{Priority: 30, Handler: mark("third")},
		Middleware{Priority: 10, Handler: mark("first")},
		Middleware{Priority: 15},
		Middleware{Priority: 20, Handler: mark("second")},
	)
	e.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	// Act
	w := serve(e, http.MethodGet, "/x")

	// Assert
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestProblemHandler(t *testing.T) {
	t.Run("renders a recorded problem", func(t *testing.T) {
		e := NewEngine(Middleware{Priority: 1, Handler: ProblemHandler()})
		e.POST("/matches/event", func(c *gin.Context) {
			_ = c.Error(problems.Invalid("Invalid input data", map[string]string{"team": "is required"}))
		})

		w := serve(e, http.MethodPost, "/matches/event")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, problems.ContentType, w.Header().Get("Content-Type"))
		p := decodeProblem(t, w)
		assert.Equal(t, "Invalid input data", p.Title)
		assert.Equal(t, "/matches/event", p.Instance)
		require.Len(t, p.Errors, 1)
		assert.Equal(t, "team", p.Errors[0].Field)
	})

	t.Run("hides plain errors behind a 500", func(t *testing.T) {
		e := NewEngine(Middleware{Priority: 1, Handler: ProblemHandler()})
		e.GET("/boom", func(c *gin.Context) {
			_ = c.Error(errors.New("mongo: connection refused to 10.0.0.3"))
		})

		w := serve(e, http.MethodGet, "/boom")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		p := decodeProblem(t, w)
		assert.Equal(t, "Internal Server Error", p.Title)
		assert.Empty(t, p.Detail)
	})

	t.Run("leaves written responses alone", func(t *testing.T) {
		e := NewEngine(Middleware{Priority: 1, Handler: ProblemHandler()})
		e.GET("/ok", func(c *gin.Context) {
			c.String(http.StatusOK, "done")
			_ = c.Error(errors.New("late"))
		})

		w := serve(e, http.MethodGet, "/ok")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "done", w.Body.String())
	})
}

func TestRecoveryGuard(t *testing.T) {
	// Arrange
	e := NewEngine(
		Middleware{Priority: 1, Handler: ProblemHandler()},
		Middleware{Priority: 2, Handler: recoveryGuard()},
	)
	e.GET("/panic", func(c *gin.Context) { panic("nil map") })

	// Act
	w := serve(e, http.MethodGet, "/panic")

	// Assert
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, http.StatusInternalServerError, decodeProblem(t, w).Status)
}

func TestRequestLoggerMiddleware(t *testing.T) {
	// Arrange
	core, logs := observer.New(zapcore.DebugLevel)
	e := NewEngine(Middleware{Priority: 1, Handler: requestLoggerMiddleware(zap.New(core))})
	e.GET("/matches/:matchId/:eventType", func(c *gin.Context) {
		logger.Get(c.Request.Context()).Info("handling")
		c.Status(http.StatusOK)
	})
	e.GET("/health/live", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Act
	serve(e, http.MethodGet, "/matches/1/goal")
	serve(e, http.MethodGet, "/health/live")

	// Assert
	assert.Equal(t, 1, logs.FilterMessage("handling").Len(), "handler sees the request logger")
	access := logs.FilterMessage("request served").All()
	require.Len(t, access, 1, "health probes are not access-logged")
	assert.Equal(t, "/matches/1/goal", access[0].ContextMap()["path"])
}

func TestTimeoutGuard(t *testing.T) {
	// Arrange
	conf := server.TimeoutConfig{Enabled: boolPtr(true), RequestTimeout: 20 * time.Millisecond}
	e := NewEngine(
		Middleware{Priority: 1, Handler: ProblemHandler()},
		Middleware{Priority: 2, Handler: timeoutGuard(conf, zap.NewNop())},
	)
	e.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	// Act
	w := serve(e, http.MethodGet, "/slow")

	// Assert
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "request took too long to process", decodeProblem(t, w).Detail)
}

func TestGuards_Disabled(t *testing.T) {
	off := boolPtr(false)

	assert.Nil(t, timeoutGuard(server.TimeoutConfig{Enabled: off}, zap.NewNop()))
	assert.Nil(t, rateLimitGuard(server.RateLimitConfig{Enabled: off}))
	assert.Nil(t, bulkheadGuard(server.BulkheadConfig{Enabled: off}, zap.NewNop()))
	assert.Nil(t, circuitBreakerGuard(server.CircuitBreakerConfig{Enabled: off}, zap.NewNop()))
}

func TestChain_PrioritiesAreUnique(t *testing.T) {
	conf := server.Config{}
	conf.ApplyDefaults()

	mws := chain(conf, zap.NewNop())

	seen := map[int]bool{}
	for _, m := range mws {
		assert.False(t, seen[m.Priority], "priority %d used twice", m.Priority)
		seen[m.Priority] = true
		assert.Greater(t, m.Priority, 5, "otelgin stays outermost")
	}
}

func TestRateLimitGuard(t *testing.T) {
	// Arrange
	conf := server.RateLimitConfig{Enabled: boolPtr(true), RequestsPerSecond: 1, Burst: 1}
	e := NewEngine(
		Middleware{Priority: 1, Handler: ProblemHandler()},
		Middleware{Priority: 2, Handler: rateLimitGuard(conf)},
	)
	e.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	e.GET("/health/ready", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Act
	first := serve(e, http.MethodGet, "/x")
	second := serve(e, http.MethodGet, "/x")
	health := serve(e, http.MethodGet, "/health/ready")

	// Assert
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestBulkheadGuard(t *testing.T) {
	// Arrange
	conf := server.BulkheadConfig{Enabled: boolPtr(true), MaxConcurrent: 1, Timeout: 10 * time.Millisecond}
	e := NewEngine(
		Middleware{Priority: 1, Handler: ProblemHandler()},
		Middleware{Priority: 2, Handler: bulkheadGuard(conf, zap.NewNop())},
	)
	started := make(chan struct{})
	release := make(chan struct{})
	e.GET("/hold", func(c *gin.Context) {
		close(started)
		<-release
		c.Status(http.StatusOK)
	})
	e.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		serve(e, http.MethodGet, "/hold")
	}()
	<-started

	// Act
	w := serve(e, http.MethodGet, "/x")
	close(release)
	wg.Wait()

	// Assert
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestCircuitBreakerGuard(t *testing.T) {
	// Arrange
	cb := newCircuitBreaker(1, time.Minute, time.Minute, 2, zap.NewNop())
	e := NewEngine(
		Middleware{Priority: 1, Handler: ProblemHandler()},
		Middleware{Priority: 2, Handler: newCircuitBreakerMiddleware(cb, time.Minute)},
	)
	calls := 0
	e.POST("/matches/event", func(c *gin.Context) {
		calls++
		_ = c.Error(problems.ServiceUnavailable("kafka broker unavailable"))
	})

	// Act
	serve(e, http.MethodPost, "/matches/event")
	serve(e, http.MethodPost, "/matches/event")
	w := serve(e, http.MethodPost, "/matches/event")

	// Assert
	assert.Equal(t, 2, calls, "open breaker short-circuits the handler")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decodeProblem(t, w).Detail, "temporarily unavailable")
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestCircuitBreakerGuard_IgnoresClientErrors(t *testing.T) {
	cb := newCircuitBreaker(1, time.Minute, time.Minute, 1, zap.NewNop())
	e := NewEngine(
		Middleware{Priority: 1, Handler: ProblemHandler()},
		Middleware{Priority: 2, Handler: newCircuitBreakerMiddleware(cb, time.Minute)},
	)
	e.GET("/bad", func(c *gin.Context) {
		_ = c.Error(problems.New(http.StatusBadRequest, "bad"))
	})

	serve(e, http.MethodGet, "/bad")
	w := serve(e, http.MethodGet, "/bad")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

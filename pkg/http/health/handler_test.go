package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	coreHealth "github.com/Sokol111/match-events/pkg/core/health"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadinessChecker struct {
	isReady bool
	status  coreHealth.ReadinessStatus
}

func (m *mockReadinessChecker) IsReady() bool {
	return m.isReady
}

func (m *mockReadinessChecker) GetStatus() coreHealth.ReadinessStatus {
	return m.status
}

func newTestEngine(r coreHealth.ReadinessChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	newHealthHandler(r).register(e.Group("/health"))
	return e
}

func TestHealthHandler_IsReady(t *testing.T) {
	t.Run("returns 200 when ready", func(t *testing.T) {
		e := newTestEngine(&mockReadinessChecker{isReady: true})
		w := httptest.NewRecorder()

		e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", w.Body.String())
	})

	t.Run("returns 503 when not ready", func(t *testing.T) {
		e := newTestEngine(&mockReadinessChecker{isReady: false})
		w := httptest.NewRecorder()

		e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "not ready", w.Body.String())
	})

	t.Run("returns component status as JSON", func(t *testing.T) {
		status := coreHealth.ReadinessStatus{
			Ready: false,
			Components: []coreHealth.ComponentStatus{
				{Name: "kafka-consumer", Ready: true},
				{Name: "mongo", Ready: false},
			},
		}
		e := newTestEngine(&mockReadinessChecker{isReady: false, status: status})
		w := httptest.NewRecorder()

		e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready?format=json", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var got coreHealth.ReadinessStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got.Components, 2)
		assert.Equal(t, "mongo", got.Components[1].Name)
	})
}

func TestHealthHandler_IsLive(t *testing.T) {
	e := newTestEngine(&mockReadinessChecker{})
	w := httptest.NewRecorder()

	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", w.Body.String())
}

func TestHealthHandler_HeadProbe(t *testing.T) {
	e := newTestEngine(&mockReadinessChecker{isReady: false})
	w := httptest.NewRecorder()

	e.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

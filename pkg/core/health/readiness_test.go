package health

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReadiness(t *testing.T) {
	t.Run("not ready before seal", func(t *testing.T) {
		r := newReadiness(zap.NewNop())
		r.AddComponent("mongo")()

		assert.False(t, r.IsReady())
	})

	t.Run("ready once sealed and all components marked", func(t *testing.T) {
		// Arrange
		r := newReadiness(zap.NewNop())
		markMongo := r.AddComponent("mongo")
		markKafka := r.AddComponent("kafka-producer")
		r.seal()

		// Act
		markMongo()

		// Assert
		assert.False(t, r.IsReady())
		markKafka()
		assert.True(t, r.IsReady())
	})

	t.Run("ready on seal with no components", func(t *testing.T) {
		r := newReadiness(zap.NewNop())
		r.seal()

		assert.True(t, r.IsReady())
	})

	t.Run("panics on empty name", func(t *testing.T) {
		r := newReadiness(zap.NewNop())

		assert.Panics(t, func() { r.AddComponent("") })
	})

	t.Run("duplicate registration keeps one component", func(t *testing.T) {
		r := newReadiness(zap.NewNop())
		r.AddComponent("mongo")
		r.AddComponent("mongo")

		assert.Len(t, r.GetStatus().Components, 1)
	})
}

func TestReadiness_GetStatus(t *testing.T) {
	// Arrange
	r := newReadiness(zap.NewNop())
	r.AddComponent("b")()
	r.AddComponent("a")()
	r.seal()

	// Act
	status := r.GetStatus()

	// Assert
	assert.True(t, status.Ready)
	require.Len(t, status.Components, 2)
	assert.Equal(t, "a", status.Components[0].Name)
	assert.False(t, status.ReadyAt.IsZero())
}

func TestReadiness_SetDegraded(t *testing.T) {
	// Arrange
	r := newReadiness(zap.NewNop())
	r.AddComponent("kafka-consumer")()
	r.AddComponent("mongo")()
	r.seal()
	require.True(t, r.IsReady())

	// Act
	r.SetDegraded("kafka-consumer", errors.New("all brokers down"))

	// Assert
	assert.False(t, r.IsReady())
	status := r.GetStatus()
	assert.False(t, status.Ready)
	assert.Equal(t, "all brokers down", status.Components[0].Degraded)
	assert.False(t, status.Components[0].Ready)
	assert.True(t, status.Components[1].Ready)

	assert.True(t, r.hasStarted(), "startup already completed")

	r.SetDegraded("kafka-consumer", nil)
	assert.True(t, r.IsReady())
	assert.Empty(t, r.GetStatus().Components[0].Degraded)
}

func TestReadiness_SetDegradedUnknownComponent(t *testing.T) {
	r := newReadiness(zap.NewNop())
	r.seal()

	assert.NotPanics(t, func() { r.SetDegraded("nope", errors.New("x")) })
	assert.True(t, r.IsReady())
}

package consumer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffsetTracker_ContiguousWatermark(t *testing.T) {
	// Arrange
	tracker := newOffsetTracker()
	first := tracker.begin(0, 0, 9)
	second := tracker.begin(0, 10, 19)
	third := tracker.begin(0, 20, 29)

	// Act & Assert
	_, ok := tracker.complete(second)
	assert.False(t, ok, "watermark must not pass an unfinished batch")
	assert.Equal(t, 2, tracker.inFlight(0))

	next, ok := tracker.complete(first)
	assert.True(t, ok)
	assert.Equal(t, int64(20), next, "completing the head releases the finished prefix")

	next, ok = tracker.complete(third)
	assert.True(t, ok)
	assert.Equal(t, int64(30), next)
	assert.Equal(t, 0, tracker.inFlight(0))
}

func TestOffsetTracker_PartitionsAreIndependent(t *testing.T) {
	tracker := newOffsetTracker()
	p0 := tracker.begin(0, 0, 4)
	p1 := tracker.begin(1, 100, 104)

	next, ok := tracker.complete(p1)
	assert.True(t, ok)
	assert.Equal(t, int64(105), next)
	assert.Equal(t, 1, tracker.inFlight(0))

	next, ok = tracker.complete(p0)
	assert.True(t, ok)
	assert.Equal(t, int64(5), next)
}

func TestOffsetTracker_IgnoresRevokedPartition(t *testing.T) {
	// Arrange
	tracker := newOffsetTracker()
	stale := tracker.begin(3, 0, 4)
	tracker.forget(3)
	fresh := tracker.begin(3, 5, 9)

	// Act
	_, staleOK := tracker.complete(stale)
	next, freshOK := tracker.complete(fresh)

	// Assert
	assert.False(t, staleOK)
	assert.True(t, freshOK)
	assert.Equal(t, int64(10), next)
}

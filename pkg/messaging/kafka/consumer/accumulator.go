package consumer

import (
	"time"

	"github.com/Sokol111/match-events/pkg/match"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// accumulator collects the open window of a single partition.
// It is owned by one partitionWorker and is not safe for concurrent use.
type accumulator struct {
	topic     string
	partition int32
	maxSize   int
	maxWindow time.Duration

	events   []match.Event
	messages []*kafka.Message
	first    int64
	last     int64
	openedAt time.Time
	open     bool
}

func newAccumulator(topic string, partition int32, maxSize int, maxWindow time.Duration) *accumulator {
	return &accumulator{
		topic:     topic,
		partition: partition,
		maxSize:   maxSize,
		maxWindow: maxWindow,
	}
}

// add appends a message to the window, opening it if needed.
// event is nil for a message that could not be decoded: its offset still
// belongs to the window but it adds no event.
func (a *accumulator) add(msg *kafka.Message, event *match.Event, now time.Time) {
	offset := int64(msg.TopicPartition.Offset)
	if !a.open {
		a.open = true
		a.openedAt = now
		a.first = offset
	}
	a.last = offset
	a.messages = append(a.messages, msg)
	if event != nil {
		a.events = append(a.events, *event)
	}
}

// shouldClose reports whether the window reached maxSize events or has been
// open for maxWindow.
func (a *accumulator) shouldClose(now time.Time) bool {
	if !a.open {
		return false
	}
	return len(a.events) >= a.maxSize || now.Sub(a.openedAt) >= a.maxWindow
}

// take closes the window and returns its contents. The returned batch may hold
// no events when every message in the window was undecodable.
func (a *accumulator) take(now time.Time) (match.Batch, []*kafka.Message) {
	batch := match.Batch{
		Topic:          a.topic,
		Partition:      a.partition,
		FirstOffset:    a.first,
		LastOffset:     a.last,
		Events:         a.events,
		WindowOpenedAt: a.openedAt,
		WindowClosedAt: now,
	}
	messages := a.messages
	a.reset()
	return batch, messages
}

// reset drops the open window without dispatching it.
func (a *accumulator) reset() {
	a.events = nil
	a.messages = nil
	a.first, a.last = 0, 0
	a.openedAt = time.Time{}
	a.open = false
}

func (a *accumulator) isOpen() bool {
	return a.open
}

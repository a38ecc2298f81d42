package match

import (
	"fmt"
	"time"

	"github.com/hamba/avro/v2"
)

// ContentType is the Kafka header value describing the encoded event payload.
const ContentType = "application/vnd.match-event.v1+avro"

const eventSchema = `{
  "type": "record",
  "name": "MatchEvent",
  "namespace": "com.matchevents",
  "fields": [
    {"name": "id", "type": "string"},
    {"name": "matchId", "type": "string"},
    {"name": "eventType", "type": {"type": "enum", "name": "EventType", "symbols": ["goal", "pass", "foul"]}},
    {"name": "team", "type": "string"},
    {"name": "player", "type": "string"},
    {"name": "timestamp", "type": "string"},
    {"name": "payload", "type": "bytes"},
    {"name": "publishedAt", "type": {"type": "long", "logicalType": "timestamp-millis"}}
  ]
}`

type wireEvent struct {
	ID          string    `avro:"id"`
	MatchID     string    `avro:"matchId"`
	EventType   string    `avro:"eventType"`
	Team        string    `avro:"team"`
	Player      string    `avro:"player"`
	Timestamp   string    `avro:"timestamp"`
	Payload     []byte    `avro:"payload"`
	PublishedAt time.Time `avro:"publishedAt"`
}

// Codec encodes events to and from their Avro binary form on the topic.
type Codec struct {
	schema avro.Schema
}

// NewCodec parses the event schema.
func NewCodec() (*Codec, error) {
	schema, err := avro.Parse(eventSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to parse match event schema: %w", err)
	}
	return &Codec{schema: schema}, nil
}

// MustCodec is NewCodec for package-level initialization; the schema is a constant.
func MustCodec() *Codec {
	c, err := NewCodec()
	if err != nil {
		panic(err)
	}
	return c
}

// Encode serializes an event.
func (c *Codec) Encode(e Event) ([]byte, error) {
	data, err := avro.Marshal(c.schema, wireEvent{
		ID:          e.ID,
		MatchID:     e.MatchID,
		EventType:   string(e.EventType),
		Team:        e.Team,
		Player:      e.Player,
		Timestamp:   e.Timestamp,
		Payload:     e.Payload,
		PublishedAt: e.PublishedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode match event %s: %w", e.ID, err)
	}
	return data, nil
}

// Decode deserializes an event.
func (c *Codec) Decode(data []byte) (Event, error) {
	var w wireEvent
	if err := avro.Unmarshal(c.schema, data, &w); err != nil {
		return Event{}, fmt.Errorf("failed to decode match event: %w", err)
	}
	return Event{
		ID:          w.ID,
		MatchID:     w.MatchID,
		EventType:   EventType(w.EventType),
		Team:        w.Team,
		Player:      w.Player,
		Timestamp:   w.Timestamp,
		Payload:     w.Payload,
		PublishedAt: w.PublishedAt.UTC(),
	}, nil
}

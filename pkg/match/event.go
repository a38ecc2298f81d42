// Package match holds the match event model shared by the ingest, processing and query paths.
package match

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the canonical wire layout of the event timestamp, e.g. 2024-08-17T15:04:05+0000.
const TimestampLayout = "2006-01-02T15:04:05-0700"

// timestampLayouts are tried in order. The zone may be +0100, +01:00 or Z.
var timestampLayouts = []string{TimestampLayout, time.RFC3339}

// ParseTimestamp parses an event timestamp in any accepted layout.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// EventType is the category of a match event.
type EventType string

const (
	EventTypeGoal EventType = "goal"
	EventTypePass EventType = "pass"
	EventTypeFoul EventType = "foul"
)

// EventTypes lists every supported event type.
var EventTypes = []EventType{EventTypeGoal, EventTypePass, EventTypeFoul}

// IsValid reports whether t is a supported event type.
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeGoal, EventTypePass, EventTypeFoul:
		return true
	}
	return false
}

func (t EventType) String() string {
	return string(t)
}

// ParseEventType accepts a singular type or its plural route alias ("goals", "passes", "fouls").
func ParseEventType(s string) (EventType, error) {
	switch t := EventType(strings.ToLower(strings.TrimSpace(s))); t {
	case "goals":
		return EventTypeGoal, nil
	case "passes":
		return EventTypePass, nil
	case "fouls":
		return EventTypeFoul, nil
	default:
		if t.IsValid() {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEventType, s)
}

// Event is a published match event. Events are immutable once published;
// enrichment produces an EnrichedRecord instead of modifying the event.
type Event struct {
	ID        string    `json:"id" bson:"id"`
	MatchID   string    `json:"match_id" bson:"matchId"`
	EventType EventType `json:"event_type" bson:"eventType"`
	Team      string    `json:"team" bson:"team"`
	Player    string    `json:"player" bson:"player"`
	// Timestamp is the occurrence time as sent by the client, offset preserved.
	Timestamp   string    `json:"timestamp" bson:"timestamp"`
	Payload     []byte    `json:"payload" bson:"payload"`
	PublishedAt time.Time `json:"published_at" bson:"publishedAt"`
}

// OccurredAt parses Timestamp keeping the client's UTC offset.
func (e Event) OccurredAt() (time.Time, error) {
	return ParseTimestamp(e.Timestamp)
}

// Validation errors.
var (
	ErrInvalidEventID   = errors.New("event id must not contain whitespace or slashes")
	ErrInvalidMatchID   = errors.New("all characters in the match id must be digits")
	ErrInvalidEventType = errors.New("invalid event type")
	ErrMissingTeam      = errors.New("team is required")
	ErrMissingPlayer    = errors.New("player is required")
	ErrInvalidTimestamp = errors.New("timestamp must be in format " + TimestampLayout + " (zone may also be +07:00 or Z)")
)

// FieldError ties a validation error to the input field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationError collects every invalid field of an input.
type ValidationError struct {
	Fields []*FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return "invalid match event: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the field errors to errors.Is.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, f := range e.Fields {
		errs = append(errs, f)
	}
	return errs
}

// Input is the external representation of a match event accepted by the gateway.
type Input struct {
	EventID   string `json:"event_id,omitempty"`
	MatchID   string `json:"match_id"`
	EventType string `json:"event_type"`
	Team      string `json:"team"`
	Player    string `json:"player"`
	Timestamp string `json:"timestamp"`
}

// NewEvent validates the input and builds an Event. A missing event id is generated.
// payload is the raw request body and is kept as-is.
func NewEvent(in Input, payload []byte, publishedAt time.Time) (Event, error) {
	var fields []*FieldError
	fail := func(field string, err error) {
		fields = append(fields, &FieldError{Field: field, Err: err})
	}

	id := strings.TrimSpace(in.EventID)
	if id == "" {
		id = uuid.NewString()
	} else if strings.ContainsAny(id, " \t\r\n/") {
		fail("event_id", ErrInvalidEventID)
	}

	if !isDigits(in.MatchID) {
		fail("match_id", ErrInvalidMatchID)
	}

	eventType := EventType(in.EventType)
	if !eventType.IsValid() {
		fail("event_type", fmt.Errorf("%w: %q, must be one of %v", ErrInvalidEventType, in.EventType, EventTypes))
	}

	if strings.TrimSpace(in.Team) == "" {
		fail("team", ErrMissingTeam)
	}
	if strings.TrimSpace(in.Player) == "" {
		fail("player", ErrMissingPlayer)
	}

	if _, err := ParseTimestamp(in.Timestamp); err != nil {
		fail("timestamp", ErrInvalidTimestamp)
	}

	if len(fields) > 0 {
		return Event{}, &ValidationError{Fields: fields}
	}

	return Event{
		ID:          id,
		MatchID:     in.MatchID,
		EventType:   eventType,
		Team:        in.Team,
		Player:      in.Player,
		Timestamp:   in.Timestamp,
		Payload:     payload,
		PublishedAt: publishedAt.UTC(),
	}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package match

import "time"

// EnrichedRecord is the derived record written to the indexed store for one event.
// It references the original event by id and carries the original payload unchanged.
type EnrichedRecord struct {
	EventID     string    `json:"event_id" bson:"_id"`
	MatchID     string    `json:"match_id" bson:"matchId"`
	EventType   EventType `json:"event_type" bson:"eventType"`
	Team        string    `json:"team" bson:"team"`
	Player      string    `json:"player" bson:"player"`
	Timestamp   string    `json:"timestamp" bson:"timestamp"`
	OccurredAt  time.Time `json:"occurred_at" bson:"occurredAt"`
	Payload     []byte    `json:"payload,omitempty" bson:"payload"`
	PublishedAt time.Time `json:"published_at" bson:"publishedAt"`
	Season      string    `json:"season" bson:"season"`
	EnrichedAt  time.Time `json:"enriched_at" bson:"enrichedAt"`
}

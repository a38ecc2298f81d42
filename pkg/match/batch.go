package match

import "time"

// Batch is a bounded, non-empty group of events taken from one partition.
// Events are kept in the order they were read from the partition.
type Batch struct {
	Topic          string    `json:"topic" bson:"topic"`
	Partition      int32     `json:"partition" bson:"partition"`
	FirstOffset    int64     `json:"first_offset" bson:"firstOffset"`
	LastOffset     int64     `json:"last_offset" bson:"lastOffset"`
	Events         []Event   `json:"events" bson:"events"`
	WindowOpenedAt time.Time `json:"window_opened_at" bson:"windowOpenedAt"`
	WindowClosedAt time.Time `json:"window_closed_at" bson:"windowClosedAt"`
}

// Len returns the number of events in the batch.
func (b Batch) Len() int {
	return len(b.Events)
}

// EventIDs returns the ids of the batch events in order.
func (b Batch) EventIDs() []string {
	ids := make([]string, len(b.Events))
	for i, e := range b.Events {
		ids[i] = e.ID
	}
	return ids
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Sokol111/match-events/pkg/http/problems"
	"github.com/Sokol111/match-events/pkg/match"
	pmongo "github.com/Sokol111/match-events/pkg/persistence/mongo"
	"github.com/Sokol111/match-events/pkg/query"
	"github.com/gin-gonic/gin"
)

const invalidParams = "Invalid Input parameters"

// Querier is the read side used by QueryHandler.
type Querier interface {
	QueryByMatchAndType(ctx context.Context, matchID, eventType string) ([]match.EnrichedRecord, error)
}

type recordView struct {
	EventID     string          `json:"event_id"`
	MatchID     string          `json:"match_id"`
	EventType   match.EventType `json:"event_type"`
	Team        string          `json:"team"`
	Player      string          `json:"player"`
	Timestamp   string          `json:"timestamp"`
	Season      string          `json:"season"`
	Payload     any             `json:"payload,omitempty"`
	PublishedAt time.Time       `json:"published_at"`
	EnrichedAt  time.Time       `json:"enriched_at"`
}

type queryResponse struct {
	Items []recordView `json:"items"`
	Count int          `json:"count"`
}

type QueryHandler struct {
	querier Querier
}

func NewQueryHandler(q Querier) *QueryHandler {
	return &QueryHandler{querier: q}
}

func (h *QueryHandler) ByMatchAndType(c *gin.Context) {
	matchID := c.Param("matchId")
	eventType := c.Param("eventType")

	recs, err := h.querier.QueryByMatchAndType(c.Request.Context(), matchID, eventType)
	if errors.Is(err, query.ErrInvalidQuery) {
		p := problems.New(http.StatusBadRequest, err.Error())
		p.Title = invalidParams
		_ = c.Error(p)
		return
	}
	if errors.Is(err, pmongo.ErrBusy) {
		_ = c.Error(problems.ServiceUnavailable("record store is busy, please try again later"))
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	items := make([]recordView, 0, len(recs))
	for _, r := range recs {
		items = append(items, newRecordView(r))
	}
	c.JSON(http.StatusOK, queryResponse{Items: items, Count: len(items)})
}

// newRecordView renders the payload inline when it is JSON; other payloads are
// base64-encoded by encoding/json.
func newRecordView(r match.EnrichedRecord) recordView {
	v := recordView{
		EventID:     r.EventID,
		MatchID:     r.MatchID,
		EventType:   r.EventType,
		Team:        r.Team,
		Player:      r.Player,
		Timestamp:   r.Timestamp,
		Season:      r.Season,
		PublishedAt: r.PublishedAt,
		EnrichedAt:  r.EnrichedAt,
	}
	switch {
	case len(r.Payload) == 0:
	case json.Valid(r.Payload):
		v.Payload = json.RawMessage(r.Payload)
	default:
		v.Payload = r.Payload
	}
	return v
}

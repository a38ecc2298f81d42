// Package api serves the ingest and query HTTP routes.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Sokol111/match-events/pkg/core/logger"
	"github.com/Sokol111/match-events/pkg/http/problems"
	"github.com/Sokol111/match-events/pkg/match"
	"github.com/Sokol111/match-events/pkg/messaging/kafka/producer"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ingestedMessage = "Match event ingested OK"
	invalidInput    = "Invalid input data"

	maxEventBytes = 1 << 20
)

type ingestResponse struct {
	Message string `json:"message"`
	EventID string `json:"event_id"`
}

// IngestHandler validates a raw match event and publishes it to the event topic,
// keyed by match id so one match stays on one partition.
type IngestHandler struct {
	publisher producer.Publisher
	codec     *match.Codec
	topic     string
	now       func() time.Time
}

func NewIngestHandler(publisher producer.Publisher, codec *match.Codec, topic string) *IngestHandler {
	return &IngestHandler{publisher: publisher, codec: codec, topic: topic, now: time.Now}
}

func (h *IngestHandler) Ingest(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxEventBytes))
	if err != nil {
		_ = c.Error(problems.Invalid(invalidInput, map[string]string{"body": "request body is too large or unreadable"}))
		return
	}

	var in match.Input
	if err := json.Unmarshal(body, &in); err != nil {
		_ = c.Error(problems.Invalid(invalidInput, map[string]string{"body": "request body must be a JSON object"}))
		return
	}

	event, err := match.NewEvent(in, body, h.now())
	if err != nil {
		_ = c.Error(validationProblem(err))
		return
	}

	value, err := h.codec.Encode(event)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ctx := logger.WithFields(c.Request.Context(),
		zap.String("event_id", event.ID),
		zap.String("match_id", event.MatchID),
		zap.String("event_type", event.EventType.String()),
	)
	c.Request = c.Request.WithContext(ctx)

	if err := h.publisher.Publish(ctx, h.topic, nil, []byte(event.MatchID), value); err != nil {
		_ = c.Error(publishProblem(err))
		return
	}

	logger.Get(ctx).Debug("match event ingested")
	c.JSON(http.StatusOK, ingestResponse{Message: ingestedMessage, EventID: event.ID})
}

func validationProblem(err error) *problems.Problem {
	fields := map[string]string{}
	var verr *match.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			fields[f.Field] = f.Err.Error()
		}
	} else {
		fields["body"] = err.Error()
	}
	return problems.Invalid(invalidInput, fields)
}

// publishProblem maps a publish failure to 504 when the delivery report timed out and
// to 503 otherwise. Either way the event may still have been written.
func publishProblem(err error) *problems.Problem {
	if errors.Is(err, producer.ErrPublishTimeout) {
		return problems.GatewayTimeout("timed out waiting for the event to be acknowledged")
	}
	return problems.ServiceUnavailable("event broker is unavailable, please try again later")
}

// Package storage persists processed batches: raw payloads as blobs and
// enriched records in the indexed store.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sokol111/match-events/pkg/match"
	"github.com/Sokol111/match-events/pkg/storage/blob"
	"github.com/Sokol111/match-events/pkg/storage/records"
	"github.com/Sokol111/match-events/pkg/workflow"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const jsonContentType = "application/json"

// RawPayloadKey is the blob key of an event's raw request body.
func RawPayloadKey(eventID string) string {
	return "events/" + eventID + ".json"
}

// ArchiveKey is the blob key of a batch document, named after its first event.
func ArchiveKey(firstEventID string) string {
	return "match_events_" + firstEventID + ".json"
}

// Store is the workflow's store step. Every write is keyed by event id, so a
// retried or redelivered batch overwrites its own output.
type Store struct {
	blobs             blob.Store
	records           records.Repository
	uploadConcurrency int
	log               *zap.Logger
}

func NewStore(blobs blob.Store, recs records.Repository, uploadConcurrency int, log *zap.Logger) *Store {
	if uploadConcurrency < 1 {
		uploadConcurrency = 1
	}
	return &Store{blobs: blobs, records: recs, uploadConcurrency: uploadConcurrency, log: log}
}

// PutRawPayload writes the raw body of one event.
func (s *Store) PutRawPayload(ctx context.Context, eventID string, payload []byte) error {
	if err := s.blobs.Put(ctx, RawPayloadKey(eventID), payload, jsonContentType); err != nil {
		return fmt.Errorf("failed to put raw payload of event %s: %w", eventID, err)
	}
	return nil
}

// PutIndexedRecords upserts records by event id.
func (s *Store) PutIndexedRecords(ctx context.Context, recs []match.EnrichedRecord) error {
	return s.records.Upsert(ctx, recs)
}

// Store writes the raw payloads and the batch document, then the indexed records.
func (s *Store) Store(ctx context.Context, batch match.Batch, recs []match.EnrichedRecord) error {
	if batch.Len() == 0 {
		return nil
	}
	if len(recs) != batch.Len() {
		return workflow.MarkPermanent(fmt.Errorf("batch has %d events but %d records", batch.Len(), len(recs)))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.uploadConcurrency)
	for _, ev := range batch.Events {
		g.Go(func() error {
			return s.PutRawPayload(gctx, ev.ID, ev.Payload)
		})
	}
	if err := g.Wait(); err != nil {
		return classify(err)
	}

	doc, err := archiveDocument(recs)
	if err != nil {
		return workflow.MarkPermanent(err)
	}
	key := ArchiveKey(batch.Events[0].ID)
	if err := s.blobs.Put(ctx, key, doc, jsonContentType); err != nil {
		return classify(fmt.Errorf("failed to put batch document %s: %w", key, err))
	}

	if err := s.PutIndexedRecords(ctx, recs); err != nil {
		return classify(err)
	}

	s.log.Debug("batch stored",
		zap.String("archive", key),
		zap.Int("records", len(recs)),
	)
	return nil
}

func classify(err error) error {
	if errors.Is(err, blob.ErrAccessDenied) {
		return workflow.MarkPermanent(err)
	}
	return err
}

// archiveRecord is an enriched record with its payload kept as JSON when it is JSON.
type archiveRecord struct {
	match.EnrichedRecord
	Payload any `json:"payload,omitempty"`
}

func archiveDocument(recs []match.EnrichedRecord) ([]byte, error) {
	doc := make([]archiveRecord, 0, len(recs))
	for _, r := range recs {
		var payload any
		switch {
		case len(r.Payload) == 0:
		case json.Valid(r.Payload):
			payload = json.RawMessage(r.Payload)
		default:
			payload = r.Payload
		}
		doc = append(doc, archiveRecord{EnrichedRecord: r, Payload: payload})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch document: %w", err)
	}
	return data, nil
}

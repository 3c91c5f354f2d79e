package events

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dpx190/data-eng-hw/internal/ingest"
	"github.com/dpx190/data-eng-hw/internal/sequence"
)

// Publisher emits DatasetLoaded events after successful load runs.
type Publisher struct {
	ch       *amqp.Channel
	seqRepo  *sequence.Repository
	producer string
}

func NewPublisher(conn *amqp.Connection, seqRepo *sequence.Repository) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return &Publisher{
		ch:       ch,
		seqRepo:  seqRepo,
		producer: producerName,
	}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// PublishDatasetLoaded announces a finished run. The dataset directory's base
// name is the partition key, so sequences are per dataset.
func (p *Publisher) PublishDatasetLoaded(ctx context.Context, datasetDir string, run ingest.RunSummary) error {
	timestamp := time.Now().UTC()
	dataset := filepath.Base(datasetDir)

	payload := DatasetLoadedPayload{
		RunID:       run.RunID,
		Dataset:     dataset,
		RowsLoaded:  run.RowsLoaded,
		RowsDropped: run.RowsDropped,
		Timestamp:   timestamp,
	}
	for _, f := range run.Files {
		if f.Skipped {
			continue
		}
		payload.Files = append(payload.Files, LoadedFile{
			Name:  f.Name,
			Table: f.Table,
			Rows:  f.Rows,
		})
	}

	seq, err := p.seqRepo.NextSequence(ctx, dataset)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	ev, err := newDatasetLoadedEvent(dataset, seq, p.producer, payload, timestamp)
	if err != nil {
		return err
	}
	if err := validateDatasetLoaded(ev); err != nil {
		return fmt.Errorf("invalid DatasetLoaded event: %w", err)
	}

	body, err := json.Marshal(ev.EventEnvelope)
	if err != nil {
		return fmt.Errorf("marshal DatasetLoaded envelope: %w", err)
	}

	return p.publishJSON(ctx, DatasetLoadedRoutingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func newDatasetLoadedEvent(partitionKey string, seq int64, producer string, payload DatasetLoadedPayload, occurredAt time.Time) (DatasetLoadedEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return DatasetLoadedEvent{}, fmt.Errorf("marshal DatasetLoaded payload: %w", err)
	}
	return DatasetLoadedEvent{
		EventEnvelope: EventEnvelope{
			EventName:    EventTypeDatasetLoaded,
			EventVersion: 1,
			EventID:      uuid.NewString(),
			Producer:     producer,
			PartitionKey: partitionKey,
			Sequence:     seq,
			OccurredAt:   occurredAt,
			Schema:       datasetLoadedSchema,
			Payload:      raw,
		},
		DecodedPayload: payload,
	}, nil
}

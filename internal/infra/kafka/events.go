package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/port"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/config"
)

const schemaVersion = "1.0"

const topicRequestSubmitted = "request.submitted"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Account   string           `json:"account,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, account string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		Account:   account,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishRequestSubmitted publishes access.request.submitted events.
func (p *EventPublisher) PublishRequestSubmitted(ctx context.Context, event domain.RequestSubmittedEvent) error {
	payload := struct {
		RequestID     string            `json:"request_id"`
		Account       string            `json:"account"`
		TabNumber     string            `json:"tab_number,omitempty"`
		Action        domain.ActionType `json:"action"`
		ResourceNames []string          `json:"resource_names"`
		Recipients    []string          `json:"recipients"`
		SubmittedAt   time.Time         `json:"submitted_at"`
		Metadata      map[string]any    `json:"metadata,omitempty"`
	}{
		RequestID:     event.RequestID,
		Account:       event.Account,
		TabNumber:     event.TabNumber,
		Action:        event.Action,
		ResourceNames: event.ResourceNames,
		Recipients:    event.Recipients,
		SubmittedAt:   event.SubmittedAt.UTC(),
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, topicRequestSubmitted, event.Account, event.SubmittedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)

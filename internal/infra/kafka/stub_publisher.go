package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// PublishRequestSubmitted logs access.request.submitted events.
func (p *StubPublisher) PublishRequestSubmitted(_ context.Context, event domain.RequestSubmittedEvent) error {
	at := event.SubmittedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", topicRequestSubmitted),
		zap.String("request_id", event.RequestID),
		zap.String("account", event.Account),
		zap.String("action", string(event.Action)),
		zap.Strings("resource_names", event.ResourceNames),
		zap.Int("recipients", len(event.Recipients)),
		zap.Time("timestamp", at.UTC()),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)

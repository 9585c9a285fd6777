package port

import (
	"context"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishRequestSubmitted(ctx context.Context, event domain.RequestSubmittedEvent) error
}

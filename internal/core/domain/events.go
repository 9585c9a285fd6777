package domain

import "time"

// RequestSubmittedEvent is published after a request has been dispatched to
// the resolved owners.
type RequestSubmittedEvent struct {
	EventID       string
	RequestID     string
	Account       string
	TabNumber     string
	Action        ActionType
	ResourceNames []string
	Recipients    []string
	SubmittedAt   time.Time
	Metadata      map[string]any
}

package port

import "context"

// Notifier delivers a composed request notification to the owner
// recipients. Whether delivery opens a reviewable draft or sends
// immediately is the implementation's policy, not the core's.
type Notifier interface {
	Send(ctx context.Context, recipients []string, subject, body string) error
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
)

// NotificationSubject is the single subject line used for every submission.
const NotificationSubject = "Access request"

var (
	// ErrNoResourcesSelected indicates a submission with an empty selection.
	ErrNoResourcesSelected = errors.New("no resources selected")
	// ErrNoResolvableOwners indicates none of the selected resources has a
	// resolvable owner.
	ErrNoResolvableOwners = errors.New("no resolvable owners")
	// ErrInvalidIntent indicates a malformed action intent.
	ErrInvalidIntent = errors.New("invalid action intent")
)

// OwnerLookup resolves a resource name to its owner's email. The boolean is
// false when no owner could be resolved.
type OwnerLookup func(ctx context.Context, resourceName string) (string, bool)

// NotificationPayload is the canonical rendered notification for one
// submission.
type NotificationPayload struct {
	Subject string
	Body    string
}

// ComposeRequest assembles the notification payload and the deduplicated
// owner recipient set for the selected lines. It performs no delivery.
//
// Recipient dedup is case-sensitive on the literal address string as
// returned by the directory; resource names are the only case-insensitive
// keys in this service.
func ComposeRequest(ctx context.Context, applicant domain.Applicant, intent domain.ActionIntent, selected []domain.RequestLine, lookup OwnerLookup) (*NotificationPayload, []string, error) {
	if len(selected) == 0 {
		return nil, nil, ErrNoResourcesSelected
	}
	if !domain.ValidActionType(intent.Action) {
		return nil, nil, fmt.Errorf("%w: unknown action %q", ErrInvalidIntent, intent.Action)
	}
	if intent.IsTemporary && intent.TemporaryUntil == nil {
		return nil, nil, fmt.Errorf("%w: temporary request without an end date", ErrInvalidIntent)
	}

	recipients := make([]string, 0, len(selected))
	seen := make(map[string]struct{}, len(selected))
	for _, line := range selected {
		email, ok := lookup(ctx, line.Resource.Name)
		if !ok || email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		recipients = append(recipients, email)
	}

	if len(recipients) == 0 {
		return nil, nil, ErrNoResolvableOwners
	}

	payload := &NotificationPayload{
		Subject: NotificationSubject,
		Body:    renderBody(applicant, intent, selected),
	}

	return payload, recipients, nil
}

// renderBody produces the notification body in a fixed field order so two
// identical submissions render byte-identical payloads.
func renderBody(applicant domain.Applicant, intent domain.ActionIntent, selected []domain.RequestLine) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Full name: %s\n", applicant.FullName)
	fmt.Fprintf(&b, "Position: %s\n", applicant.Position)
	fmt.Fprintf(&b, "Tab number: %s\n", applicant.TabNumber)
	fmt.Fprintf(&b, "Phone: %s\n", applicant.Phone)
	fmt.Fprintf(&b, "Action: %s\n", intent.Action)
	fmt.Fprintf(&b, "Reason: %s\n", intent.Reason)
	if intent.IsTemporary {
		b.WriteString("Temporary: yes\n")
		if intent.TemporaryUntil != nil {
			fmt.Fprintf(&b, "Valid until: %s\n", intent.TemporaryUntil.Format("2006-01-02"))
		}
	} else {
		b.WriteString("Temporary: no\n")
	}

	b.WriteString("\nRequested resources:\n")
	for _, line := range selected {
		b.WriteString(line.Resource.Name)
		b.WriteByte('\n')
	}

	return b.String()
}

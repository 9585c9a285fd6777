package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
)

type recordingNotifier struct {
	recipients []string
	subject    string
	body       string
	sendErr    error
	calls      int
}

func (n *recordingNotifier) Send(ctx context.Context, recipients []string, subject, body string) error {
	n.calls++
	n.recipients = recipients
	n.subject = subject
	n.body = body
	return n.sendErr
}

type recordingRequestRepo struct {
	created   []domain.AccessRequest
	createErr error
}

func (r *recordingRequestRepo) Create(ctx context.Context, request domain.AccessRequest) error {
	r.created = append(r.created, request)
	return r.createErr
}

func (r *recordingRequestRepo) GetByID(ctx context.Context, id string) (*domain.AccessRequest, error) {
	return nil, nil
}

func (r *recordingRequestRepo) ListByAccount(ctx context.Context, account string, limit, offset int) ([]domain.AccessRequest, error) {
	return r.created, nil
}

type recordingDraftRepo struct {
	saved []domain.Draft
}

func (r *recordingDraftRepo) Save(ctx context.Context, draft domain.Draft) error {
	r.saved = append(r.saved, draft)
	return nil
}

func (r *recordingDraftRepo) GetByAccount(ctx context.Context, account string) (*domain.Draft, error) {
	return nil, nil
}

func (r *recordingDraftRepo) Delete(ctx context.Context, id string) error { return nil }

type recordingPublisher struct {
	events []domain.RequestSubmittedEvent
}

func (p *recordingPublisher) PublishRequestSubmitted(ctx context.Context, event domain.RequestSubmittedEvent) error {
	p.events = append(p.events, event)
	return nil
}

func submitFixture(t *testing.T, directory *catalogDirectory, notifier *recordingNotifier) (*SubmitService, *recordingRequestRepo, *recordingPublisher) {
	t.Helper()

	logger := zaptest.NewLogger(t)
	catalog := NewCatalogService(directory, catalogIdentity{username: "ipetrov", hostname: "WS-001"}).WithLogger(logger)
	owners := NewOwnerResolver(directory).WithLogger(logger)

	requests := &recordingRequestRepo{}
	publisher := &recordingPublisher{}

	service := NewSubmitService(catalog, owners, notifier).
		WithLogger(logger).
		WithRepositories(requests, &recordingDraftRepo{}).
		WithEventPublisher(publisher).
		WithClock(func() time.Time {
			return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
		})

	return service, requests, publisher
}

func reachableDirectory() *catalogDirectory {
	return &catalogDirectory{
		reachable: true,
		groups: []domain.DirectoryResource{
			{Name: "GroupA", Description: "billing"},
			{Name: "GroupB", Description: "warehouse"},
		},
		memberships: []string{"GroupB"},
		workstations: []domain.DirectoryResource{
			{Name: "WS-001"},
		},
		profile: &domain.Applicant{
			FullName:  "Ivan Petrov",
			TabNumber: "4711",
			Account:   "ipetrov",
		},
		owners: map[string]string{
			"GroupA": "owner-a@corp.example.com",
			"GroupB": "owner-b@corp.example.com",
		},
	}
}

func TestSubmitDispatchesAndRecords(t *testing.T) {
	directory := reachableDirectory()
	notifier := &recordingNotifier{}
	service, requests, publisher := submitFixture(t, directory, notifier)

	result, err := service.Submit(context.Background(), SubmitInput{
		Account:       "ipetrov",
		Intent:        domain.ActionIntent{Action: domain.ActionAdd, Reason: "new duties"},
		ResourceNames: []string{"GroupA", "GroupB"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.State != domain.StateDispatched {
		t.Fatalf("expected dispatched state, got %q", result.State)
	}

	if notifier.calls != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", notifier.calls)
	}
	if len(notifier.recipients) != 2 {
		t.Fatalf("expected both owners as recipients, got %v", notifier.recipients)
	}
	if notifier.subject != NotificationSubject {
		t.Fatalf("unexpected subject %q", notifier.subject)
	}

	if len(requests.created) != 1 {
		t.Fatalf("expected one audit record, got %d", len(requests.created))
	}
	recorded := requests.created[0]
	if recorded.Applicant.Account != "ipetrov" {
		t.Fatalf("unexpected applicant on record: %+v", recorded.Applicant)
	}
	if got := recorded.ResourceNames(); len(got) != 2 || got[0] != "GroupA" || got[1] != "GroupB" {
		t.Fatalf("unexpected recorded resources: %v", got)
	}
	if !recorded.Lines[1].Granted {
		t.Fatalf("expected GroupB line to carry current membership")
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.events))
	}
	if publisher.events[0].RequestID != recorded.ID {
		t.Fatalf("event request id mismatch")
	}
}

func TestSubmitFailsOnEmptySelection(t *testing.T) {
	directory := reachableDirectory()
	notifier := &recordingNotifier{}
	service, requests, publisher := submitFixture(t, directory, notifier)

	result, err := service.Submit(context.Background(), SubmitInput{
		Account: "ipetrov",
		Intent:  domain.ActionIntent{Action: domain.ActionAdd},
	})
	if !errors.Is(err, ErrNoResourcesSelected) {
		t.Fatalf("expected ErrNoResourcesSelected, got %v", err)
	}
	if result.State != domain.StateFailed {
		t.Fatalf("expected failed state, got %q", result.State)
	}
	if notifier.calls != 0 {
		t.Fatalf("expected no dispatch, got %d", notifier.calls)
	}
	if len(requests.created) != 0 || len(publisher.events) != 0 {
		t.Fatalf("expected no side effects on failed submission")
	}
}

func TestSubmitSkipsUnknownResources(t *testing.T) {
	directory := reachableDirectory()
	notifier := &recordingNotifier{}
	service, _, _ := submitFixture(t, directory, notifier)

	result, err := service.Submit(context.Background(), SubmitInput{
		Account:       "ipetrov",
		Intent:        domain.ActionIntent{Action: domain.ActionAdd},
		ResourceNames: []string{"GroupA", "NoSuchGroup"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := result.Request.ResourceNames(); len(got) != 1 || got[0] != "GroupA" {
		t.Fatalf("expected unknown resource to be skipped, got %v", got)
	}
}

func TestSubmitMatchesSelectionCaseInsensitively(t *testing.T) {
	directory := reachableDirectory()
	notifier := &recordingNotifier{}
	service, _, _ := submitFixture(t, directory, notifier)

	result, err := service.Submit(context.Background(), SubmitInput{
		Account:       "ipetrov",
		Intent:        domain.ActionIntent{Action: domain.ActionAdd},
		ResourceNames: []string{"GROUPA", " groupa "},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Case-variant duplicates collapse to a single catalog line.
	if got := result.Request.ResourceNames(); len(got) != 1 || got[0] != "GroupA" {
		t.Fatalf("expected one canonical line, got %v", got)
	}
}

func TestSubmitFailsWhenNoOwnerResolves(t *testing.T) {
	directory := reachableDirectory()
	directory.owners = nil
	notifier := &recordingNotifier{}
	service, _, _ := submitFixture(t, directory, notifier)

	_, err := service.Submit(context.Background(), SubmitInput{
		Account:       "ipetrov",
		Intent:        domain.ActionIntent{Action: domain.ActionAdd},
		ResourceNames: []string{"GroupA"},
	})
	if !errors.Is(err, ErrNoResolvableOwners) {
		t.Fatalf("expected ErrNoResolvableOwners, got %v", err)
	}
	if notifier.calls != 0 {
		t.Fatalf("expected no dispatch without recipients")
	}
}

func TestSubmitWrapsDispatchFailure(t *testing.T) {
	directory := reachableDirectory()
	notifier := &recordingNotifier{sendErr: errors.New("smtp refused")}
	service, requests, publisher := submitFixture(t, directory, notifier)

	result, err := service.Submit(context.Background(), SubmitInput{
		Account:       "ipetrov",
		Intent:        domain.ActionIntent{Action: domain.ActionAdd},
		ResourceNames: []string{"GroupA"},
	})
	if !errors.Is(err, ErrDispatchFailed) {
		t.Fatalf("expected ErrDispatchFailed, got %v", err)
	}
	if result.State != domain.StateFailed {
		t.Fatalf("expected failed state, got %q", result.State)
	}
	if len(requests.created) != 0 || len(publisher.events) != 0 {
		t.Fatalf("expected no record or event after dispatch failure")
	}
}

func TestSubmitAbandonedBeforeDispatchHasNoSideEffects(t *testing.T) {
	directory := reachableDirectory()
	notifier := &recordingNotifier{}
	service, requests, publisher := submitFixture(t, directory, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Submit(ctx, SubmitInput{
		Account:       "ipetrov",
		Intent:        domain.ActionIntent{Action: domain.ActionAdd},
		ResourceNames: []string{"GroupA"},
	})
	if err == nil {
		t.Fatalf("expected abandoned submission to fail")
	}
	if notifier.calls != 0 {
		t.Fatalf("expected no dispatch after abandonment")
	}
	if len(requests.created) != 0 || len(publisher.events) != 0 {
		t.Fatalf("expected no side effects after abandonment")
	}
}

func TestSubmitRecordFailureDoesNotChangeOutcome(t *testing.T) {
	directory := reachableDirectory()
	notifier := &recordingNotifier{}
	service, requests, _ := submitFixture(t, directory, notifier)
	requests.createErr = errors.New("db down")

	result, err := service.Submit(context.Background(), SubmitInput{
		Account:       "ipetrov",
		Intent:        domain.ActionIntent{Action: domain.ActionAdd},
		ResourceNames: []string{"GroupA"},
	})
	if err != nil {
		t.Fatalf("expected successful submission despite audit failure, got %v", err)
	}
	if result.State != domain.StateDispatched {
		t.Fatalf("expected dispatched state, got %q", result.State)
	}
}

func TestSubmitObservesOutcome(t *testing.T) {
	directory := reachableDirectory()
	notifier := &recordingNotifier{}
	service, _, _ := submitFixture(t, directory, notifier)

	var outcomes []string
	service.WithOutcomeObserver(func(outcome string) {
		outcomes = append(outcomes, outcome)
	})

	if _, err := service.Submit(context.Background(), SubmitInput{
		Account:       "ipetrov",
		Intent:        domain.ActionIntent{Action: domain.ActionAdd},
		ResourceNames: []string{"GroupA"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _ = service.Submit(context.Background(), SubmitInput{
		Account: "ipetrov",
		Intent:  domain.ActionIntent{Action: domain.ActionAdd},
	})

	if len(outcomes) != 2 || outcomes[0] != "dispatched" || outcomes[1] != "failed" {
		t.Fatalf("unexpected outcomes: %v", outcomes)
	}
}

func TestSubmitBodyListsResourcesInSelectionOrder(t *testing.T) {
	directory := reachableDirectory()
	notifier := &recordingNotifier{}
	service, _, _ := submitFixture(t, directory, notifier)

	if _, err := service.Submit(context.Background(), SubmitInput{
		Account:       "ipetrov",
		Intent:        domain.ActionIntent{Action: domain.ActionAdd},
		ResourceNames: []string{"GroupB", "GroupA"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	idxB := strings.Index(notifier.body, "GroupB")
	idxA := strings.Index(notifier.body, "GroupA")
	if idxB < 0 || idxA < 0 || idxB > idxA {
		t.Fatalf("expected selection order preserved in body:\n%s", notifier.body)
	}
}

func TestSaveDraftRequiresAccount(t *testing.T) {
	directory := reachableDirectory()
	service, _, _ := submitFixture(t, directory, &recordingNotifier{})

	if _, err := service.SaveDraft(context.Background(), SubmitInput{}); err == nil {
		t.Fatalf("expected error for blank account")
	}
}

func TestSaveDraftPersistsFormState(t *testing.T) {
	directory := reachableDirectory()
	logger := zaptest.NewLogger(t)
	catalog := NewCatalogService(directory, catalogIdentity{username: "ipetrov"}).WithLogger(logger)
	owners := NewOwnerResolver(directory).WithLogger(logger)
	drafts := &recordingDraftRepo{}

	service := NewSubmitService(catalog, owners, &recordingNotifier{}).
		WithRepositories(&recordingRequestRepo{}, drafts)

	draft, err := service.SaveDraft(context.Background(), SubmitInput{
		Account:       "ipetrov",
		Intent:        domain.ActionIntent{Action: domain.ActionAdd, Reason: "wip"},
		ResourceNames: []string{"GroupA"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(drafts.saved) != 1 {
		t.Fatalf("expected one saved draft, got %d", len(drafts.saved))
	}
	if draft.Account != "ipetrov" || len(draft.ResourceNames) != 1 {
		t.Fatalf("unexpected draft: %+v", draft)
	}
}

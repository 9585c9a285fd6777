package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/port"
)

// ErrDispatchFailed indicates the notification collaborator rejected the
// composed payload. The submission remains retryable by the user.
var ErrDispatchFailed = errors.New("notification dispatch failed")

// SubmitInput carries one submission attempt: the requester's final
// selection plus intent, as edited on the request form.
type SubmitInput struct {
	Account         string
	Intent          domain.ActionIntent
	ResourceNames   []string
	WorkstationName string
}

// SubmitResult reports the submission outcome. State is Dispatched on
// success and Failed otherwise; FailReason carries the sentinel behind a
// failed state.
type SubmitResult struct {
	Request    *domain.AccessRequest
	State      domain.SubmissionState
	FailReason error
}

// SubmitService drives the submission pipeline: gather selected lines,
// resolve owners, compose the payload, dispatch it, then record and publish
// the outcome. It is the only state machine in the core; transitions are
//
//	Idle -> Composing -> AwaitingOwnerResolution -> Ready -> Dispatched
//
// with a Failed exit from any state. The service never retries on its own;
// a retry is an explicit user-initiated re-submission.
type SubmitService struct {
	catalog  *CatalogService
	owners   *OwnerResolver
	notifier port.Notifier
	requests port.RequestRepository
	drafts   port.DraftRepository
	events   port.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
	observe  func(outcome string)
}

// NewSubmitService constructs a SubmitService.
func NewSubmitService(catalog *CatalogService, owners *OwnerResolver, notifier port.Notifier) *SubmitService {
	return &SubmitService{
		catalog:  catalog,
		owners:   owners,
		notifier: notifier,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
}

// WithLogger attaches a structured logger.
func (s *SubmitService) WithLogger(logger *zap.Logger) *SubmitService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithRepositories wires the audit and draft repositories.
func (s *SubmitService) WithRepositories(requests port.RequestRepository, drafts port.DraftRepository) *SubmitService {
	s.requests = requests
	s.drafts = drafts
	return s
}

// WithEventPublisher wires the domain event publisher.
func (s *SubmitService) WithEventPublisher(events port.EventPublisher) *SubmitService {
	s.events = events
	return s
}

// WithOutcomeObserver wires a callback invoked once per submission attempt
// with "dispatched" or "failed".
func (s *SubmitService) WithOutcomeObserver(observe func(outcome string)) *SubmitService {
	s.observe = observe
	return s
}

// WithClock injects a custom clock (primarily for testing).
func (s *SubmitService) WithClock(now func() time.Time) *SubmitService {
	if now != nil {
		s.now = now
	}
	return s
}

// Submit runs one submission attempt end to end. Per-resource owner
// failures are absorbed; empty selection, zero resolvable owners and
// dispatch failures surface as a Failed result with the matching sentinel.
// Abandoning the context before dispatch leaves no side effects.
func (s *SubmitService) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	state := domain.StateIdle

	fail := func(reason error) (*SubmitResult, error) {
		s.logger.Warn("submission failed",
			zap.String("account", input.Account),
			zap.String("state", string(state)),
			zap.Error(reason),
		)
		if s.observe != nil {
			s.observe("failed")
		}
		return &SubmitResult{State: domain.StateFailed, FailReason: reason}, reason
	}

	state = domain.StateComposing
	session, err := s.catalog.Session(ctx, input.Account)
	if err != nil {
		return fail(err)
	}

	selected := s.gatherSelected(session, input.ResourceNames)
	if len(selected) == 0 {
		return fail(ErrNoResourcesSelected)
	}

	state = domain.StateAwaitingOwners
	names := make([]string, 0, len(selected))
	for _, line := range selected {
		names = append(names, line.Resource.Name)
	}
	resolved := s.owners.ResolveAll(ctx, names)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	lookup := func(_ context.Context, resourceName string) (string, bool) {
		email, ok := resolved[resourceName]
		return email, ok
	}

	payload, recipients, err := ComposeRequest(ctx, session.Applicant, input.Intent, selected, lookup)
	if err != nil {
		return fail(err)
	}
	state = domain.StateReady

	// Last abandonment point: after this the notification is handed off.
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	if err := s.notifier.Send(ctx, recipients, payload.Subject, payload.Body); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrDispatchFailed, err))
	}
	state = domain.StateDispatched

	request := &domain.AccessRequest{
		ID:          uuid.NewString(),
		Applicant:   session.Applicant,
		Intent:      input.Intent,
		Lines:       selected,
		Workstation: s.selectedWorkstation(session, input.WorkstationName),
		Recipients:  recipients,
		Subject:     payload.Subject,
		Body:        payload.Body,
		SubmittedAt: s.now().UTC(),
	}

	s.record(ctx, request)
	s.publish(ctx, request)
	if s.observe != nil {
		s.observe("dispatched")
	}

	s.logger.Info("request dispatched",
		zap.String("request_id", request.ID),
		zap.String("account", session.Applicant.Account),
		zap.Strings("resources", request.ResourceNames()),
		zap.Int("recipients", len(recipients)),
	)

	return &SubmitResult{Request: request, State: domain.StateDispatched}, nil
}

// gatherSelected maps the user's selected names back onto session catalog
// lines, preserving selection order. Granted comes from the session
// snapshot; Requested is true by construction. Names not present in the
// catalog are absorbed with a log entry, mirroring the per-resource failure
// policy.
func (s *SubmitService) gatherSelected(session *Session, resourceNames []string) []domain.RequestLine {
	byKey := make(map[string]domain.DirectoryResource, len(session.Resources))
	for _, resource := range session.Resources {
		byKey[domain.NormalizeResourceName(resource.Name)] = resource
	}

	selected := make([]domain.RequestLine, 0, len(resourceNames))
	seen := make(map[string]struct{}, len(resourceNames))
	for _, name := range resourceNames {
		key := domain.NormalizeResourceName(name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		resource, ok := byKey[key]
		if !ok {
			s.logger.Warn("selected resource not in catalog, skipping",
				zap.String("resource", name),
			)
			continue
		}
		selected = append(selected, domain.RequestLine{
			Resource:  resource,
			Granted:   session.Memberships.Contains(resource.Name),
			Requested: true,
		})
	}
	return selected
}

func (s *SubmitService) selectedWorkstation(session *Session, name string) *domain.DirectoryResource {
	key := domain.NormalizeResourceName(name)
	if key == "" {
		return session.LocalWorkstation
	}
	for i := range session.Workstations {
		if domain.NormalizeResourceName(session.Workstations[i].Name) == key {
			return &session.Workstations[i]
		}
	}
	return nil
}

// record appends the dispatched request to the audit trail. Persistence
// failures never change the submission outcome.
func (s *SubmitService) record(ctx context.Context, request *domain.AccessRequest) {
	if s.requests == nil {
		return
	}
	if err := s.requests.Create(ctx, *request); err != nil {
		s.logger.Error("record dispatched request failed",
			zap.String("request_id", request.ID),
			zap.Error(err),
		)
	}
}

func (s *SubmitService) publish(ctx context.Context, request *domain.AccessRequest) {
	if s.events == nil {
		return
	}
	event := domain.RequestSubmittedEvent{
		EventID:       uuid.NewString(),
		RequestID:     request.ID,
		Account:       request.Applicant.Account,
		TabNumber:     request.Applicant.TabNumber,
		Action:        request.Intent.Action,
		ResourceNames: request.ResourceNames(),
		Recipients:    request.Recipients,
		SubmittedAt:   request.SubmittedAt,
	}
	if err := s.events.PublishRequestSubmitted(ctx, event); err != nil {
		s.logger.Error("publish request submitted event failed",
			zap.String("request_id", request.ID),
			zap.Error(err),
		)
	}
}

// SaveDraft persists the current form state for later editing.
func (s *SubmitService) SaveDraft(ctx context.Context, input SubmitInput) (*domain.Draft, error) {
	if s.drafts == nil {
		return nil, fmt.Errorf("draft repository not configured")
	}

	account := strings.TrimSpace(input.Account)
	if account == "" {
		return nil, fmt.Errorf("account is required")
	}

	draft := domain.Draft{
		ID:            uuid.NewString(),
		Account:       account,
		Intent:        input.Intent,
		ResourceNames: input.ResourceNames,
		SavedAt:       s.now().UTC(),
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	return &draft, nil
}

// History lists the account's dispatched requests, newest first.
func (s *SubmitService) History(ctx context.Context, account string, limit, offset int) ([]domain.AccessRequest, error) {
	if s.requests == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	requests, err := s.requests.ListByAccount(ctx, strings.TrimSpace(account), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

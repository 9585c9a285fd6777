package usecase

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
)

type catalogDirectory struct {
	mu           sync.Mutex
	reachable    bool
	groups       []domain.DirectoryResource
	workstations []domain.DirectoryResource
	memberships  []string
	profile      *domain.Applicant
	owners       map[string]string
	loadCalls    int
}

func (d *catalogDirectory) ResourcesByCategory(ctx context.Context, category domain.ResourceCategory) ([]domain.DirectoryResource, error) {
	d.mu.Lock()
	d.loadCalls++
	d.mu.Unlock()

	if category == domain.CategoryWorkstation {
		return d.workstations, nil
	}
	return d.groups, nil
}

func (d *catalogDirectory) GroupsForUser(ctx context.Context, account string) ([]string, error) {
	return d.memberships, nil
}

func (d *catalogDirectory) OwnerEmail(ctx context.Context, resourceName string) (string, bool, error) {
	email, ok := d.owners[resourceName]
	return email, ok, nil
}

func (d *catalogDirectory) UserProfile(ctx context.Context, account string) (*domain.Applicant, error) {
	return d.profile, nil
}

func (d *catalogDirectory) Reachable(ctx context.Context) bool { return d.reachable }

type catalogIdentity struct {
	username string
	hostname string
}

func (i catalogIdentity) Username() string { return i.username }
func (i catalogIdentity) Hostname() string { return i.hostname }

func TestSessionLoadsCatalogAndMemberships(t *testing.T) {
	directory := &catalogDirectory{
		reachable: true,
		groups: []domain.DirectoryResource{
			{Name: "GroupA"},
			{Name: "GroupB"},
		},
		memberships: []string{"GroupA"},
		profile: &domain.Applicant{
			FullName: "Ivan Petrov",
			Account:  "ipetrov",
		},
	}
	service := NewCatalogService(directory, catalogIdentity{username: "ipetrov"}).
		WithLogger(zaptest.NewLogger(t))

	session, err := service.Session(context.Background(), "ipetrov")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.Degraded {
		t.Fatalf("expected healthy session")
	}
	if session.Applicant.FullName != "Ivan Petrov" {
		t.Fatalf("unexpected applicant: %+v", session.Applicant)
	}

	lines := session.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !lines[0].Granted || lines[1].Granted {
		t.Fatalf("unexpected reconciliation: %+v", lines)
	}
}

func TestSessionDegradesWhenDirectoryUnreachable(t *testing.T) {
	directory := &catalogDirectory{reachable: false}
	service := NewCatalogService(directory, catalogIdentity{username: "jdoe"}).
		WithLogger(zaptest.NewLogger(t))

	session, err := service.Session(context.Background(), "jdoe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !session.Degraded {
		t.Fatalf("expected degraded session")
	}
	if len(session.Resources) != 0 || len(session.Workstations) != 0 {
		t.Fatalf("expected empty catalog in degraded session")
	}
	if session.Applicant.Account != "jdoe" {
		t.Fatalf("expected local fallback applicant, got %+v", session.Applicant)
	}
	if len(session.Lines()) != 0 {
		t.Fatalf("expected no lines in degraded session")
	}
}

func TestSessionIsCachedUntilRefresh(t *testing.T) {
	directory := &catalogDirectory{reachable: true}
	service := NewCatalogService(directory, catalogIdentity{username: "jdoe"}).
		WithLogger(zaptest.NewLogger(t))

	if _, err := service.Session(context.Background(), "jdoe"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstCalls := directory.loadCalls

	if _, err := service.Session(context.Background(), "jdoe"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if directory.loadCalls != firstCalls {
		t.Fatalf("expected cached session, directory was queried again")
	}

	if _, err := service.Refresh(context.Background(), "jdoe"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if directory.loadCalls == firstCalls {
		t.Fatalf("expected refresh to reload from the directory")
	}
}

func TestSessionMatchesLocalWorkstation(t *testing.T) {
	directory := &catalogDirectory{
		reachable: true,
		workstations: []domain.DirectoryResource{
			{Name: "WS-002"},
			{Name: "ws-001"},
		},
	}
	service := NewCatalogService(directory, catalogIdentity{username: "jdoe", hostname: "WS-001"}).
		WithLogger(zaptest.NewLogger(t))

	session, err := service.Session(context.Background(), "jdoe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.LocalWorkstation == nil || session.LocalWorkstation.Name != "ws-001" {
		t.Fatalf("expected case-insensitive local workstation match, got %+v", session.LocalWorkstation)
	}
}

func TestSessionUsesLocalIdentityWhenAccountBlank(t *testing.T) {
	directory := &catalogDirectory{
		reachable: true,
		profile:   &domain.Applicant{FullName: "John Doe", Account: "jdoe"},
	}
	service := NewCatalogService(directory, catalogIdentity{username: "jdoe"}).
		WithLogger(zaptest.NewLogger(t))

	session, err := service.Session(context.Background(), "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.Applicant.Account != "jdoe" {
		t.Fatalf("expected local identity account, got %+v", session.Applicant)
	}
}

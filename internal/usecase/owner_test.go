package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
)

type ownerDirectory struct {
	mu      sync.Mutex
	owners  map[string]string
	errs    map[string]error
	delay   time.Duration
	lookups []string
}

func (d *ownerDirectory) ResourcesByCategory(ctx context.Context, category domain.ResourceCategory) ([]domain.DirectoryResource, error) {
	return nil, nil
}

func (d *ownerDirectory) GroupsForUser(ctx context.Context, account string) ([]string, error) {
	return nil, nil
}

func (d *ownerDirectory) OwnerEmail(ctx context.Context, resourceName string) (string, bool, error) {
	d.mu.Lock()
	d.lookups = append(d.lookups, resourceName)
	d.mu.Unlock()

	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}

	if err, ok := d.errs[resourceName]; ok {
		return "", false, err
	}
	email, ok := d.owners[resourceName]
	return email, ok, nil
}

func (d *ownerDirectory) UserProfile(ctx context.Context, account string) (*domain.Applicant, error) {
	return nil, nil
}

func (d *ownerDirectory) Reachable(ctx context.Context) bool { return true }

func TestResolveReturnsOwnerEmail(t *testing.T) {
	directory := &ownerDirectory{
		owners: map[string]string{"GroupA": "a@corp.example.com"},
	}
	resolver := NewOwnerResolver(directory).WithLogger(zaptest.NewLogger(t))

	email, ok := resolver.Resolve(context.Background(), "GroupA")
	if !ok || email != "a@corp.example.com" {
		t.Fatalf("expected owner email, got %q (ok=%v)", email, ok)
	}
}

func TestResolveAbsorbsDirectoryError(t *testing.T) {
	directory := &ownerDirectory{
		errs: map[string]error{"GroupA": errors.New("ldap timeout")},
	}
	resolver := NewOwnerResolver(directory).WithLogger(zaptest.NewLogger(t))

	_, ok := resolver.Resolve(context.Background(), "GroupA")
	if ok {
		t.Fatalf("expected failed lookup to report ok=false")
	}
}

func TestResolveEmptyNameSkipsLookup(t *testing.T) {
	directory := &ownerDirectory{}
	resolver := NewOwnerResolver(directory)

	if _, ok := resolver.Resolve(context.Background(), ""); ok {
		t.Fatalf("expected empty name to resolve nothing")
	}
	if len(directory.lookups) != 0 {
		t.Fatalf("expected no directory lookup for empty name, got %v", directory.lookups)
	}
}

func TestResolveAllMergesConcurrentLookups(t *testing.T) {
	directory := &ownerDirectory{
		owners: map[string]string{
			"GroupA": "a@corp.example.com",
			"GroupC": "c@corp.example.com",
		},
		errs: map[string]error{"GroupB": errors.New("no such object")},
	}
	resolver := NewOwnerResolver(directory).WithLogger(zaptest.NewLogger(t))

	resolved := resolver.ResolveAll(context.Background(), []string{"GroupA", "GroupB", "GroupC"})

	if len(resolved) != 2 {
		t.Fatalf("expected 2 resolved owners, got %v", resolved)
	}
	if resolved["GroupA"] != "a@corp.example.com" || resolved["GroupC"] != "c@corp.example.com" {
		t.Fatalf("unexpected resolution: %v", resolved)
	}
	if _, ok := resolved["GroupB"]; ok {
		t.Fatalf("expected GroupB to remain unresolved")
	}
}

func TestResolveAllEmptyInput(t *testing.T) {
	resolver := NewOwnerResolver(&ownerDirectory{})

	resolved := resolver.ResolveAll(context.Background(), nil)
	if len(resolved) != 0 {
		t.Fatalf("expected empty map, got %v", resolved)
	}
}

func TestResolveTimesOutSlowLookup(t *testing.T) {
	directory := &ownerDirectory{
		owners: map[string]string{"GroupA": "a@corp.example.com"},
		delay:  200 * time.Millisecond,
	}
	resolver := NewOwnerResolver(directory).
		WithLogger(zaptest.NewLogger(t)).
		WithTimeout(20 * time.Millisecond)

	start := time.Now()
	_, ok := resolver.Resolve(context.Background(), "GroupA")
	if ok {
		t.Fatalf("expected slow lookup to fail")
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Fatalf("lookup was not bounded by the timeout, took %v", elapsed)
	}
}

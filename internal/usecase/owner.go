package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/port"
)

const defaultOwnerLookupTimeout = 5 * time.Second

// OwnerResolver maps resource names to their accountable owner's email via
// the directory's managed-by relation. Owner data is deliberately not part
// of the cached session snapshot: it is resolved per resource at submission
// time so it reflects current directory state.
type OwnerResolver struct {
	directory port.Directory
	logger    *zap.Logger
	timeout   time.Duration
}

// NewOwnerResolver constructs an OwnerResolver.
func NewOwnerResolver(directory port.Directory) *OwnerResolver {
	return &OwnerResolver{
		directory: directory,
		logger:    zap.NewNop(),
		timeout:   defaultOwnerLookupTimeout,
	}
}

// WithLogger attaches a structured logger.
func (r *OwnerResolver) WithLogger(logger *zap.Logger) *OwnerResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithTimeout overrides the per-lookup timeout.
func (r *OwnerResolver) WithTimeout(timeout time.Duration) *OwnerResolver {
	if timeout > 0 {
		r.timeout = timeout
	}
	return r
}

// Resolve returns the owner email for a single resource. The boolean is
// false when no owner could be resolved for any reason: unknown resource,
// no managed-by relation, owner without a mail attribute, or a directory
// failure scoped to this lookup. None of these abort a submission.
func (r *OwnerResolver) Resolve(ctx context.Context, resourceName string) (string, bool) {
	if r.directory == nil || resourceName == "" {
		return "", false
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	email, ok, err := r.directory.OwnerEmail(lookupCtx, resourceName)
	if err != nil {
		r.logger.Warn("owner lookup failed",
			zap.String("resource", resourceName),
			zap.Error(err),
		)
		return "", false
	}
	if !ok || email == "" {
		r.logger.Debug("resource has no resolvable owner",
			zap.String("resource", resourceName),
		)
		return "", false
	}

	return email, true
}

// ownerResult carries one lookup outcome back to the calling goroutine.
type ownerResult struct {
	index int
	email string
	ok    bool
}

// ResolveAll resolves owners for the given resource names concurrently, one
// independent lookup per name with an individually bounded timeout so a
// single slow query cannot block the rest. Results are merged back onto the
// calling goroutine and returned in input order; unresolved entries are
// reported with ok=false.
func (r *OwnerResolver) ResolveAll(ctx context.Context, resourceNames []string) map[string]string {
	resolved := make(map[string]string, len(resourceNames))
	if len(resourceNames) == 0 {
		return resolved
	}

	results := make(chan ownerResult, len(resourceNames))
	var wg sync.WaitGroup
	for i, name := range resourceNames {
		wg.Add(1)
		go func(index int, resourceName string) {
			defer wg.Done()
			email, ok := r.Resolve(ctx, resourceName)
			results <- ownerResult{index: index, email: email, ok: ok}
		}(i, name)
	}

	wg.Wait()
	close(results)

	for res := range results {
		if res.ok {
			resolved[resourceNames[res.index]] = res.email
		}
	}

	return resolved
}

// LookupFunc adapts the resolver to the composer's owner lookup signature.
func (r *OwnerResolver) LookupFunc() OwnerLookup {
	return func(ctx context.Context, resourceName string) (string, bool) {
		return r.Resolve(ctx, resourceName)
	}
}

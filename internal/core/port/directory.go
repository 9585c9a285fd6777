package port

import (
	"context"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
)

// Directory exposes the read-only organizational directory queries the
// service depends on. Implementations must map lookup failures to empty or
// absent results together with a recoverable error; callers degrade, they
// never crash.
type Directory interface {
	// ResourcesByCategory lists directory objects of the given category
	// in directory order.
	ResourcesByCategory(ctx context.Context, category domain.ResourceCategory) ([]domain.DirectoryResource, error)
	// GroupsForUser returns the names of the groups the account is a
	// member of.
	GroupsForUser(ctx context.Context, account string) ([]string, error)
	// OwnerEmail dereferences the resource's managed-by relation to the
	// owning identity's contact address. The boolean is false whenever no
	// owner could be resolved, regardless of cause.
	OwnerEmail(ctx context.Context, resourceName string) (string, bool, error)
	// UserProfile resolves the applicant attributes for an account.
	UserProfile(ctx context.Context, account string) (*domain.Applicant, error)
	// Reachable probes directory connectivity.
	Reachable(ctx context.Context) bool
}

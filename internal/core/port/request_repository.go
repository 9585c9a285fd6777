package port

import (
	"context"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
)

// RequestRepository persists the audit trail of dispatched requests.
type RequestRepository interface {
	Create(ctx context.Context, request domain.AccessRequest) error
	GetByID(ctx context.Context, id string) (*domain.AccessRequest, error)
	ListByAccount(ctx context.Context, account string, limit, offset int) ([]domain.AccessRequest, error)
}

// DraftRepository persists saved request drafts per account.
type DraftRepository interface {
	Save(ctx context.Context, draft domain.Draft) error
	GetByAccount(ctx context.Context, account string) (*domain.Draft, error)
	Delete(ctx context.Context, id string) error
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/port"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/repository"
)

// RequestRepository implements port.RequestRepository using PostgreSQL. It
// is the audit trail of dispatched requests; the submission pipeline itself
// never reads it.
type RequestRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRequestRepository wires a PostgreSQL-backed request repository.
func NewRequestRepository(exec pgExecutor) *RequestRepository {
	return &RequestRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var requestColumns = []string{
	"id",
	"account",
	"full_name",
	"position",
	"tab_number",
	"phone",
	"action",
	"reason",
	"is_temporary",
	"temporary_until",
	"workstation",
	"resource_names",
	"recipients",
	"subject",
	"body",
	"submitted_at",
}

// Create inserts a dispatched request row.
func (r *RequestRepository) Create(ctx context.Context, request domain.AccessRequest) error {
	var workstationValue any
	if request.Workstation != nil && request.Workstation.Name != "" {
		workstationValue = request.Workstation.Name
	}

	var temporaryUntil any
	if request.Intent.TemporaryUntil != nil {
		temporaryUntil = *request.Intent.TemporaryUntil
	}

	query := r.builder.Insert("access.requests").
		Columns(requestColumns...).
		Values(
			request.ID,
			request.Applicant.Account,
			request.Applicant.FullName,
			request.Applicant.Position,
			request.Applicant.TabNumber,
			request.Applicant.Phone,
			request.Intent.Action,
			request.Intent.Reason,
			request.Intent.IsTemporary,
			temporaryUntil,
			workstationValue,
			request.ResourceNames(),
			request.Recipients,
			request.Subject,
			request.Body,
			request.SubmittedAt,
		)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert request sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	return nil
}

// GetByID retrieves a dispatched request by identifier.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.AccessRequest, error) {
	stmt, args, err := r.builder.
		Select(requestColumns...).
		From("access.requests").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select request sql: %w", err)
	}

	request, err := scanRequest(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select request: %w", err)
	}

	return request, nil
}

// ListByAccount returns the account's dispatched requests, newest first.
func (r *RequestRepository) ListByAccount(ctx context.Context, account string, limit, offset int) ([]domain.AccessRequest, error) {
	query := r.builder.
		Select(requestColumns...).
		From("access.requests").
		Where(squirrel.Eq{"account": account}).
		OrderBy("submitted_at DESC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	if offset > 0 {
		query = query.Offset(uint64(offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list requests sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	requests := make([]domain.AccessRequest, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, *request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	return requests, nil
}

func scanRequest(row pgx.Row) (*domain.AccessRequest, error) {
	var (
		request        domain.AccessRequest
		workstation    *string
		temporaryUntil *time.Time
		resourceNames  []string
	)

	err := row.Scan(
		&request.ID,
		&request.Applicant.Account,
		&request.Applicant.FullName,
		&request.Applicant.Position,
		&request.Applicant.TabNumber,
		&request.Applicant.Phone,
		&request.Intent.Action,
		&request.Intent.Reason,
		&request.Intent.IsTemporary,
		&temporaryUntil,
		&workstation,
		&resourceNames,
		&request.Recipients,
		&request.Subject,
		&request.Body,
		&request.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}

	request.Intent.TemporaryUntil = temporaryUntil
	if workstation != nil {
		request.Workstation = &domain.DirectoryResource{Name: *workstation}
	}

	request.Lines = make([]domain.RequestLine, 0, len(resourceNames))
	for _, name := range resourceNames {
		request.Lines = append(request.Lines, domain.RequestLine{
			Resource:  domain.DirectoryResource{Name: name},
			Requested: true,
		})
	}

	return &request, nil
}

var _ port.RequestRepository = (*RequestRepository)(nil)

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

// DraftRepository implements port.DraftRepository using PostgreSQL. One
// draft is kept per account; saving again replaces it.
type DraftRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewDraftRepository wires a PostgreSQL-backed draft repository.
func NewDraftRepository(exec pgExecutor) *DraftRepository {
	return &DraftRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Save upserts the account's draft.
func (r *DraftRepository) Save(ctx context.Context, draft domain.Draft) error {
	var temporaryUntil any
	if draft.Intent.TemporaryUntil != nil {
		temporaryUntil = *draft.Intent.TemporaryUntil
	}

	query := r.builder.Insert("access.drafts").
		Columns(
			"id",
			"account",
			"action",
			"reason",
			"is_temporary",
			"temporary_until",
			"resource_names",
			"saved_at",
		).
		Values(
			draft.ID,
			draft.Account,
			draft.Intent.Action,
			draft.Intent.Reason,
			draft.Intent.IsTemporary,
			temporaryUntil,
			draft.ResourceNames,
			draft.SavedAt,
		).
		Suffix(`ON CONFLICT (account) DO UPDATE SET
			id = EXCLUDED.id,
			action = EXCLUDED.action,
			reason = EXCLUDED.reason,
			is_temporary = EXCLUDED.is_temporary,
			temporary_until = EXCLUDED.temporary_until,
			resource_names = EXCLUDED.resource_names,
			saved_at = EXCLUDED.saved_at`)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert draft sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}

	return nil
}

// GetByAccount retrieves the account's saved draft.
func (r *DraftRepository) GetByAccount(ctx context.Context, account string) (*domain.Draft, error) {
	stmt, args, err := r.builder.
		Select(
			"id",
			"account",
			"action",
			"reason",
			"is_temporary",
			"temporary_until",
			"resource_names",
			"saved_at",
		).
		From("access.drafts").
		Where(squirrel.Eq{"account": account}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select draft sql: %w", err)
	}

	var (
		draft          domain.Draft
		temporaryUntil *time.Time
	)
	err = r.exec.QueryRow(ctx, stmt, args...).Scan(
		&draft.ID,
		&draft.Account,
		&draft.Intent.Action,
		&draft.Intent.Reason,
		&draft.Intent.IsTemporary,
		&temporaryUntil,
		&draft.ResourceNames,
		&draft.SavedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select draft: %w", err)
	}

	draft.Intent.TemporaryUntil = temporaryUntil
	return &draft, nil
}

// Delete removes a draft by identifier.
func (r *DraftRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.
		Delete("access.drafts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete draft sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.DraftRepository = (*DraftRepository)(nil)

package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/dharsanguruparan/docflow/internal/model"
)

const holdColumns = `id, name, reason, scope_kind, employee_ids, department, document_category, date_from, date_to,
	status, created_by, created_at, released_at, released_by`

// HoldRepository persists legal holds. The scope union is flattened into
// one column per variant payload.
type HoldRepository struct {
	q Querier
}

// NewHoldRepository constructs a repository.
func NewHoldRepository(q Querier) *HoldRepository {
	return &HoldRepository{q: q}
}

// Create inserts a hold.
func (r *HoldRepository) Create(ctx context.Context, h *model.LegalHold) error {
	ids := h.Scope.EmployeeIDs
	if ids == nil {
		ids = []string{}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO legal_holds (`+holdColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, h.ID, h.Name, h.Reason, string(h.Scope.Kind), ids, h.Scope.Department, h.Scope.DocumentCategory,
		h.Scope.DateFrom, h.Scope.DateTo, string(h.Status), h.CreatedBy, h.CreatedAt, h.ReleasedAt, h.ReleasedBy)
	return mapError(err, model.EntityLegalHold, h.ID)
}

// Get returns a hold by id.
func (r *HoldRepository) Get(ctx context.Context, id string) (*model.LegalHold, error) {
	row := r.q.QueryRow(ctx, `SELECT `+holdColumns+` FROM legal_holds WHERE id = $1`, id)
	h, err := scanHold(row)
	if err != nil {
		return nil, mapError(err, model.EntityLegalHold, id)
	}
	return h, nil
}

// List returns holds, optionally restricted to one status, newest first.
func (r *HoldRepository) List(ctx context.Context, status model.HoldStatus) ([]model.LegalHold, error) {
	query := psql.Select(holdColumns).From("legal_holds").OrderBy("created_at DESC", "id")
	if status != "" {
		query = query.Where(sq.Eq{"status": string(status)})
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build hold query: %w", err)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select holds: %w", err)
	}
	defer rows.Close()
	var out []model.LegalHold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holds: %w", err)
	}
	return out, nil
}

// Release marks an active hold released. The scope columns are never
// rewritten, so a released hold's scope stays frozen.
func (r *HoldRepository) Release(ctx context.Context, id, actor string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE legal_holds SET status = $1, released_at = $2, released_by = $3
		WHERE id = $4 AND status = $5
	`, string(model.HoldReleased), at, actor, id, string(model.HoldActive))
	if err != nil {
		return mapError(err, model.EntityLegalHold, id)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return &model.TransitionError{From: string(model.HoldReleased), Action: "release hold"}
	}
	return nil
}

func scanHold(row pgx.Row) (*model.LegalHold, error) {
	var (
		h      model.LegalHold
		kind   string
		status string
	)
	if err := row.Scan(&h.ID, &h.Name, &h.Reason, &kind, &h.Scope.EmployeeIDs, &h.Scope.Department,
		&h.Scope.DocumentCategory, &h.Scope.DateFrom, &h.Scope.DateTo, &status, &h.CreatedBy, &h.CreatedAt,
		&h.ReleasedAt, &h.ReleasedBy); err != nil {
		return nil, err
	}
	h.Scope.Kind = model.ScopeKind(kind)
	h.Status = model.HoldStatus(status)
	if len(h.Scope.EmployeeIDs) == 0 {
		h.Scope.EmployeeIDs = nil
	}
	return &h, nil
}

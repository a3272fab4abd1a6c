package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/dharsanguruparan/docflow/internal/model"
)

const policyColumns = `id, jurisdiction, document_type, retention_period_days, start_event, is_override, description, created_at`

// PolicyRepository persists retention policies.
type PolicyRepository struct {
	q Querier
}

// NewPolicyRepository constructs a repository.
func NewPolicyRepository(q Querier) *PolicyRepository {
	return &PolicyRepository{q: q}
}

// Create inserts a policy. A second policy for the same key and override flag
// violates the unique index and surfaces as ErrConflict.
func (r *PolicyRepository) Create(ctx context.Context, p *model.RetentionPolicy) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO retention_policies (`+policyColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, p.ID, p.Jurisdiction, p.DocumentType, p.RetentionPeriodDays, string(p.StartEvent), p.IsOverride,
		p.Description, p.CreatedAt)
	return mapError(err, model.EntityPolicy, p.ID)
}

// List returns policies, optionally restricted to one jurisdiction.
func (r *PolicyRepository) List(ctx context.Context, jurisdiction string) ([]model.RetentionPolicy, error) {
	query := psql.Select(policyColumns).From("retention_policies").OrderBy("jurisdiction", "document_type", "is_override")
	if jurisdiction != "" {
		query = query.Where(sq.Eq{"jurisdiction": jurisdiction})
	}
	return r.query(ctx, query)
}

// ListFor returns the candidate policies for a key: the jurisdiction's own
// rows plus the global fallback rows for the document type.
func (r *PolicyRepository) ListFor(ctx context.Context, jurisdiction, docType string) ([]model.RetentionPolicy, error) {
	query := psql.Select(policyColumns).From("retention_policies").
		Where(sq.Eq{"document_type": docType, "jurisdiction": []string{jurisdiction, model.GlobalJurisdiction}}).
		OrderBy("jurisdiction", "is_override DESC")
	return r.query(ctx, query)
}

func (r *PolicyRepository) query(ctx context.Context, b sq.SelectBuilder) ([]model.RetentionPolicy, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build policy query: %w", err)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select policies: %w", err)
	}
	defer rows.Close()
	var out []model.RetentionPolicy
	for rows.Next() {
		var (
			p     model.RetentionPolicy
			event string
		)
		if err := rows.Scan(&p.ID, &p.Jurisdiction, &p.DocumentType, &p.RetentionPeriodDays, &event, &p.IsOverride,
			&p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		p.StartEvent = model.StartEvent(event)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policies: %w", err)
	}
	return out, nil
}

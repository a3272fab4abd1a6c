package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dharsanguruparan/docflow/internal/model"
)

// AuditRepository appends and reads activity entries. It has no update or
// delete operations.
type AuditRepository struct {
	q Querier
}

// NewAuditRepository constructs a repository.
func NewAuditRepository(q Querier) *AuditRepository {
	return &AuditRepository{q: q}
}

// Append inserts one entry.
func (r *AuditRepository) Append(ctx context.Context, e *model.AuditEntry) error {
	var details []byte
	if len(e.Details) > 0 {
		var err error
		details, err = json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_entries (id, entity_type, entity_id, event_type, actor, description, details, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, e.ID, string(e.EntityType), e.EntityID, string(e.EventType), e.Actor, e.Description, details, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByEntity returns the entity's history, newest first.
func (r *AuditRepository) ListByEntity(ctx context.Context, entity model.EntityType, id string, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 || limit > model.MaxListLimit {
		limit = 100
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, entity_type, entity_id, event_type, actor, description, details, created_at
		FROM audit_entries
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id
		LIMIT $3
	`, string(entity), id, limit)
	if err != nil {
		return nil, fmt.Errorf("select audit entries: %w", err)
	}
	defer rows.Close()
	var out []model.AuditEntry
	for rows.Next() {
		var (
			e          model.AuditEntry
			entityType string
			eventType  string
			details    []byte
		)
		if err := rows.Scan(&e.ID, &entityType, &e.EntityID, &eventType, &e.Actor, &e.Description, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.EntityType = model.EntityType(entityType)
		e.EventType = model.EventType(eventType)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("audit entry %s details: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}

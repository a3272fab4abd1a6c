package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/dharsanguruparan/docflow/internal/model"
)

const documentColumns = `id, employee_id, document_type, status, source_channel, file_name, file_size,
	content_type, object_key, page_count, file_confirmed_at, reviewed_by, reviewed_at, notes, version,
	original_document_id, retention_eligible_at, on_hold, created_at, updated_at`

// DocumentRepository persists documents.
type DocumentRepository struct {
	q Querier
}

// NewDocumentRepository constructs a repository.
func NewDocumentRepository(q Querier) *DocumentRepository {
	return &DocumentRepository{q: q}
}

// Create inserts a new document row.
func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`, doc.ID, doc.EmployeeID, doc.DocumentType, string(doc.Status), string(doc.SourceChannel), doc.FileName,
		doc.FileSize, doc.ContentType, doc.ObjectKey, doc.PageCount, doc.FileConfirmedAt, doc.ReviewedBy,
		doc.ReviewedAt, doc.Notes, doc.Version, doc.OriginalDocumentID, doc.RetentionEligibleAt, doc.OnHold,
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return mapError(err, model.EntityDocument, doc.ID)
	}
	return nil
}

// Get returns a document by id.
func (r *DocumentRepository) Get(ctx context.Context, id string) (*model.Document, error) {
	row := r.q.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, mapError(err, model.EntityDocument, id)
	}
	return doc, nil
}

// List returns documents matching the filter, newest first.
func (r *DocumentRepository) List(ctx context.Context, f model.DocumentFilter) ([]*model.Document, error) {
	f.Normalize()
	query := psql.Select(documentColumns).From("documents").
		OrderBy("created_at DESC", "id").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))
	return r.query(ctx, filterDocuments(query, f))
}

// Count returns how many documents match the filter, ignoring paging.
func (r *DocumentRepository) Count(ctx context.Context, f model.DocumentFilter) (int, error) {
	sql, args, err := filterDocuments(psql.Select("count(*)").From("documents"), f).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, mapError(err, model.EntityDocument, "count")
	}
	return n, nil
}

func filterDocuments(b sq.SelectBuilder, f model.DocumentFilter) sq.SelectBuilder {
	if f.EmployeeID != "" {
		b = b.Where(sq.Eq{"employee_id": f.EmployeeID})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.DocumentType != "" {
		b = b.Where(sq.Eq{"document_type": f.DocumentType})
	}
	if f.OnHold != nil {
		b = b.Where(sq.Eq{"on_hold": *f.OnHold})
	}
	return b
}

// SuccessorOf returns the resubmission of originalID, or nil when it has not
// been resubmitted.
func (r *DocumentRepository) SuccessorOf(ctx context.Context, originalID string) (*model.Document, error) {
	row := r.q.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE original_document_id = $1`, originalID)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, model.EntityDocument, originalID)
	}
	return doc, nil
}

// ListAll returns every document, oldest first. Used by legal hold sweeps.
func (r *DocumentRepository) ListAll(ctx context.Context) ([]*model.Document, error) {
	return r.query(ctx, psql.Select(documentColumns).From("documents").OrderBy("created_at", "id"))
}

// ListByEmployee returns every document owned by the employee, oldest first.
func (r *DocumentRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*model.Document, error) {
	return r.query(ctx, psql.Select(documentColumns).From("documents").
		Where(sq.Eq{"employee_id": employeeID}).
		OrderBy("created_at", "id"))
}

// Update writes the mutable columns of doc. The write only applies when the
// stored status still equals expected; otherwise a concurrent action won and
// ErrConflict is returned.
func (r *DocumentRepository) Update(ctx context.Context, doc *model.Document, expected model.DocumentStatus) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE documents
		SET status = $1,
			reviewed_by = $2,
			reviewed_at = $3,
			notes = $4,
			retention_eligible_at = $5,
			on_hold = $6,
			page_count = $7,
			file_confirmed_at = $8,
			file_size = $9,
			updated_at = $10
		WHERE id = $11 AND status = $12
	`, string(doc.Status), doc.ReviewedBy, doc.ReviewedAt, doc.Notes, doc.RetentionEligibleAt, doc.OnHold,
		doc.PageCount, doc.FileConfirmedAt, doc.FileSize, doc.UpdatedAt, doc.ID, string(expected))
	if err != nil {
		return mapError(err, model.EntityDocument, doc.ID)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.Get(ctx, doc.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("document %s changed concurrently: %w", doc.ID, model.ErrConflict)
	}
	return nil
}

func (r *DocumentRepository) query(ctx context.Context, b sq.SelectBuilder) ([]*model.Document, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build document query: %w", err)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer rows.Close()
	var out []*model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func scanDocument(row pgx.Row) (*model.Document, error) {
	var (
		doc     model.Document
		status  string
		channel string
		pages   *int32
		retain  *time.Time
	)
	err := row.Scan(&doc.ID, &doc.EmployeeID, &doc.DocumentType, &status, &channel, &doc.FileName, &doc.FileSize,
		&doc.ContentType, &doc.ObjectKey, &pages, &doc.FileConfirmedAt, &doc.ReviewedBy, &doc.ReviewedAt,
		&doc.Notes, &doc.Version, &doc.OriginalDocumentID, &retain, &doc.OnHold, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	doc.Status = model.DocumentStatus(status)
	doc.SourceChannel = model.SourceChannel(channel)
	if pages != nil {
		n := int(*pages)
		doc.PageCount = &n
	}
	if retain != nil {
		d := retain.UTC()
		doc.RetentionEligibleAt = &d
	}
	return &doc, nil
}

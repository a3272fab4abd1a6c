// Package repository wraps all SQL used by the API and worker. Every
// repository takes a Querier so tests can substitute pgxmock for a pool.
package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dharsanguruparan/docflow/internal/model"
	"github.com/dharsanguruparan/docflow/internal/service"
)

// Querier is implemented by *pgxpool.Pool, pgx.Tx and pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// NewStores returns every postgres repository bound to q.
func NewStores(q Querier) service.Stores {
	return service.Stores{
		Documents: NewDocumentRepository(q),
		Employees: NewEmployeeRepository(q),
		Policies:  NewPolicyRepository(q),
		Holds:     NewHoldRepository(q),
		Audit:     NewAuditRepository(q),
		Settings:  NewSettingsRepository(q),
	}
}

// mapError converts pgx/pgconn errors into model errors.
func mapError(err error, entity model.EntityType, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &model.NotFoundError{Entity: entity, ID: id}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, id, model.ErrConflict)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", entity, id, model.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %s: %w", entity, id, model.ErrValidation)
		}
	}
	return fmt.Errorf("%s %s: %w: %w", entity, id, model.ErrDatabase, err)
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func fromStrings[T ~string](in []string) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = T(v)
	}
	return out
}

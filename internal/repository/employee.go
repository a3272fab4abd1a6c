package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/dharsanguruparan/docflow/internal/model"
)

const employeeColumns = `id, email, full_name, department, work_state, employment_status, hired_at, terminated_at, created_at, updated_at`

// EmployeeRepository persists employees.
type EmployeeRepository struct {
	q Querier
}

// NewEmployeeRepository constructs a repository.
func NewEmployeeRepository(q Querier) *EmployeeRepository {
	return &EmployeeRepository{q: q}
}

// Create inserts an employee.
func (r *EmployeeRepository) Create(ctx context.Context, e *model.Employee) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, e.ID, e.Email, e.FullName, e.Department, e.WorkState, string(e.EmploymentStatus), e.HiredAt, e.TerminatedAt,
		e.CreatedAt, e.UpdatedAt)
	return mapError(err, model.EntityEmployee, e.ID)
}

// Get returns an employee by id.
func (r *EmployeeRepository) Get(ctx context.Context, id string) (*model.Employee, error) {
	row := r.q.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	e, err := scanEmployee(row)
	if err != nil {
		return nil, mapError(err, model.EntityEmployee, id)
	}
	return e, nil
}

// Update writes the mutable employee columns. Identity columns are left alone.
func (r *EmployeeRepository) Update(ctx context.Context, e *model.Employee) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE employees
		SET full_name = $1, department = $2, work_state = $3, employment_status = $4,
			hired_at = $5, terminated_at = $6, updated_at = $7
		WHERE id = $8
	`, e.FullName, e.Department, e.WorkState, string(e.EmploymentStatus), e.HiredAt, e.TerminatedAt, e.UpdatedAt, e.ID)
	if err != nil {
		return mapError(err, model.EntityEmployee, e.ID)
	}
	if tag.RowsAffected() == 0 {
		return &model.NotFoundError{Entity: model.EntityEmployee, ID: e.ID}
	}
	return nil
}

// ListByIDs returns the employees with the given ids keyed by id.
func (r *EmployeeRepository) ListByIDs(ctx context.Context, ids []string) (map[string]*model.Employee, error) {
	out := make(map[string]*model.Employee, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	sql, args, err := psql.Select(employeeColumns).From("employees").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build employee query: %w", err)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select employees: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return out, nil
}

func scanEmployee(row pgx.Row) (*model.Employee, error) {
	var (
		e      model.Employee
		status string
	)
	if err := row.Scan(&e.ID, &e.Email, &e.FullName, &e.Department, &e.WorkState, &status, &e.HiredAt,
		&e.TerminatedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.EmploymentStatus = model.EmploymentStatus(status)
	return &e, nil
}

package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/docflow/internal/compliance"
	"github.com/dharsanguruparan/docflow/internal/model"
)

// EmployeeService manages employee records. Changes to the fields retention
// and hold coverage depend on are pushed through to the employee's documents.
type EmployeeService struct {
	core
	docs *DocumentService
}

// Create registers an employee. HR only.
func (s *EmployeeService) Create(ctx context.Context, in CreateEmployeeInput) (*model.Employee, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.CanReview() {
		return nil, model.ErrForbidden
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	emp := &model.Employee{
		ID:               uuid.NewString(),
		Email:            in.Email,
		FullName:         in.FullName,
		Department:       in.Department,
		WorkState:        in.WorkState,
		EmploymentStatus: in.EmploymentStatus,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.HiredAt != nil {
		d := compliance.CalendarDate(*in.HiredAt)
		emp.HiredAt = &d
	}
	if emp.EmploymentStatus == model.EmploymentTerminated {
		today := compliance.CalendarDate(now)
		emp.TerminatedAt = &today
	}
	if err := s.stores.Employees.Create(ctx, emp); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	s.rec.record(ctx, model.EntityEmployee, emp.ID, model.EventEmployeeCreated, actor.ID, "employee created",
		map[string]any{"workState": emp.WorkState, "department": emp.Department})
	s.log.Info("employee created", zap.String("employee_id", emp.ID), zap.String("work_state", emp.WorkState))
	return emp, nil
}

// Get returns an employee. Employees may only read their own record.
func (s *EmployeeService) Get(ctx context.Context, id string) (*model.Employee, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.CanReview() && actor.ID != id {
		return nil, &model.NotFoundError{Entity: model.EntityEmployee, ID: id}
	}
	return s.stores.Employees.Get(ctx, id)
}

// UpdateResult reports the record and how many documents were refreshed.
type UpdateResult struct {
	Employee         *model.Employee `json:"employee"`
	RetentionUpdated int             `json:"retentionUpdated"`
	HoldFlagsChanged int             `json:"holdFlagsChanged"`
	ChangedFields    []string        `json:"changedFields"`
}

// Update applies u. Setting the status to terminated without a date records
// today; leaving the terminated status clears the date. A change of work
// state or anchor dates recomputes retention for the employee's approved
// documents; a change of department re-evaluates hold coverage.
func (s *EmployeeService) Update(ctx context.Context, id string, u model.EmployeeUpdate) (*UpdateResult, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.CanReview() {
		return nil, model.ErrForbidden
	}
	if err := validateEmployeeUpdate(&u); err != nil {
		return nil, err
	}
	cur, err := s.stores.Employees.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *cur
	var changed []string
	if u.FullName != nil && *u.FullName != cur.FullName {
		next.FullName = *u.FullName
		changed = append(changed, "fullName")
	}
	if u.Department != nil && *u.Department != cur.Department {
		next.Department = *u.Department
		changed = append(changed, "department")
	}
	if u.WorkState != nil && *u.WorkState != cur.WorkState {
		next.WorkState = *u.WorkState
		changed = append(changed, "workState")
	}
	if u.HiredAt != nil && !sameDate(u.HiredAt, cur.HiredAt) {
		d := compliance.CalendarDate(*u.HiredAt)
		next.HiredAt = &d
		changed = append(changed, "hiredAt")
	}
	if u.TerminatedAt != nil && !sameDate(u.TerminatedAt, cur.TerminatedAt) {
		d := compliance.CalendarDate(*u.TerminatedAt)
		next.TerminatedAt = &d
		next.EmploymentStatus = model.EmploymentTerminated
		changed = append(changed, "terminatedAt")
	}
	if u.EmploymentStatus != nil && *u.EmploymentStatus != next.EmploymentStatus {
		next.EmploymentStatus = *u.EmploymentStatus
		changed = append(changed, "employmentStatus")
		if next.EmploymentStatus == model.EmploymentTerminated && next.TerminatedAt == nil {
			today := compliance.CalendarDate(s.now())
			next.TerminatedAt = &today
			changed = append(changed, "terminatedAt")
		}
	}
	// A rehired employee has no termination anchor.
	if next.EmploymentStatus != model.EmploymentTerminated && next.TerminatedAt != nil {
		next.TerminatedAt = nil
		if !slices.Contains(changed, "terminatedAt") {
			changed = append(changed, "terminatedAt")
		}
	}

	res := &UpdateResult{Employee: cur, ChangedFields: changed}
	if len(changed) == 0 {
		return res, nil
	}
	next.UpdatedAt = s.now()
	if err := s.stores.Employees.Update(ctx, &next); err != nil {
		return nil, err
	}
	res.Employee = &next
	s.rec.record(ctx, model.EntityEmployee, id, model.EventEmployeeUpdated, actor.ID, "employee updated",
		map[string]any{"changedFields": changed})

	if affectsRetention(changed) {
		n, err := s.docs.recomputeForEmployee(ctx, &next, actor.ID)
		if err != nil {
			return nil, err
		}
		res.RetentionUpdated = n
	}
	if affectsHolds(changed) {
		docs, err := s.stores.Documents.ListByEmployee(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list employee documents: %w", err)
		}
		n, err := s.sweepHolds(ctx, docs, actor.ID, "")
		if err != nil {
			return nil, err
		}
		res.HoldFlagsChanged = n
	}
	s.log.Info("employee updated",
		zap.String("employee_id", id),
		zap.Strings("changed", changed),
		zap.Int("retention_updated", res.RetentionUpdated),
	)
	return res, nil
}

func affectsRetention(changed []string) bool {
	for _, f := range changed {
		switch f {
		case "workState", "hiredAt", "terminatedAt":
			return true
		}
	}
	return false
}

func affectsHolds(changed []string) bool {
	for _, f := range changed {
		if f == "department" {
			return true
		}
	}
	return false
}

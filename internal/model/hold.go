package model

import (
	"time"
)

// HoldStatus is the lifecycle of a legal hold.
type HoldStatus string

const (
	HoldActive   HoldStatus = "active"
	HoldReleased HoldStatus = "released"
)

// ScopeKind tags which variant of HoldScope is in use.
type ScopeKind string

const (
	ScopeAll        ScopeKind = "all"
	ScopeEmployees  ScopeKind = "employees"
	ScopeDepartment ScopeKind = "department"
	ScopeCategory   ScopeKind = "category"
	ScopeDateRange  ScopeKind = "date_range"
)

// HoldScope is a tagged union. Only the payload fields belonging to Kind are
// meaningful.
type HoldScope struct {
	Kind             ScopeKind  `json:"kind"`
	EmployeeIDs      []string   `json:"employeeIds,omitempty"`
	Department       string     `json:"department,omitempty"`
	DocumentCategory string     `json:"documentCategory,omitempty"`
	DateFrom         *time.Time `json:"dateFrom,omitempty"`
	DateTo           *time.Time `json:"dateTo,omitempty"`
}

// Validate checks that the payload required by Kind is present.
func (s HoldScope) Validate() error {
	switch s.Kind {
	case ScopeAll:
		return nil
	case ScopeEmployees:
		if len(s.EmployeeIDs) == 0 {
			return NewValidationError("scope.employeeIds", "at least one employee id required")
		}
	case ScopeDepartment:
		if s.Department == "" {
			return NewValidationError("scope.department", "required")
		}
	case ScopeCategory:
		if s.DocumentCategory == "" {
			return NewValidationError("scope.documentCategory", "required")
		}
	case ScopeDateRange:
		var errs []FieldError
		if s.DateFrom == nil {
			errs = append(errs, FieldError{Field: "scope.dateFrom", Message: "required"})
		}
		if s.DateTo == nil {
			errs = append(errs, FieldError{Field: "scope.dateTo", Message: "required"})
		}
		if len(errs) == 0 && s.DateTo.Before(*s.DateFrom) {
			errs = append(errs, FieldError{Field: "scope.dateTo", Message: "must not be before dateFrom"})
		}
		if len(errs) > 0 {
			return NewValidationErrors(errs)
		}
	default:
		return NewValidationError("scope.kind", "unknown scope kind")
	}
	return nil
}

// LegalHold suspends deletion eligibility for every document its scope
// matches while it is active. It does not own documents.
type LegalHold struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Reason     string     `json:"reason"`
	Scope      HoldScope  `json:"scope"`
	Status     HoldStatus `json:"status"`
	CreatedBy  string     `json:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt"`
	ReleasedAt *time.Time `json:"releasedAt,omitempty"`
	ReleasedBy *string    `json:"releasedBy,omitempty"`
}

// Active reports whether the hold currently suspends documents.
func (h LegalHold) Active() bool {
	return h.Status == HoldActive
}

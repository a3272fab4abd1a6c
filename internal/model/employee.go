package model

import "time"

// EmploymentStatus is the HR status of an employee.
type EmploymentStatus string

const (
	EmploymentActive     EmploymentStatus = "active"
	EmploymentInactive   EmploymentStatus = "inactive"
	EmploymentTerminated EmploymentStatus = "terminated"
)

// Valid reports whether s is a known employment status.
func (s EmploymentStatus) Valid() bool {
	switch s {
	case EmploymentActive, EmploymentInactive, EmploymentTerminated:
		return true
	}
	return false
}

// Employee owns documents. WorkState selects the retention policy
// jurisdiction. ID, Email and CreatedAt never change after creation.
type Employee struct {
	ID               string           `json:"id"`
	Email            string           `json:"email"`
	FullName         string           `json:"fullName"`
	Department       string           `json:"department"`
	WorkState        string           `json:"workState"`
	EmploymentStatus EmploymentStatus `json:"employmentStatus"`
	HiredAt          *time.Time       `json:"hiredAt,omitempty"`
	TerminatedAt     *time.Time       `json:"terminatedAt,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// EmployeeUpdate carries the mutable employee fields. Nil means unchanged.
type EmployeeUpdate struct {
	FullName         *string
	Department       *string
	WorkState        *string
	EmploymentStatus *EmploymentStatus
	HiredAt          *time.Time
	TerminatedAt     *time.Time
}

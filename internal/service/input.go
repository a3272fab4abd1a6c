package service

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/dharsanguruparan/docflow/internal/compliance"
	"github.com/dharsanguruparan/docflow/internal/model"
)

var workStateRe = regexp.MustCompile(`^[A-Z]{2}$`)

// SubmitInput carries the metadata of a new or resubmitted document.
type SubmitInput struct {
	EmployeeID         string
	DocumentType       string
	SourceChannel      model.SourceChannel
	FileName           string
	FileSize           int64
	ContentType        string
	OriginalDocumentID string
}

// CreateEmployeeInput holds the parameters for registering an employee.
type CreateEmployeeInput struct {
	Email            string
	FullName         string
	Department       string
	WorkState        string
	EmploymentStatus model.EmploymentStatus
	HiredAt          *time.Time
}

// Validate checks all fields and collects all errors.
func (i *CreateEmployeeInput) Validate() error {
	var errs []model.FieldError
	i.Email = strings.TrimSpace(i.Email)
	i.FullName = strings.TrimSpace(i.FullName)
	i.WorkState = strings.ToUpper(strings.TrimSpace(i.WorkState))
	if i.EmploymentStatus == "" {
		i.EmploymentStatus = model.EmploymentActive
	}

	if _, err := mail.ParseAddress(i.Email); err != nil || i.Email == "" {
		errs = append(errs, model.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if i.FullName == "" {
		errs = append(errs, model.FieldError{Field: "fullName", Message: "required"})
	}
	if !workStateRe.MatchString(i.WorkState) {
		errs = append(errs, model.FieldError{Field: "workState", Message: "must be a two-letter jurisdiction code"})
	}
	if !i.EmploymentStatus.Valid() {
		errs = append(errs, model.FieldError{Field: "employmentStatus", Message: "unknown status"})
	}
	if len(errs) > 0 {
		return model.NewValidationErrors(errs)
	}
	return nil
}

func validateEmployeeUpdate(u *model.EmployeeUpdate) error {
	var errs []model.FieldError
	if u.FullName != nil {
		name := strings.TrimSpace(*u.FullName)
		u.FullName = &name
		if name == "" {
			errs = append(errs, model.FieldError{Field: "fullName", Message: "required"})
		}
	}
	if u.WorkState != nil {
		ws := strings.ToUpper(strings.TrimSpace(*u.WorkState))
		u.WorkState = &ws
		if !workStateRe.MatchString(ws) {
			errs = append(errs, model.FieldError{Field: "workState", Message: "must be a two-letter jurisdiction code"})
		}
	}
	if u.EmploymentStatus != nil && !u.EmploymentStatus.Valid() {
		errs = append(errs, model.FieldError{Field: "employmentStatus", Message: "unknown status"})
	}
	if u.TerminatedAt != nil && u.EmploymentStatus != nil && *u.EmploymentStatus != model.EmploymentTerminated {
		errs = append(errs, model.FieldError{Field: "terminatedAt", Message: "only allowed with status terminated"})
	}
	if len(errs) > 0 {
		return model.NewValidationErrors(errs)
	}
	return nil
}

// CreateHoldInput holds the parameters for placing a legal hold.
type CreateHoldInput struct {
	Name   string
	Reason string
	Scope  model.HoldScope
}

// Validate checks all fields and collects all errors.
func (i *CreateHoldInput) Validate() error {
	i.Name = strings.TrimSpace(i.Name)
	i.Reason = strings.TrimSpace(i.Reason)
	var errs []model.FieldError
	if i.Name == "" {
		errs = append(errs, model.FieldError{Field: "name", Message: "required"})
	}
	if err := i.Scope.Validate(); err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			errs = append(errs, ve.Errors...)
		}
	}
	if len(errs) > 0 {
		return model.NewValidationErrors(errs)
	}
	if i.Scope.DateFrom != nil {
		from := compliance.CalendarDate(*i.Scope.DateFrom)
		i.Scope.DateFrom = &from
	}
	if i.Scope.DateTo != nil {
		to := compliance.CalendarDate(*i.Scope.DateTo)
		i.Scope.DateTo = &to
	}
	return nil
}

// CreatePolicyInput holds the parameters for a retention policy.
type CreatePolicyInput struct {
	Jurisdiction        string
	DocumentType        string
	RetentionPeriodDays int
	StartEvent          model.StartEvent
	IsOverride          bool
	Description         string
}

// Validate checks all fields and collects all errors.
func (i *CreatePolicyInput) Validate() error {
	i.Jurisdiction = strings.ToUpper(strings.TrimSpace(i.Jurisdiction))
	i.DocumentType = strings.TrimSpace(i.DocumentType)
	var errs []model.FieldError
	if i.Jurisdiction != model.GlobalJurisdiction && !workStateRe.MatchString(i.Jurisdiction) {
		errs = append(errs, model.FieldError{Field: "jurisdiction", Message: `must be a two-letter code or "*"`})
	}
	if i.DocumentType == "" {
		errs = append(errs, model.FieldError{Field: "documentType", Message: "required"})
	}
	if i.RetentionPeriodDays < 0 {
		errs = append(errs, model.FieldError{Field: "retentionPeriodDays", Message: "must not be negative"})
	}
	if !i.StartEvent.Valid() {
		errs = append(errs, model.FieldError{Field: "startEvent", Message: "unknown start event"})
	}
	if len(errs) > 0 {
		return model.NewValidationErrors(errs)
	}
	return nil
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dharsanguruparan/docflow/internal/model"
	"github.com/dharsanguruparan/docflow/internal/service"
)

const maxBodyBytes = 1 << 20

// dateOnly accepts "2006-01-02" or RFC 3339 in request bodies.
type dateOnly struct{ time.Time }

func (d *dateOnly) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
		}
	}
	d.Time = t.UTC()
	return nil
}

func (d *dateOnly) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

type submitDocumentRequest struct {
	EmployeeID         string `json:"employeeId"         validate:"required,max=64"`
	DocumentType       string `json:"documentType"       validate:"required_without=OriginalDocumentID,max=64"`
	SourceChannel      string `json:"sourceChannel"      validate:"omitempty,oneof=web email scan api"`
	FileName           string `json:"fileName"           validate:"required,max=255"`
	FileSize           int64  `json:"fileSize"           validate:"gt=0"`
	ContentType        string `json:"contentType"        validate:"required,max=128"`
	OriginalDocumentID string `json:"originalDocumentId" validate:"omitempty,max=64"`
}

func (r submitDocumentRequest) input() service.SubmitInput {
	return service.SubmitInput{
		EmployeeID:         r.EmployeeID,
		DocumentType:       r.DocumentType,
		SourceChannel:      model.SourceChannel(r.SourceChannel),
		FileName:           r.FileName,
		FileSize:           r.FileSize,
		ContentType:        r.ContentType,
		OriginalDocumentID: r.OriginalDocumentID,
	}
}

// Blank reasons are rejected by the service so the rule holds for every
// caller, not just HTTP.
type rejectRequest struct {
	Reason string `json:"reason" validate:"max=2000"`
}

type createEmployeeRequest struct {
	Email            string    `json:"email"            validate:"required,email,max=254"`
	FullName         string    `json:"fullName"         validate:"required,max=200"`
	Department       string    `json:"department"       validate:"max=100"`
	WorkState        string    `json:"workState"        validate:"required,len=2"`
	EmploymentStatus string    `json:"employmentStatus" validate:"omitempty,oneof=active inactive terminated"`
	HiredAt          *dateOnly `json:"hiredAt"`
}

func (r createEmployeeRequest) input() service.CreateEmployeeInput {
	return service.CreateEmployeeInput{
		Email:            r.Email,
		FullName:         r.FullName,
		Department:       r.Department,
		WorkState:        r.WorkState,
		EmploymentStatus: model.EmploymentStatus(r.EmploymentStatus),
		HiredAt:          r.HiredAt.ptr(),
	}
}

type updateEmployeeRequest struct {
	FullName         *string   `json:"fullName"         validate:"omitempty,max=200"`
	Department       *string   `json:"department"       validate:"omitempty,max=100"`
	WorkState        *string   `json:"workState"        validate:"omitempty,len=2"`
	EmploymentStatus *string   `json:"employmentStatus" validate:"omitempty,oneof=active inactive terminated"`
	HiredAt          *dateOnly `json:"hiredAt"`
	TerminatedAt     *dateOnly `json:"terminatedAt"`
}

func (r updateEmployeeRequest) update() model.EmployeeUpdate {
	u := model.EmployeeUpdate{
		FullName:     r.FullName,
		Department:   r.Department,
		WorkState:    r.WorkState,
		HiredAt:      r.HiredAt.ptr(),
		TerminatedAt: r.TerminatedAt.ptr(),
	}
	if r.EmploymentStatus != nil {
		s := model.EmploymentStatus(*r.EmploymentStatus)
		u.EmploymentStatus = &s
	}
	return u
}

type holdScopeRequest struct {
	Kind             string    `json:"kind"             validate:"required,oneof=all employees department category date_range"`
	EmployeeIDs      []string  `json:"employeeIds"      validate:"omitempty,dive,required"`
	Department       string    `json:"department"       validate:"max=100"`
	DocumentCategory string    `json:"documentCategory" validate:"max=64"`
	DateFrom         *dateOnly `json:"dateFrom"`
	DateTo           *dateOnly `json:"dateTo"`
}

type createHoldRequest struct {
	Name   string           `json:"name"   validate:"required,max=200"`
	Reason string           `json:"reason" validate:"max=2000"`
	Scope  holdScopeRequest `json:"scope"`
}

func (r createHoldRequest) input() service.CreateHoldInput {
	return service.CreateHoldInput{
		Name:   r.Name,
		Reason: r.Reason,
		Scope: model.HoldScope{
			Kind:             model.ScopeKind(r.Scope.Kind),
			EmployeeIDs:      r.Scope.EmployeeIDs,
			Department:       r.Scope.Department,
			DocumentCategory: r.Scope.DocumentCategory,
			DateFrom:         r.Scope.DateFrom.ptr(),
			DateTo:           r.Scope.DateTo.ptr(),
		},
	}
}

type createPolicyRequest struct {
	Jurisdiction        string `json:"jurisdiction"        validate:"required,max=8"`
	DocumentType        string `json:"documentType"        validate:"required,max=64"`
	RetentionPeriodDays int    `json:"retentionPeriodDays" validate:"gte=0,lte=36500"`
	StartEvent          string `json:"startEvent"          validate:"required,oneof=termination submission hire"`
	IsOverride          bool   `json:"isOverride"`
	Description         string `json:"description"         validate:"max=500"`
}

func (r createPolicyRequest) input() service.CreatePolicyInput {
	return service.CreatePolicyInput{
		Jurisdiction:        r.Jurisdiction,
		DocumentType:        r.DocumentType,
		RetentionPeriodDays: r.RetentionPeriodDays,
		StartEvent:          model.StartEvent(r.StartEvent),
		IsOverride:          r.IsOverride,
		Description:         r.Description,
	}
}

type intakeSettingsRequest struct {
	EnabledChannels     []string `json:"enabledChannels"     validate:"dive,oneof=web email scan api"`
	MaxFileBytes        int64    `json:"maxFileBytes"        validate:"gt=0"`
	AllowedContentTypes []string `json:"allowedContentTypes" validate:"dive,required,max=128"`
}

func (r intakeSettingsRequest) settings() model.IntakeSettings {
	channels := make([]model.SourceChannel, len(r.EnabledChannels))
	for i, c := range r.EnabledChannels {
		channels[i] = model.SourceChannel(c)
	}
	return model.IntakeSettings{
		EnabledChannels:     channels,
		MaxFileBytes:        r.MaxFileBytes,
		AllowedContentTypes: r.AllowedContentTypes,
	}
}

type downloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. Every failure is
// reported as a ValidationError.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return model.NewValidationError("body", bodyError(err))
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationFailure(err)
	}
	return nil
}

func bodyError(err error) string {
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return "request body is empty"
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "malformed JSON: unexpected end of input"
	case errors.As(err, &syntax):
		return fmt.Sprintf("malformed JSON at offset %d", syntax.Offset)
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %q has the wrong type", typeErr.Field)
	case errors.As(err, &tooLarge):
		return "request body too large"
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		return strings.TrimPrefix(err.Error(), "json: ")
	default:
		return err.Error()
	}
}

func validationFailure(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewValidationError("body", err.Error())
	}
	out := make([]model.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		out = append(out, model.FieldError{Field: field, Message: tagMessage(fe)})
	}
	return model.NewValidationErrors(out)
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

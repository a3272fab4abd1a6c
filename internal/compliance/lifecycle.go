// Package compliance holds the document lifecycle rules: review transitions,
// retention dates and legal hold coverage. Everything here is a pure function
// over model values; persistence and notification belong to the service layer.
package compliance

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/docflow/internal/model"
)

// SubmitInput is the file metadata that starts a document's lifecycle.
type SubmitInput struct {
	EmployeeID    string
	DocumentType  string
	SourceChannel model.SourceChannel
	FileName      string
	FileSize      int64
	ContentType   string
}

// Submit creates a new document in the received state. When original is not
// nil the new document is a resubmission of it: original must be rejected and
// owned by the same employee. The original is never modified.
func Submit(in SubmitInput, original *model.Document, now time.Time) (*model.Document, error) {
	var errs []model.FieldError
	if strings.TrimSpace(in.EmployeeID) == "" {
		errs = append(errs, model.FieldError{Field: "employeeId", Message: "required"})
	}
	if strings.TrimSpace(in.FileName) == "" {
		errs = append(errs, model.FieldError{Field: "fileName", Message: "required"})
	}
	if in.FileSize <= 0 {
		errs = append(errs, model.FieldError{Field: "fileSize", Message: "must be positive"})
	}
	if strings.TrimSpace(in.DocumentType) == "" && original == nil {
		errs = append(errs, model.FieldError{Field: "documentType", Message: "required"})
	}
	if in.SourceChannel != "" && !in.SourceChannel.Valid() {
		errs = append(errs, model.FieldError{Field: "sourceChannel", Message: "unknown channel"})
	}
	if len(errs) > 0 {
		return nil, model.NewValidationErrors(errs)
	}

	channel := in.SourceChannel
	if channel == "" {
		channel = model.ChannelWeb
	}
	now = now.UTC()
	doc := &model.Document{
		ID:            uuid.NewString(),
		EmployeeID:    in.EmployeeID,
		DocumentType:  strings.TrimSpace(in.DocumentType),
		Status:        model.StatusReceived,
		SourceChannel: channel,
		FileName:      strings.TrimSpace(in.FileName),
		FileSize:      in.FileSize,
		ContentType:   in.ContentType,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if original != nil {
		if original.Status != model.StatusRejected {
			return nil, &model.TransitionError{From: string(original.Status), Action: "resubmit"}
		}
		if original.EmployeeID != in.EmployeeID {
			return nil, model.NewValidationError("originalDocumentId", "belongs to a different employee")
		}
		id := original.ID
		doc.OriginalDocumentID = &id
		doc.Version = original.Version + 1
		if doc.DocumentType == "" {
			doc.DocumentType = original.DocumentType
		}
	}
	return doc, nil
}

// StartReview moves a received document into review.
func StartReview(doc *model.Document, actor model.Actor, now time.Time) (*model.Document, error) {
	if !actor.CanReview() {
		return nil, model.ErrForbidden
	}
	if doc.Status != model.StatusReceived {
		return nil, &model.TransitionError{From: string(doc.Status), Action: "start review"}
	}
	out := doc.Clone()
	out.Status = model.StatusInReview
	out.UpdatedAt = now.UTC()
	return out, nil
}

// Approve records a positive review decision. The retention date is computed
// separately because it needs the employee and the policy table.
func Approve(doc *model.Document, actor model.Actor, now time.Time) (*model.Document, error) {
	if !actor.CanReview() {
		return nil, model.ErrForbidden
	}
	if !reviewable(doc.Status) {
		return nil, &model.TransitionError{From: string(doc.Status), Action: "approve"}
	}
	now = now.UTC()
	out := doc.Clone()
	out.Status = model.StatusApproved
	reviewer := actor.ID
	out.ReviewedBy = &reviewer
	out.ReviewedAt = &now
	out.UpdatedAt = now
	return out, nil
}

// Reject records a negative review decision. A blank reason fails before any
// state is touched.
func Reject(doc *model.Document, actor model.Actor, reason string, now time.Time) (*model.Document, error) {
	if !actor.CanReview() {
		return nil, model.ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, model.NewValidationError("reason", "rejection reason is required")
	}
	if !reviewable(doc.Status) {
		return nil, &model.TransitionError{From: string(doc.Status), Action: "reject"}
	}
	now = now.UTC()
	out := doc.Clone()
	out.Status = model.StatusRejected
	reviewer := actor.ID
	out.ReviewedBy = &reviewer
	out.ReviewedAt = &now
	out.Notes = &reason
	out.UpdatedAt = now
	return out, nil
}

// ApplyHold sets the suspension flag. changed is false when the document was
// already suspended.
func ApplyHold(doc *model.Document, now time.Time) (out *model.Document, changed bool) {
	if doc.OnHold {
		return doc, false
	}
	out = doc.Clone()
	out.OnHold = true
	out.UpdatedAt = now.UTC()
	return out, true
}

// ReleaseHold clears the suspension flag unless another active hold still
// covers the document.
func ReleaseHold(doc *model.Document, stillHeld bool, now time.Time) (out *model.Document, changed bool) {
	if !doc.OnHold || stillHeld {
		return doc, false
	}
	out = doc.Clone()
	out.OnHold = false
	out.UpdatedAt = now.UTC()
	return out, true
}

// Expire retires an approved document whose retention period has passed and
// which no active hold covers.
func Expire(doc *model.Document, now time.Time, held bool) (*model.Document, error) {
	if doc.Status != model.StatusApproved {
		return nil, &model.TransitionError{From: string(doc.Status), Action: "expire"}
	}
	if !DeletionEligible(doc, now, held) {
		return nil, &model.TransitionError{From: string(doc.Status), Action: "expire before retention ends"}
	}
	out := doc.Clone()
	out.Status = model.StatusExpired
	out.UpdatedAt = now.UTC()
	return out, nil
}

func reviewable(s model.DocumentStatus) bool {
	return s == model.StatusReceived || s == model.StatusInReview
}

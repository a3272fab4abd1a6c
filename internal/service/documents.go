package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/docflow/internal/compliance"
	"github.com/dharsanguruparan/docflow/internal/model"
)

// ErrObjectStoreDisabled is returned when a signed URL is requested but no
// object storage is configured.
var ErrObjectStoreDisabled = errors.New("object storage is not configured")

// ErrObjectStore wraps failures reported by object storage.
var ErrObjectStore = errors.New("object storage error")

// DocumentView is a document plus the facts derived at read time.
type DocumentView struct {
	*model.Document
	Held             bool   `json:"held"`
	DeletionEligible bool   `json:"deletionEligible"`
	RetentionError   string `json:"retentionError,omitempty"`
	UploadURL        string `json:"uploadUrl,omitempty"`
}

// DocumentService runs the review lifecycle.
type DocumentService struct {
	core
	objects     ObjectStore
	notifier    Notifier
	confirmer   UploadConfirmer
	uploadTTL   time.Duration
	downloadTTL time.Duration
}

// Submit registers a new document, or a resubmission when
// OriginalDocumentID is set, and returns a signed upload URL.
func (s *DocumentService) Submit(ctx context.Context, in SubmitInput) (*DocumentView, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	if in.EmployeeID == "" {
		return nil, model.NewValidationError("employeeId", "required")
	}
	if !actor.CanReview() && in.EmployeeID != actor.ID {
		return nil, model.ErrForbidden
	}

	emp, err := s.stores.Employees.Get(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := s.checkIntake(ctx, &in); err != nil {
		return nil, err
	}

	var original *model.Document
	if id := strings.TrimSpace(in.OriginalDocumentID); id != "" {
		if original, err = s.stores.Documents.Get(ctx, id); err != nil {
			return nil, err
		}
		next, err := s.stores.Documents.SuccessorOf(ctx, original.ID)
		if err != nil {
			return nil, fmt.Errorf("look up successor: %w", err)
		}
		if next != nil {
			return nil, fmt.Errorf("document %s was already resubmitted as %s: %w", original.ID, next.ID, model.ErrConflict)
		}
	}

	now := s.now()
	doc, err := compliance.Submit(compliance.SubmitInput{
		EmployeeID:    in.EmployeeID,
		DocumentType:  in.DocumentType,
		SourceChannel: in.SourceChannel,
		FileName:      in.FileName,
		FileSize:      in.FileSize,
		ContentType:   in.ContentType,
	}, original, now)
	if err != nil {
		return nil, err
	}
	doc.ObjectKey = objectKey(doc)

	holds, err := s.activeHolds(ctx)
	if err != nil {
		return nil, err
	}
	if compliance.IsHeld(holds, doc, emp) {
		doc, _ = compliance.ApplyHold(doc, now)
	}

	if err := s.stores.Documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	details := map[string]any{
		"fileName":      doc.FileName,
		"sourceChannel": string(doc.SourceChannel),
		"version":       doc.Version,
	}
	if original != nil {
		details["originalDocumentId"] = original.ID
	}
	s.rec.record(ctx, model.EntityDocument, doc.ID, model.EventDocumentReceived, actor.ID, "document received", details)
	if doc.OnHold {
		s.rec.record(ctx, model.EntityDocument, doc.ID, model.EventHoldApplied, actor.ID, "covered by active hold at intake", nil)
	}

	s.log.Info("document received",
		zap.String("document_id", doc.ID),
		zap.String("employee_id", doc.EmployeeID),
		zap.String("document_type", doc.DocumentType),
		zap.Int("version", doc.Version),
	)

	view := s.view(doc, emp, holds)
	if s.objects != nil {
		url, err := s.objects.PresignUpload(ctx, doc.ObjectKey, s.uploadTTL)
		if err != nil {
			s.log.Error("presign upload failed", zap.String("document_id", doc.ID), zap.Error(err))
		}
		view.UploadURL = url
	}
	if s.confirmer != nil {
		if err := s.confirmer.EnqueueConfirm(ctx, doc.ID, doc.ObjectKey); err != nil {
			s.log.Warn("enqueue upload confirmation failed", zap.String("document_id", doc.ID), zap.Error(err))
		}
	}
	return view, nil
}

func (s *DocumentService) checkIntake(ctx context.Context, in *SubmitInput) error {
	settings, err := s.stores.Settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load intake settings: %w", err)
	}
	if in.SourceChannel == "" {
		in.SourceChannel = model.ChannelWeb
	}
	var errs []model.FieldError
	if in.SourceChannel.Valid() && !settings.ChannelEnabled(in.SourceChannel) {
		errs = append(errs, model.FieldError{Field: "sourceChannel", Message: "intake channel is disabled"})
	}
	if in.FileSize > settings.MaxFileBytes {
		errs = append(errs, model.FieldError{Field: "fileSize", Message: fmt.Sprintf("exceeds limit of %d bytes", settings.MaxFileBytes)})
	}
	if !settings.ContentTypeAllowed(in.ContentType) {
		errs = append(errs, model.FieldError{Field: "contentType", Message: "content type not allowed"})
	}
	if len(errs) > 0 {
		return model.NewValidationErrors(errs)
	}
	return nil
}

// Get returns one document with its derived hold and deletion state.
func (s *DocumentService) Get(ctx context.Context, id string) (*DocumentView, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.viewOne(ctx, doc)
}

// DocumentPage is one page of a document listing. Total counts every
// match of the filter, ignoring Limit and Offset.
type DocumentPage struct {
	Items []*DocumentView
	Total int
}

// List returns documents matching f. Employees only ever see their own.
func (s *DocumentService) List(ctx context.Context, f model.DocumentFilter) (*DocumentPage, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.CanReview() {
		f.EmployeeID = actor.ID
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, model.NewValidationError("status", "unknown status")
	}
	docs, err := s.stores.Documents.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	total, err := s.stores.Documents.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	holds, err := s.activeHolds(ctx)
	if err != nil {
		return nil, err
	}
	emps, err := s.stores.Employees.ListByIDs(ctx, employeeIDs(docs))
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	out := make([]*DocumentView, 0, len(docs))
	for _, doc := range docs {
		out = append(out, s.view(doc, emps[doc.EmployeeID], holds))
	}
	return &DocumentPage{Items: out, Total: total}, nil
}

// StartReview moves a received document into review.
func (s *DocumentService) StartReview(ctx context.Context, id string) (*DocumentView, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := s.stores.Documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := compliance.StartReview(doc, actor, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.stores.Documents.Update(ctx, next, doc.Status); err != nil {
		return nil, err
	}
	s.rec.record(ctx, model.EntityDocument, id, model.EventReviewStarted, actor.ID, "review started", nil)
	return s.viewOne(ctx, next)
}

// Approve approves a document and computes its retention date. A missing
// retention policy does not undo the approval: the date stays pending and
// the view carries RetentionError so an operator can add the policy.
func (s *DocumentService) Approve(ctx context.Context, id string) (*DocumentView, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := s.stores.Documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := compliance.Approve(doc, actor, s.now())
	if err != nil {
		return nil, err
	}

	var retentionErr error
	emp, err := s.stores.Employees.Get(ctx, next.EmployeeID)
	if err != nil {
		return nil, err
	}
	at, err := s.computeRetention(ctx, emp, next)
	switch {
	case err == nil:
		next.RetentionEligibleAt = at
	case errors.Is(err, model.ErrPolicyNotFound), errors.Is(err, model.ErrValidation):
		retentionErr = err
		s.log.Warn("retention not computed on approval",
			zap.String("document_id", id),
			zap.String("jurisdiction", emp.WorkState),
			zap.String("document_type", next.DocumentType),
			zap.Error(err),
		)
	default:
		return nil, err
	}

	if err := s.stores.Documents.Update(ctx, next, doc.Status); err != nil {
		return nil, err
	}
	details := map[string]any{"retentionEligibleAt": dateString(next.RetentionEligibleAt)}
	if retentionErr != nil {
		details["retentionError"] = retentionErr.Error()
	}
	s.rec.record(ctx, model.EntityDocument, id, model.EventReviewApproved, actor.ID, "document approved", details)
	s.notify(ctx, next, fmt.Sprintf("Your %s document was approved.", next.DocumentType))

	view, err := s.viewOne(ctx, next)
	if err != nil {
		return nil, err
	}
	if retentionErr != nil {
		view.RetentionError = retentionErr.Error()
	}
	return view, nil
}

// Reject rejects a document with a reason. A blank reason fails before
// anything is written.
func (s *DocumentService) Reject(ctx context.Context, id, reason string) (*DocumentView, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := s.stores.Documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := compliance.Reject(doc, actor, reason, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.stores.Documents.Update(ctx, next, doc.Status); err != nil {
		return nil, err
	}
	s.rec.record(ctx, model.EntityDocument, id, model.EventReviewRejected, actor.ID, "document rejected",
		map[string]any{"reason": *next.Notes})
	s.notify(ctx, next, fmt.Sprintf("Your %s document was rejected: %s", next.DocumentType, *next.Notes))
	return s.viewOne(ctx, next)
}

// RecomputeRetention recalculates the retention date of an approved
// document. Unlike Approve, a missing policy is returned as an error.
func (s *DocumentService) RecomputeRetention(ctx context.Context, id string) (*DocumentView, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.CanReview() {
		return nil, model.ErrForbidden
	}
	doc, err := s.stores.Documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StatusApproved {
		return nil, &model.TransitionError{From: string(doc.Status), Action: "compute retention"}
	}
	emp, err := s.stores.Employees.Get(ctx, doc.EmployeeID)
	if err != nil {
		return nil, err
	}
	next, _, err := s.applyRetention(ctx, emp, doc, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.viewOne(ctx, next)
}

// recomputeForEmployee refreshes retention dates of every approved document
// the employee owns. Documents whose policy is missing keep their date and
// are logged.
func (s *DocumentService) recomputeForEmployee(ctx context.Context, emp *model.Employee, actor string) (int, error) {
	docs, err := s.stores.Documents.ListByEmployee(ctx, emp.ID)
	if err != nil {
		return 0, fmt.Errorf("list employee documents: %w", err)
	}
	updated := 0
	for _, doc := range docs {
		if doc.Status != model.StatusApproved {
			continue
		}
		_, changed, err := s.applyRetention(ctx, emp, doc, actor)
		if errors.Is(err, model.ErrPolicyNotFound) || errors.Is(err, model.ErrValidation) || errors.Is(err, model.ErrConflict) {
			s.log.Warn("retention recompute skipped", zap.String("document_id", doc.ID), zap.Error(err))
			continue
		}
		if err != nil {
			return updated, err
		}
		if changed {
			updated++
		}
	}
	return updated, nil
}

func (s *DocumentService) applyRetention(ctx context.Context, emp *model.Employee, doc *model.Document, actor string) (*model.Document, bool, error) {
	at, err := s.computeRetention(ctx, emp, doc)
	if err != nil {
		return nil, false, err
	}
	if sameDate(doc.RetentionEligibleAt, at) {
		return doc, false, nil
	}
	next := doc.Clone()
	next.RetentionEligibleAt = at
	next.UpdatedAt = s.now()
	if err := s.stores.Documents.Update(ctx, next, doc.Status); err != nil {
		return nil, false, err
	}
	s.rec.record(ctx, model.EntityDocument, doc.ID, model.EventRetentionComputed, actor, "retention date computed",
		map[string]any{
			"previous":            dateString(doc.RetentionEligibleAt),
			"retentionEligibleAt": dateString(at),
			"jurisdiction":        emp.WorkState,
		})
	return next, true, nil
}

func (s *DocumentService) computeRetention(ctx context.Context, emp *model.Employee, doc *model.Document) (*time.Time, error) {
	policies, err := s.stores.Policies.ListFor(ctx, emp.WorkState, doc.DocumentType)
	if err != nil {
		return nil, fmt.Errorf("load retention policies: %w", err)
	}
	return compliance.ComputeRetentionEligibleAt(emp, doc, policies)
}

// Expire retires an approved document once it is deletion-eligible.
func (s *DocumentService) Expire(ctx context.Context, id string) (*DocumentView, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.CanReview() {
		return nil, model.ErrForbidden
	}
	doc, err := s.stores.Documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	emp, err := s.stores.Employees.Get(ctx, doc.EmployeeID)
	if err != nil {
		return nil, err
	}
	holds, err := s.activeHolds(ctx)
	if err != nil {
		return nil, err
	}
	next, err := compliance.Expire(doc, s.now(), compliance.IsHeld(holds, doc, emp))
	if err != nil {
		return nil, err
	}
	if err := s.stores.Documents.Update(ctx, next, doc.Status); err != nil {
		return nil, err
	}
	s.rec.record(ctx, model.EntityDocument, id, model.EventDocumentExpired, actor.ID, "document expired",
		map[string]any{"retentionEligibleAt": dateString(doc.RetentionEligibleAt)})
	return s.view(next, emp, holds), nil
}

// DownloadURL returns a signed GET URL for the document's file.
func (s *DocumentService) DownloadURL(ctx context.Context, id string) (string, time.Time, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	doc, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if s.objects == nil {
		return "", time.Time{}, ErrObjectStoreDisabled
	}
	url, err := s.objects.PresignDownload(ctx, doc.ObjectKey, s.downloadTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign download: %w: %w", ErrObjectStore, err)
	}
	expires := s.now().Add(s.downloadTTL)
	s.rec.record(ctx, model.EntityDocument, doc.ID, model.EventDocumentDownloaded, actor.ID, "download url issued",
		map[string]any{"expiresAt": expires.UTC().Format(time.RFC3339)})
	return url, expires, nil
}

// Activity returns the document's audit history, newest first.
func (s *DocumentService) Activity(ctx context.Context, id string, limit int) ([]model.AuditEntry, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadVisible(ctx, actor, id); err != nil {
		return nil, err
	}
	entries, err := s.stores.Audit.ListByEntity(ctx, model.EntityDocument, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}

// ConfirmUpload records that the file exists in object storage. It is called
// by the worker, so no caller is required on the context.
func (s *DocumentService) ConfirmUpload(ctx context.Context, id string, size int64, pages *int) error {
	doc, err := s.stores.Documents.Get(ctx, id)
	if err != nil {
		return err
	}
	now := s.now()
	next := doc.Clone()
	next.FileConfirmedAt = &now
	if size > 0 {
		next.FileSize = size
	}
	next.PageCount = pages
	next.UpdatedAt = now
	if err := s.stores.Documents.Update(ctx, next, doc.Status); err != nil {
		return err
	}
	details := map[string]any{"fileSize": next.FileSize}
	if pages != nil {
		details["pageCount"] = *pages
	}
	s.rec.record(ctx, model.EntityDocument, id, model.EventFileConfirmed, model.SystemActor.ID, "file confirmed", details)
	return nil
}

func (s *DocumentService) loadVisible(ctx context.Context, actor model.Actor, id string) (*model.Document, error) {
	doc, err := s.stores.Documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanReview() && doc.EmployeeID != actor.ID {
		// Other employees' documents are reported as missing.
		return nil, &model.NotFoundError{Entity: model.EntityDocument, ID: id}
	}
	return doc, nil
}

func (s *DocumentService) notify(ctx context.Context, doc *model.Document, message string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, Notification{EmployeeID: doc.EmployeeID, DocumentID: doc.ID, Message: message})
	if err != nil {
		s.log.Warn("notification not sent", zap.String("document_id", doc.ID), zap.Error(err))
	}
}

func (s *DocumentService) viewOne(ctx context.Context, doc *model.Document) (*DocumentView, error) {
	emp, err := s.stores.Employees.Get(ctx, doc.EmployeeID)
	if err != nil {
		return nil, err
	}
	holds, err := s.activeHolds(ctx)
	if err != nil {
		return nil, err
	}
	return s.view(doc, emp, holds), nil
}

func (s *DocumentService) view(doc *model.Document, emp *model.Employee, holds []model.LegalHold) *DocumentView {
	held := emp != nil && compliance.IsHeld(holds, doc, emp)
	return &DocumentView{
		Document:         doc,
		Held:             held,
		DeletionEligible: compliance.DeletionEligible(doc, s.now(), held),
	}
}

func objectKey(doc *model.Document) string {
	name := path.Base(strings.ReplaceAll(doc.FileName, "\\", "/"))
	return path.Join("documents", doc.EmployeeID, doc.ID, name)
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return compliance.CalendarDate(*a).Equal(compliance.CalendarDate(*b))
}

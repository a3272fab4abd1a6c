// Package service orchestrates the compliance rules with persistence, object
// storage and notifications. Services read the caller from the context and
// talk to storage only through the small interfaces declared here.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/docflow/internal/compliance"
	"github.com/dharsanguruparan/docflow/internal/model"
)

// DocumentRepo persists documents.
type DocumentRepo interface {
	Create(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, id string) (*model.Document, error)
	List(ctx context.Context, f model.DocumentFilter) ([]*model.Document, error)
	Count(ctx context.Context, f model.DocumentFilter) (int, error)
	SuccessorOf(ctx context.Context, originalID string) (*model.Document, error)
	ListAll(ctx context.Context) ([]*model.Document, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*model.Document, error)
	Update(ctx context.Context, doc *model.Document, expected model.DocumentStatus) error
}

// EmployeeRepo persists employees.
type EmployeeRepo interface {
	Create(ctx context.Context, e *model.Employee) error
	Get(ctx context.Context, id string) (*model.Employee, error)
	Update(ctx context.Context, e *model.Employee) error
	ListByIDs(ctx context.Context, ids []string) (map[string]*model.Employee, error)
}

// PolicyRepo persists retention policies.
type PolicyRepo interface {
	Create(ctx context.Context, p *model.RetentionPolicy) error
	List(ctx context.Context, jurisdiction string) ([]model.RetentionPolicy, error)
	ListFor(ctx context.Context, jurisdiction, docType string) ([]model.RetentionPolicy, error)
}

// HoldRepo persists legal holds.
type HoldRepo interface {
	Create(ctx context.Context, h *model.LegalHold) error
	Get(ctx context.Context, id string) (*model.LegalHold, error)
	List(ctx context.Context, status model.HoldStatus) ([]model.LegalHold, error)
	Release(ctx context.Context, id, actor string, at time.Time) error
}

// AuditRepo appends and reads activity entries.
type AuditRepo interface {
	Append(ctx context.Context, e *model.AuditEntry) error
	ListByEntity(ctx context.Context, entity model.EntityType, id string, limit int) ([]model.AuditEntry, error)
}

// SettingsRepo stores the intake settings record.
type SettingsRepo interface {
	Get(ctx context.Context) (model.IntakeSettings, error)
	Put(ctx context.Context, s model.IntakeSettings) error
}

// ObjectStore issues signed URLs for document bytes. The services never see
// the bytes themselves.
type ObjectStore interface {
	PresignUpload(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Notification is delivered to an employee after a review decision.
type Notification struct {
	EmployeeID string
	DocumentID string
	Message    string
}

// Notifier delivers notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// UploadConfirmer schedules the check that a presigned upload landed.
type UploadConfirmer interface {
	EnqueueConfirm(ctx context.Context, documentID, objectKey string) error
}

// Stores bundles the repositories. Both the postgres repositories and the
// in-memory store satisfy it.
type Stores struct {
	Documents DocumentRepo
	Employees EmployeeRepo
	Policies  PolicyRepo
	Holds     HoldRepo
	Audit     AuditRepo
	Settings  SettingsRepo
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func actorFrom(ctx context.Context) (model.Actor, error) {
	a, ok := model.ActorFromContext(ctx)
	if !ok {
		return model.Actor{}, model.ErrUnauthorized
	}
	return a, nil
}

func requireAdmin(ctx context.Context) (model.Actor, error) {
	a, err := actorFrom(ctx)
	if err != nil {
		return a, err
	}
	if !a.CanAdminister() {
		return a, model.ErrForbidden
	}
	return a, nil
}

// recorder appends audit entries. A failed append after a successful
// primary write is reported as a PartialWriteError at error level and never
// fails the caller.
type recorder struct {
	audit AuditRepo
	log   *zap.Logger
	now   Clock
}

func (r recorder) record(ctx context.Context, entity model.EntityType, id string, event model.EventType,
	actor, description string, details map[string]any) {
	entry := &model.AuditEntry{
		ID:          uuid.NewString(),
		EntityType:  entity,
		EntityID:    id,
		EventType:   event,
		Actor:       actor,
		Description: description,
		Details:     details,
		CreatedAt:   r.now(),
	}
	if err := r.audit.Append(ctx, entry); err != nil {
		pwe := &model.PartialWriteError{Entity: entity, ID: id, Event: event, Err: err}
		r.log.Error("audit write failed",
			zap.String("entity_type", string(entity)),
			zap.String("entity_id", id),
			zap.String("event_type", string(event)),
			zap.Error(pwe),
		)
	}
}

func dateString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.DateOnly)
}

// Deps wires the services. Objects, Notifier and Confirmer are optional;
// a nil value disables that integration.
type Deps struct {
	Stores         Stores
	Objects        ObjectStore
	Notifier       Notifier
	Confirmer      UploadConfirmer
	UploadURLTTL   time.Duration
	DownloadURLTTL time.Duration
	Clock          Clock
	Log            *zap.Logger
}

// Services is the full set of application services.
type Services struct {
	Documents *DocumentService
	Employees *EmployeeService
	Holds     *HoldService
	Policies  *PolicyService
	Settings  *SettingsService
}

// New builds every service from d.
func New(d Deps) *Services {
	if d.Clock == nil {
		d.Clock = systemClock
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.UploadURLTTL <= 0 {
		d.UploadURLTTL = 15 * time.Minute
	}
	if d.DownloadURLTTL <= 0 {
		d.DownloadURLTTL = 5 * time.Minute
	}
	base := func(name string) core {
		log := d.Log.With(zap.String("service", name))
		return core{
			stores: d.Stores,
			rec:    recorder{audit: d.Stores.Audit, log: log, now: d.Clock},
			log:    log,
			now:    d.Clock,
		}
	}
	docs := &DocumentService{
		core:        base("document"),
		objects:     d.Objects,
		notifier:    d.Notifier,
		confirmer:   d.Confirmer,
		uploadTTL:   d.UploadURLTTL,
		downloadTTL: d.DownloadURLTTL,
	}
	return &Services{
		Documents: docs,
		Employees: &EmployeeService{core: base("employee"), docs: docs},
		Holds:     &HoldService{core: base("legal_hold")},
		Policies:  &PolicyService{core: base("retention_policy")},
		Settings:  &SettingsService{core: base("settings")},
	}
}

type core struct {
	stores Stores
	rec    recorder
	log    *zap.Logger
	now    Clock
}

// activeHolds returns the holds that currently suspend documents.
func (c core) activeHolds(ctx context.Context) ([]model.LegalHold, error) {
	holds, err := c.stores.Holds.List(ctx, model.HoldActive)
	if err != nil {
		return nil, fmt.Errorf("list active holds: %w", err)
	}
	return holds, nil
}

// syncHoldFlag brings doc.OnHold in line with live hold coverage and audits
// the change. It returns whether the stored document changed.
func (c core) syncHoldFlag(ctx context.Context, doc *model.Document, emp *model.Employee, holds []model.LegalHold,
	actor, holdID string) (bool, error) {
	held := emp != nil && compliance.IsHeld(holds, doc, emp)
	now := c.now()
	var (
		next    *model.Document
		changed bool
		event   model.EventType
	)
	if held {
		next, changed = compliance.ApplyHold(doc, now)
		event = model.EventHoldApplied
	} else {
		next, changed = compliance.ReleaseHold(doc, false, now)
		event = model.EventHoldReleased
	}
	if !changed {
		return false, nil
	}
	if err := c.stores.Documents.Update(ctx, next, doc.Status); err != nil {
		return false, fmt.Errorf("update hold flag on %s: %w", doc.ID, err)
	}
	details := map[string]any{}
	if holdID != "" {
		details["holdId"] = holdID
	}
	c.rec.record(ctx, model.EntityDocument, doc.ID, event, actor, string(event), details)
	return true, nil
}

// sweepHolds reconciles the hold flag of every document in docs. Conflicting
// rows are logged and skipped; read-time coverage stays correct for them.
func (c core) sweepHolds(ctx context.Context, docs []*model.Document, actor, holdID string) (int, error) {
	holds, err := c.activeHolds(ctx)
	if err != nil {
		return 0, err
	}
	emps, err := c.stores.Employees.ListByIDs(ctx, employeeIDs(docs))
	if err != nil {
		return 0, fmt.Errorf("load employees: %w", err)
	}
	affected := 0
	for _, doc := range docs {
		changed, err := c.syncHoldFlag(ctx, doc, emps[doc.EmployeeID], holds, actor, holdID)
		if errors.Is(err, model.ErrConflict) {
			c.log.Warn("hold sweep skipped document", zap.String("document_id", doc.ID), zap.Error(err))
			continue
		}
		if err != nil {
			return affected, err
		}
		if changed {
			affected++
		}
	}
	return affected, nil
}

func employeeIDs(docs []*model.Document) []string {
	seen := make(map[string]struct{}, len(docs))
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if _, ok := seen[d.EmployeeID]; ok {
			continue
		}
		seen[d.EmployeeID] = struct{}{}
		ids = append(ids, d.EmployeeID)
	}
	return ids
}

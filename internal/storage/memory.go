// Package storage contains the in-memory persistence layer used when no
// database is configured and by service and API tests. Each entity gets a
// small view type so the method sets line up with the postgres repositories.
package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dharsanguruparan/docflow/internal/model"
)

// MemoryStore holds every entity behind one RWMutex so cross-entity reads in a
// single call see a consistent snapshot.
type MemoryStore struct {
	mu        sync.RWMutex
	employees map[string]model.Employee
	documents map[string]*model.Document
	policies  map[string]model.RetentionPolicy
	holds     map[string]model.LegalHold
	audit     []model.AuditEntry
	settings  *model.IntakeSettings

	// FailAudit makes Append return this error. Tests use it to exercise the
	// partial write path.
	FailAudit error
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		employees: make(map[string]model.Employee),
		documents: make(map[string]*model.Document),
		policies:  make(map[string]model.RetentionPolicy),
		holds:     make(map[string]model.LegalHold),
	}
}

// Documents returns the document view.
func (m *MemoryStore) Documents() *Documents { return &Documents{m: m} }

// Employees returns the employee view.
func (m *MemoryStore) Employees() *Employees { return &Employees{m: m} }

// Policies returns the retention policy view.
func (m *MemoryStore) Policies() *Policies { return &Policies{m: m} }

// Holds returns the legal hold view.
func (m *MemoryStore) Holds() *Holds { return &Holds{m: m} }

// Audit returns the audit view.
func (m *MemoryStore) Audit() *Audit { return &Audit{m: m} }

// Settings returns the intake settings view.
func (m *MemoryStore) Settings() *Settings { return &Settings{m: m} }

// Documents stores documents in memory.
type Documents struct{ m *MemoryStore }

func (d *Documents) Create(_ context.Context, doc *model.Document) error {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	if _, ok := d.m.documents[doc.ID]; ok {
		return fmt.Errorf("document %s: %w", doc.ID, model.ErrConflict)
	}
	if _, ok := d.m.employees[doc.EmployeeID]; !ok {
		return fmt.Errorf("document %s: %w", doc.ID, model.ErrNotFound)
	}
	if doc.OriginalDocumentID != nil && d.successorLocked(*doc.OriginalDocumentID) != nil {
		return fmt.Errorf("document %s: %w", doc.ID, model.ErrConflict)
	}
	d.m.documents[doc.ID] = doc.Clone()
	return nil
}

func (d *Documents) Get(_ context.Context, id string) (*model.Document, error) {
	d.m.mu.RLock()
	defer d.m.mu.RUnlock()
	doc, ok := d.m.documents[id]
	if !ok {
		return nil, &model.NotFoundError{Entity: model.EntityDocument, ID: id}
	}
	return doc.Clone(), nil
}

func (d *Documents) List(_ context.Context, f model.DocumentFilter) ([]*model.Document, error) {
	f.Normalize()
	d.m.mu.RLock()
	defer d.m.mu.RUnlock()
	var out []*model.Document
	for _, doc := range d.m.documents {
		if matchesFilter(doc, f) {
			out = append(out, doc.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *model.Document) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (d *Documents) Count(_ context.Context, f model.DocumentFilter) (int, error) {
	d.m.mu.RLock()
	defer d.m.mu.RUnlock()
	n := 0
	for _, doc := range d.m.documents {
		if matchesFilter(doc, f) {
			n++
		}
	}
	return n, nil
}

func matchesFilter(doc *model.Document, f model.DocumentFilter) bool {
	switch {
	case f.EmployeeID != "" && doc.EmployeeID != f.EmployeeID:
		return false
	case f.Status != "" && doc.Status != f.Status:
		return false
	case f.DocumentType != "" && doc.DocumentType != f.DocumentType:
		return false
	case f.OnHold != nil && doc.OnHold != *f.OnHold:
		return false
	}
	return true
}

func (d *Documents) SuccessorOf(_ context.Context, originalID string) (*model.Document, error) {
	d.m.mu.RLock()
	defer d.m.mu.RUnlock()
	if doc := d.successorLocked(originalID); doc != nil {
		return doc.Clone(), nil
	}
	return nil, nil
}

func (d *Documents) successorLocked(originalID string) *model.Document {
	for _, doc := range d.m.documents {
		if doc.OriginalDocumentID != nil && *doc.OriginalDocumentID == originalID {
			return doc
		}
	}
	return nil
}

func (d *Documents) ListAll(_ context.Context) ([]*model.Document, error) {
	return d.listWhere(func(*model.Document) bool { return true }), nil
}

func (d *Documents) ListByEmployee(_ context.Context, employeeID string) ([]*model.Document, error) {
	return d.listWhere(func(doc *model.Document) bool { return doc.EmployeeID == employeeID }), nil
}

func (d *Documents) listWhere(keep func(*model.Document) bool) []*model.Document {
	d.m.mu.RLock()
	defer d.m.mu.RUnlock()
	var out []*model.Document
	for _, doc := range d.m.documents {
		if keep(doc) {
			out = append(out, doc.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *model.Document) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Update replaces the stored document when its status still equals expected.
func (d *Documents) Update(_ context.Context, doc *model.Document, expected model.DocumentStatus) error {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	cur, ok := d.m.documents[doc.ID]
	if !ok {
		return &model.NotFoundError{Entity: model.EntityDocument, ID: doc.ID}
	}
	if cur.Status != expected {
		return fmt.Errorf("document %s changed concurrently: %w", doc.ID, model.ErrConflict)
	}
	d.m.documents[doc.ID] = doc.Clone()
	return nil
}

// Employees stores employees in memory.
type Employees struct{ m *MemoryStore }

func (e *Employees) Create(_ context.Context, emp *model.Employee) error {
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	if _, ok := e.m.employees[emp.ID]; ok {
		return fmt.Errorf("employee %s: %w", emp.ID, model.ErrConflict)
	}
	for _, existing := range e.m.employees {
		if existing.Email == emp.Email {
			return fmt.Errorf("employee %s: %w", emp.ID, model.ErrConflict)
		}
	}
	e.m.employees[emp.ID] = cloneEmployee(*emp)
	return nil
}

func (e *Employees) Get(_ context.Context, id string) (*model.Employee, error) {
	e.m.mu.RLock()
	defer e.m.mu.RUnlock()
	emp, ok := e.m.employees[id]
	if !ok {
		return nil, &model.NotFoundError{Entity: model.EntityEmployee, ID: id}
	}
	out := cloneEmployee(emp)
	return &out, nil
}

func (e *Employees) Update(_ context.Context, emp *model.Employee) error {
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	cur, ok := e.m.employees[emp.ID]
	if !ok {
		return &model.NotFoundError{Entity: model.EntityEmployee, ID: emp.ID}
	}
	next := cloneEmployee(*emp)
	next.Email = cur.Email
	next.CreatedAt = cur.CreatedAt
	e.m.employees[emp.ID] = next
	return nil
}

func (e *Employees) ListByIDs(_ context.Context, ids []string) (map[string]*model.Employee, error) {
	e.m.mu.RLock()
	defer e.m.mu.RUnlock()
	out := make(map[string]*model.Employee, len(ids))
	for _, id := range ids {
		if emp, ok := e.m.employees[id]; ok {
			c := cloneEmployee(emp)
			out[id] = &c
		}
	}
	return out, nil
}

func cloneEmployee(e model.Employee) model.Employee {
	if e.HiredAt != nil {
		t := *e.HiredAt
		e.HiredAt = &t
	}
	if e.TerminatedAt != nil {
		t := *e.TerminatedAt
		e.TerminatedAt = &t
	}
	return e
}

// Policies stores retention policies in memory.
type Policies struct{ m *MemoryStore }

func (p *Policies) Create(_ context.Context, policy *model.RetentionPolicy) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	for _, existing := range p.m.policies {
		if existing.Jurisdiction == policy.Jurisdiction && existing.DocumentType == policy.DocumentType &&
			existing.IsOverride == policy.IsOverride {
			return fmt.Errorf("retention policy %s: %w", policy.ID, model.ErrConflict)
		}
	}
	p.m.policies[policy.ID] = *policy
	return nil
}

func (p *Policies) List(_ context.Context, jurisdiction string) ([]model.RetentionPolicy, error) {
	return p.listWhere(func(rp model.RetentionPolicy) bool {
		return jurisdiction == "" || rp.Jurisdiction == jurisdiction
	}), nil
}

func (p *Policies) ListFor(_ context.Context, jurisdiction, docType string) ([]model.RetentionPolicy, error) {
	return p.listWhere(func(rp model.RetentionPolicy) bool {
		return rp.DocumentType == docType &&
			(rp.Jurisdiction == jurisdiction || rp.Jurisdiction == model.GlobalJurisdiction)
	}), nil
}

func (p *Policies) listWhere(keep func(model.RetentionPolicy) bool) []model.RetentionPolicy {
	p.m.mu.RLock()
	defer p.m.mu.RUnlock()
	var out []model.RetentionPolicy
	for _, rp := range p.m.policies {
		if keep(rp) {
			out = append(out, rp)
		}
	}
	slices.SortFunc(out, func(a, b model.RetentionPolicy) int {
		return cmp.Or(
			cmp.Compare(a.Jurisdiction, b.Jurisdiction),
			cmp.Compare(a.DocumentType, b.DocumentType),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out
}

// Holds stores legal holds in memory.
type Holds struct{ m *MemoryStore }

func (h *Holds) Create(_ context.Context, hold *model.LegalHold) error {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if _, ok := h.m.holds[hold.ID]; ok {
		return fmt.Errorf("legal hold %s: %w", hold.ID, model.ErrConflict)
	}
	h.m.holds[hold.ID] = cloneHold(*hold)
	return nil
}

func (h *Holds) Get(_ context.Context, id string) (*model.LegalHold, error) {
	h.m.mu.RLock()
	defer h.m.mu.RUnlock()
	hold, ok := h.m.holds[id]
	if !ok {
		return nil, &model.NotFoundError{Entity: model.EntityLegalHold, ID: id}
	}
	out := cloneHold(hold)
	return &out, nil
}

func (h *Holds) List(_ context.Context, status model.HoldStatus) ([]model.LegalHold, error) {
	h.m.mu.RLock()
	defer h.m.mu.RUnlock()
	var out []model.LegalHold
	for _, hold := range h.m.holds {
		if status == "" || hold.Status == status {
			out = append(out, cloneHold(hold))
		}
	}
	slices.SortFunc(out, func(a, b model.LegalHold) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (h *Holds) Release(_ context.Context, id, actor string, at time.Time) error {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	hold, ok := h.m.holds[id]
	if !ok {
		return &model.NotFoundError{Entity: model.EntityLegalHold, ID: id}
	}
	if !hold.Active() {
		return &model.TransitionError{From: string(hold.Status), Action: "release hold"}
	}
	hold.Status = model.HoldReleased
	hold.ReleasedAt = &at
	hold.ReleasedBy = &actor
	h.m.holds[id] = hold
	return nil
}

func cloneHold(h model.LegalHold) model.LegalHold {
	h.Scope.EmployeeIDs = slices.Clone(h.Scope.EmployeeIDs)
	return h
}

// Audit stores activity entries in memory. Entries are only ever appended.
type Audit struct{ m *MemoryStore }

func (a *Audit) Append(_ context.Context, e *model.AuditEntry) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	if a.m.FailAudit != nil {
		return a.m.FailAudit
	}
	a.m.audit = append(a.m.audit, *e)
	return nil
}

func (a *Audit) ListByEntity(_ context.Context, entity model.EntityType, id string, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 || limit > model.MaxListLimit {
		limit = 100
	}
	a.m.mu.RLock()
	defer a.m.mu.RUnlock()
	var out []model.AuditEntry
	for i := len(a.m.audit) - 1; i >= 0 && len(out) < limit; i-- {
		e := a.m.audit[i]
		if e.EntityType == entity && e.EntityID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

// Settings stores the intake settings record in memory.
type Settings struct{ m *MemoryStore }

func (s *Settings) Get(_ context.Context) (model.IntakeSettings, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if s.m.settings == nil {
		return model.DefaultIntakeSettings(), nil
	}
	out := *s.m.settings
	out.EnabledChannels = slices.Clone(out.EnabledChannels)
	out.AllowedContentTypes = slices.Clone(out.AllowedContentTypes)
	return out, nil
}

func (s *Settings) Put(_ context.Context, settings model.IntakeSettings) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	settings.EnabledChannels = slices.Clone(settings.EnabledChannels)
	settings.AllowedContentTypes = slices.Clone(settings.AllowedContentTypes)
	s.m.settings = &settings
	return nil
}

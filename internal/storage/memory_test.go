package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/docflow/internal/model"
)

func seedEmployee(t *testing.T, m *MemoryStore, id string) {
	t.Helper()
	require.NoError(t, m.Employees().Create(context.Background(), &model.Employee{
		ID: id, Email: id + "@example.com", WorkState: "TX", EmploymentStatus: model.EmploymentActive,
	}))
}

func TestDocuments_UpdateOptimistic(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	seedEmployee(t, m, "emp-1")
	doc := &model.Document{ID: "doc-1", EmployeeID: "emp-1", Status: model.StatusReceived}
	require.NoError(t, m.Documents().Create(ctx, doc))

	next := doc.Clone()
	next.Status = model.StatusInReview
	require.NoError(t, m.Documents().Update(ctx, next, model.StatusReceived))

	stale := doc.Clone()
	stale.Status = model.StatusApproved
	assert.ErrorIs(t, m.Documents().Update(ctx, stale, model.StatusReceived), model.ErrConflict)

	missing := &model.Document{ID: "nope"}
	assert.ErrorIs(t, m.Documents().Update(ctx, missing, model.StatusReceived), model.ErrNotFound)
}

func TestDocuments_CreateUnknownEmployee(t *testing.T) {
	m := NewMemoryStore()
	err := m.Documents().Create(context.Background(), &model.Document{ID: "doc-1", EmployeeID: "ghost"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDocuments_GetReturnsCopy(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	seedEmployee(t, m, "emp-1")
	require.NoError(t, m.Documents().Create(ctx, &model.Document{ID: "doc-1", EmployeeID: "emp-1", Status: model.StatusReceived}))

	got, err := m.Documents().Get(ctx, "doc-1")
	require.NoError(t, err)
	got.Status = model.StatusApproved

	again, err := m.Documents().Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReceived, again.Status)
}

func TestDocuments_ListFilterAndPaging(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	seedEmployee(t, m, "emp-1")
	seedEmployee(t, m, "emp-2")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, owner := range []string{"emp-1", "emp-1", "emp-2"} {
		require.NoError(t, m.Documents().Create(ctx, &model.Document{
			ID: string(rune('a' + i)), EmployeeID: owner, Status: model.StatusReceived, CreatedAt: base.AddDate(0, 0, i),
		}))
	}

	docs, err := m.Documents().List(ctx, model.DocumentFilter{EmployeeID: "emp-1"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)

	docs, err = m.Documents().List(ctx, model.DocumentFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b", docs[0].ID)

	all, err := m.Documents().ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", all[0].ID)
}

func TestDocuments_SingleSuccessor(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	seedEmployee(t, m, "emp-1")
	require.NoError(t, m.Documents().Create(ctx, &model.Document{ID: "d1", EmployeeID: "emp-1", Status: model.StatusRejected}))

	none, err := m.Documents().SuccessorOf(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, none)

	orig := "d1"
	require.NoError(t, m.Documents().Create(ctx, &model.Document{ID: "d2", EmployeeID: "emp-1", OriginalDocumentID: &orig}))
	err = m.Documents().Create(ctx, &model.Document{ID: "d3", EmployeeID: "emp-1", OriginalDocumentID: &orig})
	assert.ErrorIs(t, err, model.ErrConflict)

	next, err := m.Documents().SuccessorOf(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "d2", next.ID)
}

func TestDocuments_CountIgnoresPaging(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	seedEmployee(t, m, "emp-1")
	seedEmployee(t, m, "emp-2")
	for i, owner := range []string{"emp-1", "emp-1", "emp-2"} {
		require.NoError(t, m.Documents().Create(ctx, &model.Document{ID: string(rune('a' + i)), EmployeeID: owner, Status: model.StatusReceived}))
	}

	n, err := m.Documents().Count(ctx, model.DocumentFilter{Limit: 1, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = m.Documents().Count(ctx, model.DocumentFilter{EmployeeID: "emp-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPolicies_UniquePerKey(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	p := &model.RetentionPolicy{ID: "p-1", Jurisdiction: "TX", DocumentType: "I-9"}
	require.NoError(t, m.Policies().Create(ctx, p))
	assert.ErrorIs(t, m.Policies().Create(ctx, &model.RetentionPolicy{ID: "p-2", Jurisdiction: "TX", DocumentType: "I-9"}), model.ErrConflict)
	require.NoError(t, m.Policies().Create(ctx, &model.RetentionPolicy{ID: "p-3", Jurisdiction: "TX", DocumentType: "I-9", IsOverride: true}))
	require.NoError(t, m.Policies().Create(ctx, &model.RetentionPolicy{ID: "p-4", Jurisdiction: "*", DocumentType: "I-9"}))
	require.NoError(t, m.Policies().Create(ctx, &model.RetentionPolicy{ID: "p-5", Jurisdiction: "CA", DocumentType: "I-9"}))

	got, err := m.Policies().ListFor(ctx, "TX", "I-9")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestHolds_Release(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, m.Holds().Create(ctx, &model.LegalHold{ID: "h-1", Status: model.HoldActive, Scope: model.HoldScope{Kind: model.ScopeAll}}))

	require.NoError(t, m.Holds().Release(ctx, "h-1", "admin", time.Now()))
	assert.ErrorIs(t, m.Holds().Release(ctx, "h-1", "admin", time.Now()), model.ErrInvalidTransition)
	assert.ErrorIs(t, m.Holds().Release(ctx, "h-2", "admin", time.Now()), model.ErrNotFound)

	active, err := m.Holds().List(ctx, model.HoldActive)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestAudit_NewestFirst(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	for _, ev := range []model.EventType{model.EventDocumentReceived, model.EventReviewStarted, model.EventReviewApproved} {
		require.NoError(t, m.Audit().Append(ctx, &model.AuditEntry{EntityType: model.EntityDocument, EntityID: "doc-1", EventType: ev}))
	}
	entries, err := m.Audit().ListByEntity(ctx, model.EntityDocument, "doc-1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.EventReviewApproved, entries[0].EventType)

	m.FailAudit = errors.New("disk full")
	assert.Error(t, m.Audit().Append(ctx, &model.AuditEntry{}))
}

func TestSettings_DefaultsThenPut(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	s, err := m.Settings().Get(ctx)
	require.NoError(t, err)
	assert.True(t, s.ChannelEnabled(model.ChannelEmail))

	s.EnabledChannels = []model.SourceChannel{model.ChannelWeb}
	require.NoError(t, m.Settings().Put(ctx, s))
	s, err = m.Settings().Get(ctx)
	require.NoError(t, err)
	assert.False(t, s.ChannelEnabled(model.ChannelEmail))
}

//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dharsanguruparan/docflow/internal/database"
	"github.com/dharsanguruparan/docflow/internal/model"
)

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "docflow",
				"POSTGRES_PASSWORD": "docflow",
				"POSTGRES_DB":       "docflow",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://docflow:docflow@%s:%s/docflow?sslmode=disable", host, port.Port())

	_, err = database.Migrate(ctx, dsn)
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestIntegration_DocumentLifecycle(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	employees := NewEmployeeRepository(pool)
	docs := NewDocumentRepository(pool)
	policies := NewPolicyRepository(pool)
	holds := NewHoldRepository(pool)
	audit := NewAuditRepository(pool)
	settings := NewSettingsRepository(pool)

	emp := &model.Employee{ID: "emp-1", Email: "ann@example.com", FullName: "Ann", Department: "Sales",
		WorkState: "TX", EmploymentStatus: model.EmploymentActive, HiredAt: &now, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, employees.Create(ctx, emp))
	assert.ErrorIs(t, employees.Create(ctx, emp), model.ErrConflict)

	doc := &model.Document{ID: "doc-1", EmployeeID: emp.ID, DocumentType: "I-9", Status: model.StatusReceived,
		SourceChannel: model.ChannelWeb, FileName: "i9.pdf", FileSize: 10, ContentType: "application/pdf",
		ObjectKey: "documents/doc-1/i9.pdf", Version: 1, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, docs.Create(ctx, doc))

	approved := doc.Clone()
	approved.Status = model.StatusApproved
	approved.ReviewedBy = ptr("rev-1")
	approved.ReviewedAt = &now
	retain := time.Date(2029, 6, 1, 0, 0, 0, 0, time.UTC)
	approved.RetentionEligibleAt = &retain
	require.NoError(t, docs.Update(ctx, approved, model.StatusReceived))
	assert.ErrorIs(t, docs.Update(ctx, approved, model.StatusReceived), model.ErrConflict)

	got, err := docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	require.NotNil(t, got.RetentionEligibleAt)
	assert.Equal(t, "2029-06-01", got.RetentionEligibleAt.Format(time.DateOnly))

	byEmployee, err := docs.ListByEmployee(ctx, emp.ID)
	require.NoError(t, err)
	assert.Len(t, byEmployee, 1)

	resubmit := func(id string) *model.Document {
		return &model.Document{ID: id, EmployeeID: emp.ID, DocumentType: "I-9", Status: model.StatusReceived,
			SourceChannel: model.ChannelWeb, FileName: "i9.pdf", ContentType: "application/pdf",
			ObjectKey: "documents/" + id + "/i9.pdf", Version: 2, OriginalDocumentID: &doc.ID, CreatedAt: now, UpdatedAt: now}
	}
	require.NoError(t, docs.Create(ctx, resubmit("doc-2")))
	assert.ErrorIs(t, docs.Create(ctx, resubmit("doc-3")), model.ErrConflict)
	next, err := docs.SuccessorOf(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "doc-2", next.ID)
	total, err := docs.Count(ctx, model.DocumentFilter{EmployeeID: emp.ID, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	require.NoError(t, policies.Create(ctx, &model.RetentionPolicy{ID: "p-1", Jurisdiction: "TX", DocumentType: "I-9",
		RetentionPeriodDays: 1461, StartEvent: model.StartTermination, CreatedAt: now}))
	require.NoError(t, policies.Create(ctx, &model.RetentionPolicy{ID: "p-2", Jurisdiction: "*", DocumentType: "I-9",
		RetentionPeriodDays: 1095, StartEvent: model.StartTermination, CreatedAt: now}))
	assert.ErrorIs(t, policies.Create(ctx, &model.RetentionPolicy{ID: "p-3", Jurisdiction: "TX", DocumentType: "I-9",
		RetentionPeriodDays: 10, StartEvent: model.StartHire, CreatedAt: now}), model.ErrConflict)
	candidates, err := policies.ListFor(ctx, "TX", "I-9")
	require.NoError(t, err)
	assert.Len(t, candidates, 2)

	hold := &model.LegalHold{ID: "hold-1", Name: "Audit", Scope: model.HoldScope{Kind: model.ScopeEmployees,
		EmployeeIDs: []string{emp.ID}}, Status: model.HoldActive, CreatedBy: "admin-1", CreatedAt: now}
	require.NoError(t, holds.Create(ctx, hold))
	active, err := holds.List(ctx, model.HoldActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, []string{emp.ID}, active[0].Scope.EmployeeIDs)
	require.NoError(t, holds.Release(ctx, hold.ID, "admin-1", now))
	assert.ErrorIs(t, holds.Release(ctx, hold.ID, "admin-1", now), model.ErrInvalidTransition)

	require.NoError(t, audit.Append(ctx, &model.AuditEntry{ID: "a-1", EntityType: model.EntityDocument,
		EntityID: doc.ID, EventType: model.EventReviewApproved, Actor: "rev-1",
		Details: map[string]any{"retentionEligibleAt": "2029-06-01"}, CreatedAt: now}))
	entries, err := audit.ListByEntity(ctx, model.EntityDocument, doc.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2029-06-01", entries[0].Details["retentionEligibleAt"])

	s, err := settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultIntakeSettings().MaxFileBytes, s.MaxFileBytes)
	s.EnabledChannels = []model.SourceChannel{model.ChannelScan}
	s.UpdatedAt = now
	require.NoError(t, settings.Put(ctx, s))
	s, err = settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.SourceChannel{model.ChannelScan}, s.EnabledChannels)
}

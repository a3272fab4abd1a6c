package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/docflow/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var policyTable = []model.RetentionPolicy{
	{ID: "tx-i9", Jurisdiction: "TX", DocumentType: "I-9", RetentionPeriodDays: 1461, StartEvent: model.StartTermination},
	{ID: "ca-i9", Jurisdiction: "CA", DocumentType: "I-9", RetentionPeriodDays: 1095, StartEvent: model.StartTermination},
	{ID: "ca-i9-override", Jurisdiction: "CA", DocumentType: "I-9", RetentionPeriodDays: 2555, StartEvent: model.StartTermination, IsOverride: true},
	{ID: "global-w4", Jurisdiction: model.GlobalJurisdiction, DocumentType: "W-4", RetentionPeriodDays: 1460, StartEvent: model.StartSubmission},
	{ID: "global-benefits", Jurisdiction: model.GlobalJurisdiction, DocumentType: "benefits", RetentionPeriodDays: 365, StartEvent: model.StartHire},
}

func TestResolvePolicy(t *testing.T) {
	tests := []struct {
		name         string
		jurisdiction string
		docType      string
		wantID       string
	}{
		{"jurisdiction default", "TX", "I-9", "tx-i9"},
		{"override wins", "CA", "I-9", "ca-i9-override"},
		{"global fallback", "NY", "W-4", "global-w4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ResolvePolicy(policyTable, tt.jurisdiction, tt.docType)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, p.ID)
		})
	}
}

func TestResolvePolicy_OverrideOrderIndependent(t *testing.T) {
	reversed := []model.RetentionPolicy{policyTable[2], policyTable[1]}
	p, err := ResolvePolicy(reversed, "CA", "I-9")
	require.NoError(t, err)
	assert.Equal(t, "ca-i9-override", p.ID)
}

func TestResolvePolicy_NotFound(t *testing.T) {
	_, err := ResolvePolicy(policyTable, "NY", "I-9")
	require.ErrorIs(t, err, model.ErrPolicyNotFound)

	var pnf *model.PolicyNotFoundError
	require.ErrorAs(t, err, &pnf)
	assert.Equal(t, "NY", pnf.Jurisdiction)
	assert.Equal(t, "I-9", pnf.DocumentType)
}

// TX I-9, approved 2024-01-10, terminated 2025-06-01: eligible 2029-06-01.
func TestComputeRetention_TerminationAnchor(t *testing.T) {
	emp := &model.Employee{ID: "emp-1", WorkState: "TX"}
	doc := &model.Document{ID: "d1", DocumentType: "I-9", Status: model.StatusInReview}
	doc, err := Approve(doc, reviewer, jan10)
	require.NoError(t, err)

	at, err := ComputeRetentionEligibleAt(emp, doc, policyTable)
	require.NoError(t, err)
	assert.Nil(t, at, "no termination date yet")

	terminated := time.Date(2025, 6, 1, 17, 45, 0, 0, time.UTC)
	emp.TerminatedAt = &terminated
	at, err = ComputeRetentionEligibleAt(emp, doc, policyTable)
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.Equal(t, date(2029, 6, 1), *at)

	doc.RetentionEligibleAt = at
	assert.False(t, DeletionEligible(doc, date(2029, 5, 31), false))
	assert.False(t, DeletionEligible(doc, date(2027, 1, 1), false))
	assert.True(t, DeletionEligible(doc, date(2029, 6, 1), false))
	assert.False(t, DeletionEligible(doc, date(2030, 1, 1), true), "held documents are never eligible")
}

func TestComputeRetention_SubmissionAnchorUsesApprovalDate(t *testing.T) {
	emp := &model.Employee{ID: "emp-1", WorkState: "NY"}
	doc := &model.Document{ID: "d1", DocumentType: "W-4", Status: model.StatusReceived}

	at, err := ComputeRetentionEligibleAt(emp, doc, policyTable)
	require.NoError(t, err)
	assert.Nil(t, at)

	doc, _ = Approve(doc, reviewer, jan10)
	at, err = ComputeRetentionEligibleAt(emp, doc, policyTable)
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.Equal(t, date(2028, 1, 9), *at)
}

func TestComputeRetention_HireAnchor(t *testing.T) {
	hired := date(2020, 3, 1)
	emp := &model.Employee{ID: "emp-1", WorkState: "WA", HiredAt: &hired}
	doc := &model.Document{ID: "d1", DocumentType: "benefits"}

	at, err := ComputeRetentionEligibleAt(emp, doc, policyTable)
	require.NoError(t, err)
	assert.Equal(t, date(2021, 3, 1), *at)
}

func TestComputeRetention_UnknownStartEvent(t *testing.T) {
	policies := []model.RetentionPolicy{{Jurisdiction: "TX", DocumentType: "I-9", RetentionPeriodDays: 10, StartEvent: "birthday"}}
	_, err := ComputeRetentionEligibleAt(&model.Employee{WorkState: "TX"}, &model.Document{DocumentType: "I-9"}, policies)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestComputeRetention_PolicyMissing(t *testing.T) {
	_, err := ComputeRetentionEligibleAt(&model.Employee{WorkState: "ZZ"}, &model.Document{DocumentType: "I-9"}, policyTable)
	assert.ErrorIs(t, err, model.ErrPolicyNotFound)
}

func TestComputeRetention_Deterministic(t *testing.T) {
	terminated := date(2025, 6, 1)
	emp := &model.Employee{ID: "emp-1", WorkState: "TX", TerminatedAt: &terminated}
	doc := &model.Document{ID: "d1", DocumentType: "I-9"}

	first, err := ComputeRetentionEligibleAt(emp, doc, policyTable)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := ComputeRetentionEligibleAt(emp, doc, policyTable)
		require.NoError(t, err)
		assert.Equal(t, *first, *again)
	}
}

func TestDeletionEligible_RequiresApproved(t *testing.T) {
	past := date(2000, 1, 1)
	doc := &model.Document{Status: model.StatusRejected, RetentionEligibleAt: &past}
	assert.False(t, DeletionEligible(doc, jan10, false))
	doc.Status = model.StatusApproved
	doc.RetentionEligibleAt = nil
	assert.False(t, DeletionEligible(doc, jan10, false))
}

package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoldScopeValidate(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	tests := []struct {
		name    string
		scope   HoldScope
		wantErr bool
	}{
		{name: "all", scope: HoldScope{Kind: ScopeAll}},
		{name: "employees", scope: HoldScope{Kind: ScopeEmployees, EmployeeIDs: []string{"e1"}}},
		{name: "employees empty", scope: HoldScope{Kind: ScopeEmployees}, wantErr: true},
		{name: "department", scope: HoldScope{Kind: ScopeDepartment, Department: "Sales"}},
		{name: "department missing", scope: HoldScope{Kind: ScopeDepartment}, wantErr: true},
		{name: "category missing", scope: HoldScope{Kind: ScopeCategory}, wantErr: true},
		{name: "date range", scope: HoldScope{Kind: ScopeDateRange, DateFrom: &from, DateTo: &to}},
		{name: "date range reversed", scope: HoldScope{Kind: ScopeDateRange, DateFrom: &to, DateTo: &from}, wantErr: true},
		{name: "date range open", scope: HoldScope{Kind: ScopeDateRange, DateFrom: &from}, wantErr: true},
		{name: "unknown", scope: HoldScope{Kind: "team"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scope.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestErrorsUnwrap(t *testing.T) {
	assert.ErrorIs(t, &NotFoundError{Entity: EntityDocument, ID: "x"}, ErrNotFound)
	assert.ErrorIs(t, &PolicyNotFoundError{Jurisdiction: "TX", DocumentType: "I-9"}, ErrPolicyNotFound)
	assert.ErrorIs(t, &TransitionError{From: "approved", Action: "reject"}, ErrInvalidTransition)
	assert.ErrorIs(t, NewValidationError("reason", "required"), ErrValidation)

	cause := errors.New("insert failed")
	assert.ErrorIs(t, &PartialWriteError{Entity: EntityDocument, ID: "x", Event: EventReviewApproved, Err: cause}, cause)
}

func TestDocumentCloneIsDeep(t *testing.T) {
	by := "hr-1"
	doc := &Document{ID: "d1", ReviewedBy: &by}
	cp := doc.Clone()
	*cp.ReviewedBy = "hr-2"
	assert.Equal(t, "hr-1", *doc.ReviewedBy)
}

func TestIntakeSettings(t *testing.T) {
	s := DefaultIntakeSettings()
	assert.True(t, s.ChannelEnabled(ChannelWeb))
	assert.True(t, s.ContentTypeAllowed("application/pdf"))
	assert.False(t, s.ContentTypeAllowed("text/html"))

	s.EnabledChannels = []SourceChannel{ChannelWeb}
	assert.False(t, s.ChannelEnabled(ChannelEmail))

	s.MaxFileBytes = 0
	assert.ErrorIs(t, s.Validate(), ErrValidation)
}

func TestActorCapabilities(t *testing.T) {
	assert.False(t, Actor{ID: "e", Role: RoleEmployee}.CanReview())
	assert.True(t, Actor{ID: "r", Role: RoleHRReviewer}.CanReview())
	assert.False(t, Actor{ID: "r", Role: RoleHRReviewer}.CanAdminister())
	assert.True(t, Actor{ID: "a", Role: RoleHRAdmin}.CanAdminister())
}

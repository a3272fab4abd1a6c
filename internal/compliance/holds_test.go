package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dharsanguruparan/docflow/internal/model"
)

func hold(id string, status model.HoldStatus, scope model.HoldScope) model.LegalHold {
	return model.LegalHold{ID: id, Status: status, Scope: scope}
}

func TestMatches(t *testing.T) {
	inside := &model.Employee{ID: "emp-in", Department: "Sales"}
	outside := &model.Employee{ID: "emp-out", Department: "Engineering"}
	doc := &model.Document{ID: "d1", DocumentType: "I-9", CreatedAt: time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)}

	from := date(2024, 3, 1)
	to := date(2024, 3, 15)
	later := date(2024, 3, 16)

	tests := []struct {
		name  string
		scope model.HoldScope
		emp   *model.Employee
		want  bool
	}{
		{"all", model.HoldScope{Kind: model.ScopeAll}, outside, true},
		{"employee in set", model.HoldScope{Kind: model.ScopeEmployees, EmployeeIDs: []string{"emp-in", "emp-x"}}, inside, true},
		{"employee outside set", model.HoldScope{Kind: model.ScopeEmployees, EmployeeIDs: []string{"emp-in", "emp-x"}}, outside, false},
		{"department match", model.HoldScope{Kind: model.ScopeDepartment, Department: "Sales"}, inside, true},
		{"department miss", model.HoldScope{Kind: model.ScopeDepartment, Department: "Sales"}, outside, false},
		{"category match", model.HoldScope{Kind: model.ScopeCategory, DocumentCategory: "I-9"}, outside, true},
		{"category miss", model.HoldScope{Kind: model.ScopeCategory, DocumentCategory: "W-4"}, outside, false},
		{"date range inclusive end", model.HoldScope{Kind: model.ScopeDateRange, DateFrom: &from, DateTo: &to}, outside, true},
		{"date range before", model.HoldScope{Kind: model.ScopeDateRange, DateFrom: &later, DateTo: &later}, outside, false},
		{"date range open", model.HoldScope{Kind: model.ScopeDateRange, DateFrom: &from}, outside, false},
		{"unknown kind", model.HoldScope{Kind: "team"}, outside, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(hold("h", model.HoldActive, tt.scope), doc, tt.emp))
		})
	}
}

func TestMatches_DateRangeInclusiveStart(t *testing.T) {
	day := date(2024, 3, 1)
	doc := &model.Document{CreatedAt: day}
	h := hold("h", model.HoldActive, model.HoldScope{Kind: model.ScopeDateRange, DateFrom: &day, DateTo: &day})
	assert.True(t, Matches(h, doc, &model.Employee{}))
}

func TestIsHeld_IgnoresReleasedHolds(t *testing.T) {
	emp := &model.Employee{ID: "emp-1"}
	doc := &model.Document{ID: "d1"}
	holds := []model.LegalHold{hold("a", model.HoldReleased, model.HoldScope{Kind: model.ScopeAll})}
	assert.False(t, IsHeld(holds, doc, emp))
}

// Releasing a narrow hold leaves the document held by a broader active one.
func TestIsHeld_ReleaseOneOfTwo(t *testing.T) {
	emp := &model.Employee{ID: "emp-1", Department: "Sales"}
	doc := &model.Document{ID: "d1", DocumentType: "I-9"}

	a := hold("a", model.HoldActive, model.HoldScope{Kind: model.ScopeEmployees, EmployeeIDs: []string{"emp-1"}})
	b := hold("b", model.HoldActive, model.HoldScope{Kind: model.ScopeDepartment, Department: "Sales"})
	assert.True(t, IsHeld([]model.LegalHold{a, b}, doc, emp))

	a.Status = model.HoldReleased
	assert.True(t, IsHeld([]model.LegalHold{a, b}, doc, emp))
	assert.True(t, IsHeld([]model.LegalHold{b, a}, doc, emp))

	b.Status = model.HoldReleased
	assert.False(t, IsHeld([]model.LegalHold{a, b}, doc, emp))
}

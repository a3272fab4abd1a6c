package compliance

import (
	"slices"

	"github.com/dharsanguruparan/docflow/internal/model"
)

type matcher func(scope model.HoldScope, doc *model.Document, emp *model.Employee) bool

var matchers = map[model.ScopeKind]matcher{
	model.ScopeAll: func(model.HoldScope, *model.Document, *model.Employee) bool {
		return true
	},
	model.ScopeEmployees: func(s model.HoldScope, _ *model.Document, emp *model.Employee) bool {
		return slices.Contains(s.EmployeeIDs, emp.ID)
	},
	model.ScopeDepartment: func(s model.HoldScope, _ *model.Document, emp *model.Employee) bool {
		return emp.Department == s.Department
	},
	model.ScopeCategory: func(s model.HoldScope, doc *model.Document, _ *model.Employee) bool {
		return doc.DocumentType == s.DocumentCategory
	},
	model.ScopeDateRange: func(s model.HoldScope, doc *model.Document, _ *model.Employee) bool {
		if s.DateFrom == nil || s.DateTo == nil {
			return false
		}
		created := CalendarDate(doc.CreatedAt)
		return !created.Before(CalendarDate(*s.DateFrom)) && !created.After(CalendarDate(*s.DateTo))
	},
}

// Matches reports whether the hold's scope covers the document, regardless of
// the hold's status.
func Matches(hold model.LegalHold, doc *model.Document, emp *model.Employee) bool {
	m, ok := matchers[hold.Scope.Kind]
	if !ok {
		return false
	}
	return m(hold.Scope, doc, emp)
}

// IsHeld reports whether at least one active hold covers the document. It
// re-runs every matcher, so the answer does not depend on the order holds
// were applied or released.
func IsHeld(holds []model.LegalHold, doc *model.Document, emp *model.Employee) bool {
	for _, h := range holds {
		if h.Active() && Matches(h, doc, emp) {
			return true
		}
	}
	return false
}

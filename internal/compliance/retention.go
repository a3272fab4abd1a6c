package compliance

import (
	"time"

	"github.com/dharsanguruparan/docflow/internal/model"
)

// ResolvePolicy picks the policy for a jurisdiction and document type.
// Order: override for the key, regular policy for the key, then the explicit
// global policy for the document type. Nothing resolving is an error.
func ResolvePolicy(policies []model.RetentionPolicy, jurisdiction, docType string) (model.RetentionPolicy, error) {
	if p, ok := pick(policies, jurisdiction, docType); ok {
		return p, nil
	}
	if p, ok := pick(policies, model.GlobalJurisdiction, docType); ok {
		return p, nil
	}
	return model.RetentionPolicy{}, &model.PolicyNotFoundError{Jurisdiction: jurisdiction, DocumentType: docType}
}

func pick(policies []model.RetentionPolicy, jurisdiction, docType string) (model.RetentionPolicy, bool) {
	var (
		base  model.RetentionPolicy
		found bool
	)
	for _, p := range policies {
		if p.Jurisdiction != jurisdiction || p.DocumentType != docType {
			continue
		}
		if p.IsOverride {
			return p, true
		}
		if !found {
			base, found = p, true
		}
	}
	return base, found
}

// AnchorDate returns the date the policy counts from. A nil date with a nil
// error means the anchor event has not happened yet.
func AnchorDate(policy model.RetentionPolicy, emp *model.Employee, doc *model.Document) (*time.Time, error) {
	switch policy.StartEvent {
	case model.StartTermination:
		return emp.TerminatedAt, nil
	case model.StartSubmission:
		return doc.ReviewedAt, nil
	case model.StartHire:
		return emp.HiredAt, nil
	default:
		return nil, model.NewValidationError("startEvent", "unknown start event "+string(policy.StartEvent))
	}
}

// ComputeRetentionEligibleAt returns anchor date plus the policy period in
// calendar days. Hold coverage plays no part here; see DeletionEligible.
func ComputeRetentionEligibleAt(emp *model.Employee, doc *model.Document, policies []model.RetentionPolicy) (*time.Time, error) {
	policy, err := ResolvePolicy(policies, emp.WorkState, doc.DocumentType)
	if err != nil {
		return nil, err
	}
	anchor, err := AnchorDate(policy, emp, doc)
	if err != nil || anchor == nil {
		return nil, err
	}
	at := CalendarDate(*anchor).AddDate(0, 0, policy.RetentionPeriodDays)
	return &at, nil
}

// DeletionEligible is evaluated at read time: the stored date must have
// passed and no active hold may cover the document.
func DeletionEligible(doc *model.Document, now time.Time, held bool) bool {
	if held || doc.Status != model.StatusApproved || doc.RetentionEligibleAt == nil {
		return false
	}
	return !CalendarDate(now).Before(CalendarDate(*doc.RetentionEligibleAt))
}

// CalendarDate truncates t to midnight UTC of its UTC calendar day.
func CalendarDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package model

import "time"

// StartEvent is the anchor event a retention period is counted from.
type StartEvent string

const (
	// StartTermination anchors on the employee's termination date.
	StartTermination StartEvent = "termination"
	// StartSubmission anchors on the date the document was approved.
	StartSubmission StartEvent = "submission"
	// StartHire anchors on the employee's hire date.
	StartHire StartEvent = "hire"
)

// Valid reports whether e is a known start event.
func (e StartEvent) Valid() bool {
	switch e {
	case StartTermination, StartSubmission, StartHire:
		return true
	}
	return false
}

// GlobalJurisdiction marks a policy as the explicit fallback for a document
// type in every jurisdiction without its own rule.
const GlobalJurisdiction = "*"

// RetentionPolicy defines how long a document type must be kept in a
// jurisdiction after its start event.
type RetentionPolicy struct {
	ID                  string     `json:"id"`
	Jurisdiction        string     `json:"jurisdiction"`
	DocumentType        string     `json:"documentType"`
	RetentionPeriodDays int        `json:"retentionPeriodDays"`
	StartEvent          StartEvent `json:"startEvent"`
	IsOverride          bool       `json:"isOverride"`
	Description         string     `json:"description,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

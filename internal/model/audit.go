package model

import "time"

// EntityType names the kind of row an audit entry refers to.
type EntityType string

const (
	EntityDocument  EntityType = "document"
	EntityEmployee  EntityType = "employee"
	EntityLegalHold EntityType = "legal_hold"
	EntityPolicy    EntityType = "retention_policy"
	EntitySettings  EntityType = "settings"
)

// EventType is the dotted name of an audited action.
type EventType string

const (
	EventDocumentReceived   EventType = "document.received"
	EventReviewStarted      EventType = "document.review.started"
	EventReviewApproved     EventType = "document.review.approved"
	EventReviewRejected     EventType = "document.review.rejected"
	EventHoldApplied        EventType = "document.hold.applied"
	EventHoldReleased       EventType = "document.hold.released"
	EventRetentionComputed  EventType = "document.retention.computed"
	EventDocumentExpired    EventType = "document.expired"
	EventFileConfirmed      EventType = "document.file.confirmed"
	EventDocumentDownloaded EventType = "document.downloaded"
	EventEmployeeCreated    EventType = "employee.created"
	EventEmployeeUpdated    EventType = "employee.updated"
	EventLegalHoldCreated   EventType = "legal_hold.created"
	EventLegalHoldReleased  EventType = "legal_hold.released"
	EventPolicyCreated      EventType = "retention_policy.created"
	EventSettingsUpdated    EventType = "settings.updated"
)

// AuditEntry is an immutable activity record. Entries are appended and never
// updated or deleted.
type AuditEntry struct {
	ID          string         `json:"id"`
	EntityType  EntityType     `json:"entityType"`
	EntityID    string         `json:"entityId"`
	EventType   EventType      `json:"eventType"`
	Actor       string         `json:"actor"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

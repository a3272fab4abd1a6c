// Package model contains the struct definitions shared across packages.
package model

import (
	"time"
)

// DocumentStatus describes the review lifecycle of a submitted document.
// Legal hold suspension is tracked separately through Document.OnHold so the
// review status survives a hold being applied and released.
type DocumentStatus string

const (
	StatusReceived DocumentStatus = "received"
	StatusInReview DocumentStatus = "in_review"
	StatusApproved DocumentStatus = "approved"
	StatusRejected DocumentStatus = "rejected"
	StatusExpired  DocumentStatus = "expired"
)

// Valid reports whether s is a known status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusReceived, StatusInReview, StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// SourceChannel is the intake path a document arrived through.
type SourceChannel string

const (
	ChannelWeb   SourceChannel = "web"
	ChannelEmail SourceChannel = "email"
	ChannelScan  SourceChannel = "scan"
	ChannelAPI   SourceChannel = "api"
)

// Valid reports whether c is a known channel.
func (c SourceChannel) Valid() bool {
	switch c {
	case ChannelWeb, ChannelEmail, ChannelScan, ChannelAPI:
		return true
	}
	return false
}

// Document records one submitted file and its compliance state. File bytes
// live in object storage; only metadata is kept here.
type Document struct {
	ID                  string         `json:"id"`
	EmployeeID          string         `json:"employeeId"`
	DocumentType        string         `json:"documentType"`
	Status              DocumentStatus `json:"status"`
	SourceChannel       SourceChannel  `json:"sourceChannel"`
	FileName            string         `json:"fileName"`
	FileSize            int64          `json:"fileSize"`
	ContentType         string         `json:"contentType"`
	ObjectKey           string         `json:"-"`
	PageCount           *int           `json:"pageCount,omitempty"`
	FileConfirmedAt     *time.Time     `json:"fileConfirmedAt,omitempty"`
	ReviewedBy          *string        `json:"reviewedBy,omitempty"`
	ReviewedAt          *time.Time     `json:"reviewedAt,omitempty"`
	Notes               *string        `json:"notes,omitempty"`
	Version             int            `json:"version"`
	OriginalDocumentID  *string        `json:"originalDocumentId,omitempty"`
	RetentionEligibleAt *time.Time     `json:"retentionEligibleAt,omitempty"`
	OnHold              bool           `json:"onHold"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// Clone returns a deep copy so state transitions never alias the caller's
// pointers.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.PageCount = clonePtr(d.PageCount)
	out.FileConfirmedAt = clonePtr(d.FileConfirmedAt)
	out.ReviewedBy = clonePtr(d.ReviewedBy)
	out.ReviewedAt = clonePtr(d.ReviewedAt)
	out.Notes = clonePtr(d.Notes)
	out.OriginalDocumentID = clonePtr(d.OriginalDocumentID)
	out.RetentionEligibleAt = clonePtr(d.RetentionEligibleAt)
	return &out
}

// DocumentFilter narrows document listings. Zero values mean "any".
type DocumentFilter struct {
	EmployeeID   string
	Status       DocumentStatus
	DocumentType string
	OnHold       *bool
	Limit        int
	Offset       int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Normalize clamps paging values.
func (f *DocumentFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

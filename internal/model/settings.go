package model

import (
	"slices"
	"time"
)

// IntakeSettings is the configuration record read on every submission. It is
// stored alongside the other entities instead of living in process memory.
type IntakeSettings struct {
	EnabledChannels     []SourceChannel `json:"enabledChannels"`
	MaxFileBytes        int64           `json:"maxFileBytes"`
	AllowedContentTypes []string        `json:"allowedContentTypes"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	UpdatedBy           string          `json:"updatedBy,omitempty"`
}

// DefaultIntakeSettings is used until an administrator saves a record.
func DefaultIntakeSettings() IntakeSettings {
	return IntakeSettings{
		EnabledChannels:     []SourceChannel{ChannelWeb, ChannelEmail, ChannelScan, ChannelAPI},
		MaxFileBytes:        25 << 20,
		AllowedContentTypes: []string{"application/pdf", "image/png", "image/jpeg"},
	}
}

// ChannelEnabled reports whether submissions through c are accepted.
func (s IntakeSettings) ChannelEnabled(c SourceChannel) bool {
	return slices.Contains(s.EnabledChannels, c)
}

// ContentTypeAllowed reports whether ct may be submitted. An empty allow-list
// accepts everything.
func (s IntakeSettings) ContentTypeAllowed(ct string) bool {
	if len(s.AllowedContentTypes) == 0 {
		return true
	}
	return slices.Contains(s.AllowedContentTypes, ct)
}

// Validate checks the record before it is saved.
func (s IntakeSettings) Validate() error {
	var errs []FieldError
	for _, c := range s.EnabledChannels {
		if !c.Valid() {
			errs = append(errs, FieldError{Field: "enabledChannels", Message: "unknown channel " + string(c)})
		}
	}
	if s.MaxFileBytes <= 0 {
		errs = append(errs, FieldError{Field: "maxFileBytes", Message: "must be positive"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

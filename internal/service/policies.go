package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/docflow/internal/model"
)

// PolicyService manages retention policies.
type PolicyService struct {
	core
}

// DefaultPolicies is the starter table loaded by "docflow policy seed".
func DefaultPolicies() []CreatePolicyInput {
	return []CreatePolicyInput{
		{Jurisdiction: model.GlobalJurisdiction, DocumentType: "I-9", RetentionPeriodDays: 365, StartEvent: model.StartTermination,
			Description: "Federal default: one year after termination"},
		{Jurisdiction: "TX", DocumentType: "I-9", RetentionPeriodDays: 1461, StartEvent: model.StartTermination,
			Description: "Texas: four years after termination"},
		{Jurisdiction: model.GlobalJurisdiction, DocumentType: "W-4", RetentionPeriodDays: 1461, StartEvent: model.StartSubmission,
			Description: "Four years after the form is approved"},
		{Jurisdiction: model.GlobalJurisdiction, DocumentType: "benefits", RetentionPeriodDays: 2192, StartEvent: model.StartTermination,
			Description: "Six years after termination"},
		{Jurisdiction: "CA", DocumentType: "offer-letter", RetentionPeriodDays: 1096, StartEvent: model.StartHire,
			Description: "California: three years from hire"},
	}
}

// List returns policies, optionally for one jurisdiction.
func (s *PolicyService) List(ctx context.Context, jurisdiction string) ([]model.RetentionPolicy, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	return s.stores.Policies.List(ctx, jurisdiction)
}

// Create adds a policy. HR admin only. A second policy for the same key and
// override flag is a conflict.
func (s *PolicyService) Create(ctx context.Context, in CreatePolicyInput) (*model.RetentionPolicy, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := &model.RetentionPolicy{
		ID:                  uuid.NewString(),
		Jurisdiction:        in.Jurisdiction,
		DocumentType:        in.DocumentType,
		RetentionPeriodDays: in.RetentionPeriodDays,
		StartEvent:          in.StartEvent,
		IsOverride:          in.IsOverride,
		Description:         in.Description,
		CreatedAt:           s.now(),
	}
	if err := s.stores.Policies.Create(ctx, p); err != nil {
		return nil, err
	}
	s.rec.record(ctx, model.EntityPolicy, p.ID, model.EventPolicyCreated, actor.ID, "retention policy created",
		map[string]any{
			"jurisdiction":        p.Jurisdiction,
			"documentType":        p.DocumentType,
			"retentionPeriodDays": p.RetentionPeriodDays,
			"isOverride":          p.IsOverride,
		})
	s.log.Info("retention policy created",
		zap.String("jurisdiction", p.Jurisdiction),
		zap.String("document_type", p.DocumentType),
		zap.Bool("override", p.IsOverride),
	)
	return p, nil
}

// Seed creates every policy in inputs, skipping keys that already exist.
// It returns how many were created.
func (s *PolicyService) Seed(ctx context.Context, inputs []CreatePolicyInput) (int, error) {
	created := 0
	for _, in := range inputs {
		_, err := s.Create(ctx, in)
		if errors.Is(err, model.ErrConflict) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %s/%s: %w", in.Jurisdiction, in.DocumentType, err)
		}
		created++
	}
	return created, nil
}

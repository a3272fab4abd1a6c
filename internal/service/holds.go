package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/docflow/internal/model"
)

// HoldService places and releases legal holds. Coverage is always decided by
// re-running scope matchers against the active holds.
type HoldService struct {
	core
}

// HoldResult is a hold plus the number of documents whose suspension flag
// changed because of the call.
type HoldResult struct {
	Hold     *model.LegalHold `json:"hold"`
	Affected int              `json:"affectedDocuments"`
}

// Create places a hold and suspends every document it covers.
func (s *HoldService) Create(ctx context.Context, in CreateHoldInput) (*HoldResult, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	hold := &model.LegalHold{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Reason:    in.Reason,
		Scope:     in.Scope,
		Status:    model.HoldActive,
		CreatedBy: actor.ID,
		CreatedAt: s.now(),
	}
	if err := s.stores.Holds.Create(ctx, hold); err != nil {
		return nil, fmt.Errorf("create legal hold: %w", err)
	}
	s.rec.record(ctx, model.EntityLegalHold, hold.ID, model.EventLegalHoldCreated, actor.ID, "legal hold created",
		map[string]any{"name": hold.Name, "scope": string(hold.Scope.Kind)})

	docs, err := s.stores.Documents.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	affected, err := s.sweepHolds(ctx, docs, actor.ID, hold.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("legal hold created",
		zap.String("hold_id", hold.ID),
		zap.String("scope", string(hold.Scope.Kind)),
		zap.Int("affected", affected),
	)
	return &HoldResult{Hold: hold, Affected: affected}, nil
}

// Get returns one hold.
func (s *HoldService) Get(ctx context.Context, id string) (*model.LegalHold, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.stores.Holds.Get(ctx, id)
}

// List returns holds, optionally filtered by status.
func (s *HoldService) List(ctx context.Context, status model.HoldStatus) ([]model.LegalHold, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if status != "" && status != model.HoldActive && status != model.HoldReleased {
		return nil, model.NewValidationError("status", "unknown hold status")
	}
	return s.stores.Holds.List(ctx, status)
}

// Release ends a hold and lifts suspension from documents that no other
// active hold still covers.
func (s *HoldService) Release(ctx context.Context, id string) (*HoldResult, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.stores.Holds.Release(ctx, id, actor.ID, s.now()); err != nil {
		return nil, err
	}
	s.rec.record(ctx, model.EntityLegalHold, id, model.EventLegalHoldReleased, actor.ID, "legal hold released", nil)

	hold, err := s.stores.Holds.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := s.stores.Documents.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	suspended := make([]*model.Document, 0, len(all))
	for _, doc := range all {
		if doc.OnHold {
			suspended = append(suspended, doc)
		}
	}
	affected, err := s.sweepHolds(ctx, suspended, actor.ID, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("legal hold released", zap.String("hold_id", id), zap.Int("released_documents", affected))
	return &HoldResult{Hold: hold, Affected: affected}, nil
}

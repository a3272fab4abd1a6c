package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/dharsanguruparan/docflow/internal/model"
)

// SettingsService reads and writes the intake settings record.
type SettingsService struct {
	core
}

// Get returns the current intake settings.
func (s *SettingsService) Get(ctx context.Context) (model.IntakeSettings, error) {
	if _, err := actorFrom(ctx); err != nil {
		return model.IntakeSettings{}, err
	}
	return s.stores.Settings.Get(ctx)
}

// Update replaces the intake settings. HR admin only.
func (s *SettingsService) Update(ctx context.Context, in model.IntakeSettings) (model.IntakeSettings, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return model.IntakeSettings{}, err
	}
	if err := in.Validate(); err != nil {
		return model.IntakeSettings{}, err
	}
	prev, err := s.stores.Settings.Get(ctx)
	if err != nil {
		return model.IntakeSettings{}, fmt.Errorf("load intake settings: %w", err)
	}
	in.EnabledChannels = slices.Clone(in.EnabledChannels)
	slices.Sort(in.EnabledChannels)
	in.EnabledChannels = slices.Compact(in.EnabledChannels)
	in.UpdatedAt = s.now()
	in.UpdatedBy = actor.ID
	if err := s.stores.Settings.Put(ctx, in); err != nil {
		return model.IntakeSettings{}, err
	}
	s.rec.record(ctx, model.EntitySettings, "intake", model.EventSettingsUpdated, actor.ID, "intake settings updated",
		map[string]any{
			"previousChannels": channelNames(prev.EnabledChannels),
			"enabledChannels":  channelNames(in.EnabledChannels),
			"maxFileBytes":     in.MaxFileBytes,
		})
	return in, nil
}

func channelNames(cs []model.SourceChannel) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

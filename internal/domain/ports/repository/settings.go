package repository

import (
	"context"

	"telegram-group-guard/internal/domain/model"
)

// SettingsRepository stores the per-group moderation toggles.
type SettingsRepository interface {
	// Get returns the stored settings, or the all-enabled default when the
	// group has no record yet. Absence is not an error.
	Get(ctx context.Context, tx Tx, groupID int64) (*model.GroupSettings, error)
	Save(ctx context.Context, tx Tx, s *model.GroupSettings) error
}

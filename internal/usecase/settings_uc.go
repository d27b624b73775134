package usecase

import (
	"context"

	"telegram-group-guard/internal/domain"
	"telegram-group-guard/internal/domain/model"
	"telegram-group-guard/internal/domain/ports/repository"
	"telegram-group-guard/internal/infra/logging"
	"telegram-group-guard/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// SettingsCache is the read-through cache the settings use case sits on. A
// miss is (nil, nil); cache failures are soft.
type SettingsCache interface {
	Get(ctx context.Context, groupID int64) (*model.GroupSettings, error)
	Store(ctx context.Context, s *model.GroupSettings) error
	Invalidate(ctx context.Context, groupID int64) error
}

// Toggle names for UpdateSetting.
const (
	SettingLinks     = "links"
	SettingAds       = "ads"
	SettingJoinLeave = "join_leave"
)

var _ SettingsUseCase = (*settingsUC)(nil)

type SettingsUseCase interface {
	// Get returns the group's moderation toggles; every group has effective
	// settings even without a stored record.
	Get(ctx context.Context, groupID int64) (*model.GroupSettings, error)
	// Toggle flips one named setting and returns the new state.
	Toggle(ctx context.Context, groupID int64, setting string) (*model.GroupSettings, error)
	// Update replaces the group's settings wholesale.
	Update(ctx context.Context, s *model.GroupSettings) error
}

type settingsUC struct {
	settings repository.SettingsRepository
	cache    SettingsCache
	log      *zerolog.Logger
}

func NewSettingsUseCase(settings repository.SettingsRepository, cache SettingsCache, logger *zerolog.Logger) *settingsUC {
	return &settingsUC{settings: settings, cache: cache, log: logger}
}

func (u *settingsUC) Get(ctx context.Context, groupID int64) (*model.GroupSettings, error) {
	defer logging.TraceDuration(u.log, "SettingsUC.Get")()

	if u.cache != nil {
		if s, err := u.cache.Get(ctx, groupID); err != nil {
			u.log.Warn().Err(err).Int64("group_id", groupID).Msg("settings cache read failed")
		} else if s != nil {
			return s, nil
		}
	}

	s, err := u.settings.Get(ctx, repository.NoTX, groupID)
	if err != nil {
		return nil, err
	}
	if u.cache != nil {
		if err := u.cache.Store(ctx, s); err != nil {
			u.log.Warn().Err(err).Int64("group_id", groupID).Msg("settings cache store failed")
		}
	}
	return s, nil
}

func (u *settingsUC) Toggle(ctx context.Context, groupID int64, setting string) (*model.GroupSettings, error) {
	defer logging.TraceDuration(u.log, "SettingsUC.Toggle")()

	s, err := u.settings.Get(ctx, repository.NoTX, groupID)
	if err != nil {
		return nil, err
	}
	switch setting {
	case SettingLinks:
		s.DeleteLinks = !s.DeleteLinks
	case SettingAds:
		s.DeleteAds = !s.DeleteAds
	case SettingJoinLeave:
		s.DeleteJoinLeave = !s.DeleteJoinLeave
	default:
		return nil, domain.ErrInvalidArgument
	}
	if err := u.Update(ctx, s); err != nil {
		return nil, err
	}
	metrics.IncSettingsToggle()
	return s, nil
}

func (u *settingsUC) Update(ctx context.Context, s *model.GroupSettings) error {
	if err := u.settings.Save(ctx, repository.NoTX, s); err != nil {
		return err
	}
	if u.cache != nil {
		if err := u.cache.Invalidate(ctx, s.GroupID); err != nil {
			u.log.Warn().Err(err).Int64("group_id", s.GroupID).Msg("settings cache invalidate failed")
		}
	}
	return nil
}

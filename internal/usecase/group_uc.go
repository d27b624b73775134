package usecase

import (
	"context"
	"time"

	"telegram-group-guard/internal/domain/model"
	"telegram-group-guard/internal/domain/ports/repository"
	"telegram-group-guard/internal/infra/logging"
	"telegram-group-guard/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

var _ GroupUseCase = (*groupUC)(nil)

// GroupUseCase covers the group lifecycle: registration when the bot is
// added, deactivation when it is removed, join/leave bookkeeping and the
// periodic retention sweep over unverified records.
type GroupUseCase interface {
	RegisterGroup(ctx context.Context, id int64, title, username string) (*model.Group, error)
	DeactivateGroup(ctx context.Context, id int64) error
	ListGroups(ctx context.Context) ([]*model.Group, error)
	GetGroup(ctx context.Context, id int64) (*model.Group, error)
	// HandleMemberJoined records a new member as verified (a join event is
	// positive evidence of presence).
	HandleMemberJoined(ctx context.Context, groupID int64, s model.Sender) error
	// HandleMemberLeft drops the member's record.
	HandleMemberLeft(ctx context.Context, groupID int64, s model.Sender) error
	// PurgeStale removes unverified records older than the retention window
	// across all active groups and returns the total removed.
	PurgeStale(ctx context.Context, retention time.Duration) (int, error)
}

type groupUC struct {
	groups   repository.GroupRepository
	members  repository.MemberRepository
	settings repository.SettingsRepository
	txm      repository.TransactionManager
	log      *zerolog.Logger
}

func NewGroupUseCase(
	groups repository.GroupRepository,
	members repository.MemberRepository,
	settings repository.SettingsRepository,
	txm repository.TransactionManager,
	logger *zerolog.Logger,
) *groupUC {
	return &groupUC{groups: groups, members: members, settings: settings, txm: txm, log: logger}
}

// RegisterGroup saves the group and seeds default settings in one
// transaction. Re-adding a known group reactivates it and refreshes the
// title without touching its settings.
func (u *groupUC) RegisterGroup(ctx context.Context, id int64, title, username string) (*model.Group, error) {
	defer logging.TraceDuration(u.log, "GroupUC.RegisterGroup")()

	g, err := model.NewGroup(id, title, username)
	if err != nil {
		return nil, err
	}
	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.groups.Save(ctx, tx, g); err != nil {
			return err
		}
		s, err := u.settings.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		return u.settings.Save(ctx, tx, s)
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Int64("group_id", id).Str("title", title).Msg("group registered")
	return g, nil
}

func (u *groupUC) DeactivateGroup(ctx context.Context, id int64) error {
	defer logging.TraceDuration(u.log, "GroupUC.DeactivateGroup")()
	if err := u.groups.Deactivate(ctx, repository.NoTX, id); err != nil {
		return err
	}
	u.log.Info().Int64("group_id", id).Msg("group deactivated")
	return nil
}

func (u *groupUC) ListGroups(ctx context.Context) ([]*model.Group, error) {
	return u.groups.ListActive(ctx, repository.NoTX)
}

func (u *groupUC) GetGroup(ctx context.Context, id int64) (*model.Group, error) {
	return u.groups.FindByID(ctx, repository.NoTX, id)
}

func (u *groupUC) HandleMemberJoined(ctx context.Context, groupID int64, s model.Sender) error {
	defer logging.TraceDuration(u.log, "GroupUC.HandleMemberJoined")()

	identity := model.NumericIdentity(s.TelegramID)
	if s.TelegramID == 0 {
		if s.Handle == "" {
			return nil
		}
		identity = model.HandleOnlyIdentity(s.Handle)
	}
	m, err := model.NewGroupMember(groupID, identity, s.Handle, s.FirstName, s.LastName, true)
	if err != nil {
		return err
	}
	return u.members.Upsert(ctx, repository.NoTX, m)
}

func (u *groupUC) HandleMemberLeft(ctx context.Context, groupID int64, s model.Sender) error {
	defer logging.TraceDuration(u.log, "GroupUC.HandleMemberLeft")()

	identity := model.NumericIdentity(s.TelegramID)
	if s.TelegramID == 0 {
		if s.Handle == "" {
			return nil
		}
		identity = model.HandleOnlyIdentity(s.Handle)
	}
	return u.members.Remove(ctx, repository.NoTX, groupID, identity)
}

func (u *groupUC) PurgeStale(ctx context.Context, retention time.Duration) (int, error) {
	defer logging.TraceDuration(u.log, "GroupUC.PurgeStale")()

	groups, err := u.groups.ListActive(ctx, repository.NoTX)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-retention)
	total := 0
	for _, g := range groups {
		n, err := u.members.PurgeUnverified(ctx, repository.NoTX, g.ID, cutoff)
		if err != nil {
			u.log.Warn().Err(err).Int64("group_id", g.ID).Msg("purge failed, continuing")
			continue
		}
		total += n
	}
	if total > 0 {
		metrics.IncMembersPurged(total)
		u.log.Info().Int("purged", total).Msg("stale member records removed")
	}
	return total, nil
}

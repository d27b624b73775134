package usecase

import (
	"context"

	"telegram-group-guard/internal/domain/ports/repository"
	"telegram-group-guard/internal/infra/logging"

	"github.com/rs/zerolog"
)

// GlobalStats is the bot-wide summary shown in the admin panel.
type GlobalStats struct {
	ActiveGroups    int `json:"active_groups"`
	TotalMembers    int `json:"total_members"`
	VerifiedMembers int `json:"verified_members"`
}

// GroupStats summarizes one group's membership store.
type GroupStats struct {
	GroupID         int64  `json:"group_id"`
	Title           string `json:"title"`
	Members         int    `json:"members"`
	VerifiedMembers int    `json:"verified_members"`
}

var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Global(ctx context.Context) (*GlobalStats, error)
	Group(ctx context.Context, groupID int64) (*GroupStats, error)
}

type statsUC struct {
	groups  repository.GroupRepository
	members repository.MemberRepository
	log     *zerolog.Logger
}

func NewStatsUseCase(groups repository.GroupRepository, members repository.MemberRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{groups: groups, members: members, log: logger}
}

func (u *statsUC) Global(ctx context.Context) (*GlobalStats, error) {
	defer logging.TraceDuration(u.log, "StatsUC.Global")()

	groups, err := u.groups.ListActive(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	out := &GlobalStats{ActiveGroups: len(groups)}
	for _, g := range groups {
		n, err := u.members.CountMembers(ctx, repository.NoTX, g.ID)
		if err != nil {
			return nil, err
		}
		v, err := u.members.CountVerified(ctx, repository.NoTX, g.ID)
		if err != nil {
			return nil, err
		}
		out.TotalMembers += n
		out.VerifiedMembers += v
	}
	return out, nil
}

func (u *statsUC) Group(ctx context.Context, groupID int64) (*GroupStats, error) {
	defer logging.TraceDuration(u.log, "StatsUC.Group")()

	g, err := u.groups.FindByID(ctx, repository.NoTX, groupID)
	if err != nil {
		return nil, err
	}
	members, err := u.members.CountMembers(ctx, repository.NoTX, groupID)
	if err != nil {
		return nil, err
	}
	verified, err := u.members.CountVerified(ctx, repository.NoTX, groupID)
	if err != nil {
		return nil, err
	}
	return &GroupStats{
		GroupID:         g.ID,
		Title:           g.Title,
		Members:         members,
		VerifiedMembers: verified,
	}, nil
}

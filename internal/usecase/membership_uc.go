package usecase

import (
	"context"
	"errors"
	"strings"

	"telegram-group-guard/internal/domain"
	"telegram-group-guard/internal/domain/model"
	"telegram-group-guard/internal/domain/ports/adapter"
	"telegram-group-guard/internal/domain/ports/repository"
	"telegram-group-guard/internal/infra/logging"
	"telegram-group-guard/internal/infra/metrics"
	"telegram-group-guard/internal/textscan"

	"github.com/rs/zerolog"
)

// Group-size policy for the heuristic fallback tier. In groups at or below
// SmallGroupCutoff the bot has seen most members, so an inconclusive lookup
// is treated as a negative; above it the balance tips toward not deleting
// legitimate mentions. Past largeGroupCutoff even the suspicious-substring
// screen is skipped.
const (
	DefaultSmallGroupCutoff = 200
	largeGroupCutoff        = 1000
)

// suspiciousSubstrings disqualify a handle from the permissive large-group
// fallback; they are the handle shapes impersonation spam favors.
var suspiciousSubstrings = []string{
	"admin", "support", "official", "service", "manager",
}

// Compile-time check
var _ MembershipUseCase = (*membershipUC)(nil)

// MembershipUseCase decides whether a mentioned handle belongs to a group
// member, through a tiered fallback chain: store record, direct platform
// lookup, administrator roster scan, group-size heuristic. Positive
// determinations with evidence are written back to the membership store.
//
// The boolean is final: every transport failure is resolved internally by
// the tier policy, never surfaced.
type MembershipUseCase interface {
	IsVerifiedMember(ctx context.Context, groupID int64, handle string) bool
	// RecordVerified upserts a member with positive evidence of presence.
	RecordVerified(ctx context.Context, m *model.GroupMember) error
	// RecordLeft removes a member's record after a leave/kick event.
	RecordLeft(ctx context.Context, groupID int64, identity model.MemberIdentity) error
}

type membershipUC struct {
	members          repository.MemberRepository
	chat             adapter.ChatClient
	smallGroupCutoff int
	log              *zerolog.Logger
}

func NewMembershipUseCase(members repository.MemberRepository, chat adapter.ChatClient, smallGroupCutoff int, logger *zerolog.Logger) *membershipUC {
	if smallGroupCutoff <= 0 {
		smallGroupCutoff = DefaultSmallGroupCutoff
	}
	return &membershipUC{
		members:          members,
		chat:             chat,
		smallGroupCutoff: smallGroupCutoff,
		log:              logger,
	}
}

func (u *membershipUC) IsVerifiedMember(ctx context.Context, groupID int64, handle string) bool {
	defer logging.TraceDuration(u.log, "MembershipUC.IsVerifiedMember")()

	handle = strings.ToLower(strings.TrimPrefix(handle, "@"))
	if handle == "" {
		return false
	}

	// Tier 1: local record check.
	ok, err := u.members.IsVerifiedHandle(ctx, repository.NoTX, groupID, handle)
	if err != nil {
		u.log.Warn().Err(err).Int64("group_id", groupID).Str("handle", handle).Msg("member store probe failed")
	} else if ok {
		metrics.IncVerification(metrics.TierStore, true)
		return true
	}

	// Tier 2: direct platform lookup. "Not found" is authoritative; any
	// other failure falls through to the roster scan.
	member, err := u.chat.ResolveMemberByHandle(ctx, groupID, handle)
	switch {
	case err == nil:
		if !member.Status.Present() {
			metrics.IncVerification(metrics.TierLookup, false)
			return false
		}
		u.upsertFromChatMember(ctx, groupID, handle, member)
		metrics.IncVerification(metrics.TierLookup, true)
		return true
	case errors.Is(err, domain.ErrUserNotFound):
		metrics.IncVerification(metrics.TierLookup, false)
		return false
	default:
		u.log.Debug().Err(err).Str("handle", handle).Msg("platform lookup inconclusive")
	}

	// Tier 3: administrator roster scan.
	admins, err := u.chat.GetChatAdministrators(ctx, groupID)
	if err != nil {
		u.log.Debug().Err(err).Int64("group_id", groupID).Msg("administrator scan inconclusive")
	} else {
		for i := range admins {
			if strings.EqualFold(admins[i].User.Handle, handle) {
				u.upsertFromChatMember(ctx, groupID, handle, &admins[i])
				metrics.IncVerification(metrics.TierAdminScan, true)
				return true
			}
		}
	}

	// Tier 4: group-size heuristic.
	return u.sizeHeuristic(ctx, groupID, handle)
}

// sizeHeuristic resolves an inconclusive verification by group size. Small
// groups deny; large groups allow syntactically clean handles WITHOUT
// persisting a record (there is no evidence to write). When even the member
// count is unavailable the verification infrastructure itself is failing,
// and the tie breaks toward allowing rather than silently censoring.
func (u *membershipUC) sizeHeuristic(ctx context.Context, groupID int64, handle string) bool {
	count, err := u.chat.GetChatMemberCount(ctx, groupID)
	if err != nil {
		u.log.Warn().Err(err).Int64("group_id", groupID).Msg("member count unavailable, allowing mention")
		metrics.IncVerification(metrics.TierHeuristic, true)
		return true
	}

	if count <= u.smallGroupCutoff {
		metrics.IncVerification(metrics.TierHeuristic, false)
		return false
	}

	if !textscan.IsValidHandle(handle) {
		metrics.IncVerification(metrics.TierHeuristic, false)
		return false
	}
	if count <= largeGroupCutoff {
		for _, s := range suspiciousSubstrings {
			if strings.Contains(handle, s) {
				metrics.IncVerification(metrics.TierHeuristic, false)
				return false
			}
		}
	}
	metrics.IncVerification(metrics.TierHeuristic, true)
	return true
}

func (u *membershipUC) upsertFromChatMember(ctx context.Context, groupID int64, handle string, cm *adapter.ChatMember) {
	identity := model.NumericIdentity(cm.User.TelegramID)
	if cm.User.TelegramID == 0 {
		identity = model.HandleOnlyIdentity(handle)
	}
	h := cm.User.Handle
	if h == "" {
		h = handle
	}
	m, err := model.NewGroupMember(groupID, identity, h, cm.User.FirstName, cm.User.LastName, true)
	if err != nil {
		u.log.Error().Err(err).Msg("build member record")
		return
	}
	if err := u.members.Upsert(ctx, repository.NoTX, m); err != nil {
		u.log.Warn().Err(err).Int64("group_id", groupID).Str("handle", handle).Msg("member upsert failed")
	}
}

func (u *membershipUC) RecordVerified(ctx context.Context, m *model.GroupMember) error {
	defer logging.TraceDuration(u.log, "MembershipUC.RecordVerified")()
	return u.members.Upsert(ctx, repository.NoTX, m)
}

func (u *membershipUC) RecordLeft(ctx context.Context, groupID int64, identity model.MemberIdentity) error {
	defer logging.TraceDuration(u.log, "MembershipUC.RecordLeft")()
	return u.members.Remove(ctx, repository.NoTX, groupID, identity)
}

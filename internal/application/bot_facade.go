package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telegram-group-guard/internal/domain"
	"telegram-group-guard/internal/domain/model"
	"telegram-group-guard/internal/infra/i18n"
	"telegram-group-guard/internal/usecase"
)

// BotFacade composes usecases into the high-level operations the Telegram
// adapter invokes. Methods return ready-to-send strings so the adapter just
// forwards them to the chat.
type BotFacade struct {
	ModerationUC usecase.ModerationUseCase
	GroupUC      usecase.GroupUseCase
	SettingsUC   usecase.SettingsUseCase
	BroadcastUC  usecase.BroadcastUseCase
	StatsUC      usecase.StatsUseCase

	tr           *i18n.Translator
	superAdminID int64
}

func NewBotFacade(
	moderationUC usecase.ModerationUseCase,
	groupUC usecase.GroupUseCase,
	settingsUC usecase.SettingsUseCase,
	broadcastUC usecase.BroadcastUseCase,
	statsUC usecase.StatsUseCase,
	tr *i18n.Translator,
	superAdminID int64,
) *BotFacade {
	return &BotFacade{
		ModerationUC: moderationUC,
		GroupUC:      groupUC,
		SettingsUC:   settingsUC,
		BroadcastUC:  broadcastUC,
		StatsUC:      statsUC,
		tr:           tr,
		superAdminID: superAdminID,
	}
}

// IsSuperAdmin gates the admin panel and broadcast flows.
func (b *BotFacade) IsSuperAdmin(userID int64) bool {
	return userID != 0 && userID == b.superAdminID
}

// HandleGroupMessage evaluates one inbound group message and returns the
// verdict plus the localized warning to post when the verdict is a deletion.
func (b *BotFacade) HandleGroupMessage(ctx context.Context, msg *model.Message) (model.Verdict, string, error) {
	settings, err := b.SettingsUC.Get(ctx, msg.ChatID)
	if err != nil {
		return model.Keep(), "", fmt.Errorf("load settings: %w", err)
	}
	v := b.ModerationUC.Evaluate(ctx, msg, settings)
	if !v.Delete {
		return v, "", nil
	}

	warnKey := "warn.deleted"
	if msg.Edited {
		warnKey = "warn.edited"
	}
	warning := b.tr.T(warnKey, msg.From.DisplayName(), b.tr.T(v.Reason))
	return v, warning, nil
}

// HandleMembersJoined records new members and reports whether the join
// service message should be removed.
func (b *BotFacade) HandleMembersJoined(ctx context.Context, groupID int64, joined []model.Sender) (bool, error) {
	for _, s := range joined {
		if err := b.GroupUC.HandleMemberJoined(ctx, groupID, s); err != nil {
			return false, err
		}
	}
	settings, err := b.SettingsUC.Get(ctx, groupID)
	if err != nil {
		return false, err
	}
	return settings.DeleteJoinLeave, nil
}

// HandleMemberLeft drops the member's record and reports whether the leave
// service message should be removed.
func (b *BotFacade) HandleMemberLeft(ctx context.Context, groupID int64, left model.Sender) (bool, error) {
	if err := b.GroupUC.HandleMemberLeft(ctx, groupID, left); err != nil {
		return false, err
	}
	settings, err := b.SettingsUC.Get(ctx, groupID)
	if err != nil {
		return false, err
	}
	return settings.DeleteJoinLeave, nil
}

// HandleBotAdded registers the group and returns the welcome text to post.
func (b *BotFacade) HandleBotAdded(ctx context.Context, groupID int64, title, username string) (string, error) {
	if _, err := b.GroupUC.RegisterGroup(ctx, groupID, title, username); err != nil {
		return "", fmt.Errorf("register group: %w", err)
	}
	return b.tr.Welcome(), nil
}

// HandleBotRemoved deactivates the group; its records stay for a re-add.
func (b *BotFacade) HandleBotRemoved(ctx context.Context, groupID int64) error {
	return b.GroupUC.DeactivateGroup(ctx, groupID)
}

// HandleStart greets a private-chat user.
func (b *BotFacade) HandleStart(ctx context.Context, name string) string {
	return b.tr.T("start.greeting", name)
}

// AdminPanelText is the admin menu header.
func (b *BotFacade) AdminPanelText() string {
	return b.tr.T("admin.panel")
}

func (b *BotFacade) AdminDeniedText() string {
	return b.tr.T("admin.denied")
}

// GroupsText renders the managed-groups listing for the admin panel.
func (b *BotFacade) GroupsText(ctx context.Context) (string, error) {
	groups, err := b.GroupUC.ListGroups(ctx)
	if err != nil {
		return "", fmt.Errorf("list groups: %w", err)
	}
	if len(groups) == 0 {
		return b.tr.T("admin.no_groups"), nil
	}
	var sb strings.Builder
	sb.WriteString(b.tr.T("admin.groups"))
	sb.WriteByte('\n')
	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("- %s (%d)\n", g.Title, g.ID))
	}
	return sb.String(), nil
}

// StatsText renders the bot-wide summary line.
func (b *BotFacade) StatsText(ctx context.Context) (string, error) {
	stats, err := b.StatsUC.Global(ctx)
	if err != nil {
		return "", fmt.Errorf("global stats: %w", err)
	}
	return b.tr.T("admin.stats", stats.ActiveGroups, stats.TotalMembers, stats.VerifiedMembers), nil
}

// BroadcastPrompt asks the admin for the broadcast text.
func (b *BotFacade) BroadcastPrompt() string {
	return b.tr.T("broadcast.prompt")
}

// BroadcastPrepare stages a draft and returns the confirmation question.
func (b *BotFacade) BroadcastPrepare(ctx context.Context, adminID int64, text string) (string, error) {
	if _, err := b.BroadcastUC.Prepare(ctx, adminID, text); err != nil {
		if errors.Is(err, domain.ErrBroadcastPending) {
			return b.tr.T("broadcast.pending"), nil
		}
		return "", fmt.Errorf("prepare broadcast: %w", err)
	}
	groups, err := b.GroupUC.ListGroups(ctx)
	if err != nil {
		return "", fmt.Errorf("list groups: %w", err)
	}
	return b.tr.T("broadcast.confirm", len(groups)), nil
}

// HasPendingBroadcast reports whether the admin has a staged draft, so the
// adapter can route their next plain message into the broadcast flow.
func (b *BotFacade) HasPendingBroadcast(ctx context.Context, adminID int64) bool {
	p, err := b.BroadcastUC.Pending(ctx, adminID)
	return err == nil && p != nil
}

// BroadcastConfirm queues delivery and returns the queued notice.
func (b *BotFacade) BroadcastConfirm(ctx context.Context, adminID int64) (string, error) {
	_, n, err := b.BroadcastUC.Confirm(ctx, adminID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return b.tr.T("broadcast.cancelled"), nil
		}
		return "", fmt.Errorf("confirm broadcast: %w", err)
	}
	return b.tr.T("broadcast.queued", n), nil
}

// BroadcastCancel discards the draft.
func (b *BotFacade) BroadcastCancel(ctx context.Context, adminID int64) (string, error) {
	if err := b.BroadcastUC.Cancel(ctx, adminID); err != nil {
		return "", fmt.Errorf("cancel broadcast: %w", err)
	}
	return b.tr.T("broadcast.cancelled"), nil
}

// ToggleSetting flips one per-group toggle from the admin panel.
func (b *BotFacade) ToggleSetting(ctx context.Context, groupID int64, setting string) (string, error) {
	if _, err := b.SettingsUC.Toggle(ctx, groupID, setting); err != nil {
		return "", fmt.Errorf("toggle setting: %w", err)
	}
	return b.tr.T("settings.updated"), nil
}

// RateLimitedText is sent when a user exceeds the command rate limit.
func (b *BotFacade) RateLimitedText() string {
	return b.tr.T("rate.limited")
}

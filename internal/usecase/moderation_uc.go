package usecase

import (
	"context"

	"telegram-group-guard/internal/domain/model"
	"telegram-group-guard/internal/domain/ports/adapter"
	"telegram-group-guard/internal/infra/logging"
	"telegram-group-guard/internal/infra/metrics"
	"telegram-group-guard/internal/textscan"

	"github.com/rs/zerolog"
)

var _ ModerationUseCase = (*moderationUC)(nil)

// ModerationUseCase is the per-message decision engine. Checks run in a
// fixed order (links, unverified mentions, advertisements) and the first
// positive match wins; later checks are not consulted. Administrators are
// exempt from content filtering.
type ModerationUseCase interface {
	Evaluate(ctx context.Context, msg *model.Message, settings *model.GroupSettings) model.Verdict
}

type moderationUC struct {
	verifier MembershipUseCase
	chat     adapter.ChatClient
	log      *zerolog.Logger
}

func NewModerationUseCase(verifier MembershipUseCase, chat adapter.ChatClient, logger *zerolog.Logger) *moderationUC {
	return &moderationUC{verifier: verifier, chat: chat, log: logger}
}

func (u *moderationUC) Evaluate(ctx context.Context, msg *model.Message, settings *model.GroupSettings) model.Verdict {
	defer logging.TraceDuration(u.log, "ModerationUC.Evaluate")()
	metrics.IncEvaluated()

	if u.isAdmin(ctx, msg) {
		u.recordSender(ctx, msg)
		return model.Keep()
	}

	// Seeing a message is itself proof of membership, whatever the verdict.
	u.recordSender(ctx, msg)

	if settings.DeleteLinks && textscan.HasLink(msg) {
		return model.Verdict{Delete: true, Reason: model.ReasonLink}
	}

	if content := msg.Content(); content != "" {
		if bad := u.unverifiedMentions(ctx, msg); len(bad) > 0 {
			return model.Verdict{Delete: true, Reason: model.ReasonMention, Handles: bad}
		}
		if settings.DeleteAds && textscan.IsAdvertisement(content) {
			return model.Verdict{Delete: true, Reason: model.ReasonAd}
		}
	}

	return model.Keep()
}

// isAdmin is best-effort: a failed status probe does not grant exemption.
func (u *moderationUC) isAdmin(ctx context.Context, msg *model.Message) bool {
	if msg.From.TelegramID == 0 {
		return false
	}
	cm, err := u.chat.GetChatMember(ctx, msg.ChatID, msg.From.TelegramID)
	if err != nil {
		u.log.Debug().Err(err).Int64("user_id", msg.From.TelegramID).Msg("admin status probe failed")
		return false
	}
	return cm.Status.Admin()
}

func (u *moderationUC) recordSender(ctx context.Context, msg *model.Message) {
	identity := model.NumericIdentity(msg.From.TelegramID)
	if msg.From.TelegramID == 0 {
		if msg.From.Handle == "" {
			return
		}
		identity = model.HandleOnlyIdentity(msg.From.Handle)
	}
	m, err := model.NewGroupMember(msg.ChatID, identity, msg.From.Handle, msg.From.FirstName, msg.From.LastName, true)
	if err != nil {
		u.log.Error().Err(err).Msg("build sender record")
		return
	}
	if err := u.verifier.RecordVerified(ctx, m); err != nil {
		u.log.Warn().Err(err).Int64("chat_id", msg.ChatID).Msg("record sender failed")
	}
}

func (u *moderationUC) unverifiedMentions(ctx context.Context, msg *model.Message) []string {
	mentions := textscan.ExtractMentions(msg)
	if len(mentions) == 0 {
		return nil
	}
	var bad []string
	for _, h := range mentions {
		if !u.verifier.IsVerifiedMember(ctx, msg.ChatID, h) {
			bad = append(bad, h)
		}
	}
	return bad
}

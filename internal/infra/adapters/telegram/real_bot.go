package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-group-guard/internal/application"
	"telegram-group-guard/internal/config"
	"telegram-group-guard/internal/domain"
	"telegram-group-guard/internal/domain/model"
	"telegram-group-guard/internal/domain/ports/adapter"
	"telegram-group-guard/internal/infra/logging"
	"telegram-group-guard/internal/infra/metrics"
	red "telegram-group-guard/internal/infra/redis"
)

var _ adapter.BotAdapter = (*RealBotAdapter)(nil)

// RealBotAdapter polls updates via tgbotapi and delegates to BotFacade. It
// also implements the ChatClient port the usecases depend on; the facade is
// attached after the usecases are wired to break the construction cycle.
type RealBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	modCfg      *config.ModerationConfig
	facade      *application.BotFacade
	rateLimiter *red.RateLimiter
	log         *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealBotAdapter(cfg *config.BotConfig, modCfg *config.ModerationConfig, rateLimiter *red.RateLimiter, logger *zerolog.Logger) (*RealBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	return &RealBotAdapter{
		bot:           bot,
		cfg:           cfg,
		modCfg:        modCfg,
		rateLimiter:   rateLimiter,
		log:           logger,
		updateWorkers: workers,
	}, nil
}

// AttachFacade wires the application layer in. The adapter is constructed
// first because the usecases need its ChatClient surface.
func (r *RealBotAdapter) AttachFacade(f *application.BotFacade) { r.facade = f }

func (r *RealBotAdapter) StartPolling(ctx context.Context) error {
	if r.facade == nil {
		return errors.New("facade not attached")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					upCtx := logging.WithTraceID(ctx, uuid.NewString())
					if err := r.handleUpdate(upCtx, up); err != nil {
						logging.With(upCtx, r.log).Error().Err(err).Int("worker", id).Msg("update failed")
					}
				}
			}
		}(i)
	}

	r.log.Info().Str("bot", r.bot.Self.UserName).Int("workers", r.updateWorkers).Msg("polling started")

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// ---- ChatClient port ----

func (r *RealBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	sent, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (r *RealBotAdapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := r.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (r *RealBotAdapter) GetChatMember(ctx context.Context, chatID, userID int64) (*adapter.ChatMember, error) {
	cm, err := r.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return toChatMember(cm), nil
}

// ResolveMemberByHandle resolves @handle to a user through the chat lookup
// API, then checks membership. A handle that resolves to a non-user chat
// (channel, group) is as much "no such member" as an unknown handle.
func (r *RealBotAdapter) ResolveMemberByHandle(ctx context.Context, chatID int64, handle string) (*adapter.ChatMember, error) {
	chat, err := r.bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{SuperGroupUsername: "@" + strings.TrimPrefix(handle, "@")},
	})
	if err != nil {
		return nil, translateErr(err)
	}
	if !chat.IsPrivate() {
		return nil, domain.ErrUserNotFound
	}
	return r.GetChatMember(ctx, chatID, chat.ID)
}

func (r *RealBotAdapter) GetChatAdministrators(ctx context.Context, chatID int64) ([]adapter.ChatMember, error) {
	admins, err := r.bot.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return nil, translateErr(err)
	}
	out := make([]adapter.ChatMember, 0, len(admins))
	for i := range admins {
		out = append(out, *toChatMember(admins[i]))
	}
	return out, nil
}

func (r *RealBotAdapter) GetChatMemberCount(ctx context.Context, chatID int64) (int, error) {
	n, err := r.bot.GetChatMembersCount(tgbotapi.ChatMemberCountConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return 0, translateErr(err)
	}
	return n, nil
}

func (r *RealBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, btns)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	_, err := r.bot.Send(msg)
	return err
}

// ---- update routing ----

func (r *RealBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}

	msg := update.Message
	edited := false
	if msg == nil {
		msg = update.EditedMessage
		edited = true
	}
	if msg == nil || msg.From == nil {
		return nil
	}

	ctx = logging.WithChatID(ctx, msg.Chat.ID)
	ctx = logging.WithUserID(ctx, msg.From.ID)

	if msg.Chat.IsGroup() || msg.Chat.IsSuperGroup() {
		return r.handleGroupMessage(ctx, msg, edited)
	}
	if msg.Chat.IsPrivate() && !edited {
		return r.handlePrivateMessage(ctx, msg)
	}
	return nil
}

func (r *RealBotAdapter) handleGroupMessage(ctx context.Context, msg *tgbotapi.Message, edited bool) error {
	// Service messages first: bot lifecycle, then member bookkeeping.
	if len(msg.NewChatMembers) > 0 {
		return r.handleJoin(ctx, msg)
	}
	if msg.LeftChatMember != nil {
		return r.handleLeave(ctx, msg)
	}

	dm := toDomainMessage(msg, edited)
	verdict, warning, err := r.facade.HandleGroupMessage(ctx, dm)
	if err != nil {
		return err
	}
	if !verdict.Delete {
		return nil
	}

	if err := r.DeleteMessage(ctx, dm.ChatID, dm.MessageID); err != nil {
		metrics.IncDeletionFailure()
		logging.With(ctx, r.log).Warn().Err(err).Msg("message delete rejected")
		return nil
	}
	metrics.IncDeleted(verdict.Reason)
	logging.With(ctx, r.log).Info().
		Str("reason", verdict.Reason).
		Strs("handles", verdict.Handles).
		Bool("edited", edited).
		Msg("message deleted")

	warnID, err := r.SendMessage(ctx, dm.ChatID, warning)
	if err != nil {
		return err
	}
	r.deleteLater(dm.ChatID, warnID)
	return nil
}

// deleteLater removes a warning after the configured TTL so the chat does not
// fill up with bot notices.
func (r *RealBotAdapter) deleteLater(chatID int64, messageID int) {
	ttl := 5 * time.Second
	if r.modCfg != nil && r.modCfg.WarningTTL > 0 {
		ttl = r.modCfg.WarningTTL
	}
	time.AfterFunc(ttl, func() {
		if err := r.DeleteMessage(context.Background(), chatID, messageID); err != nil {
			r.log.Debug().Err(err).Int64("chat_id", chatID).Msg("warning cleanup failed")
		}
	})
}

func (r *RealBotAdapter) handleJoin(ctx context.Context, msg *tgbotapi.Message) error {
	joined := make([]model.Sender, 0, len(msg.NewChatMembers))
	for _, u := range msg.NewChatMembers {
		if u.ID == r.bot.Self.ID {
			welcome, err := r.facade.HandleBotAdded(ctx, msg.Chat.ID, msg.Chat.Title, msg.Chat.UserName)
			if err != nil {
				return err
			}
			_, err = r.SendMessage(ctx, msg.Chat.ID, welcome)
			return err
		}
		joined = append(joined, toSender(&u))
	}
	if len(joined) == 0 {
		return nil
	}

	remove, err := r.facade.HandleMembersJoined(ctx, msg.Chat.ID, joined)
	if err != nil {
		return err
	}
	if remove {
		if err := r.DeleteMessage(ctx, msg.Chat.ID, msg.MessageID); err != nil {
			metrics.IncDeletionFailure()
			logging.With(ctx, r.log).Debug().Err(err).Msg("join notice delete rejected")
			return nil
		}
		metrics.IncJoinLeaveDeleted()
	}
	return nil
}

func (r *RealBotAdapter) handleLeave(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.LeftChatMember.ID == r.bot.Self.ID {
		return r.facade.HandleBotRemoved(ctx, msg.Chat.ID)
	}

	remove, err := r.facade.HandleMemberLeft(ctx, msg.Chat.ID, toSender(msg.LeftChatMember))
	if err != nil {
		return err
	}
	if remove {
		if err := r.DeleteMessage(ctx, msg.Chat.ID, msg.MessageID); err != nil {
			metrics.IncDeletionFailure()
			logging.With(ctx, r.log).Debug().Err(err).Msg("leave notice delete rejected")
			return nil
		}
		metrics.IncJoinLeaveDeleted()
	}
	return nil
}

func (r *RealBotAdapter) handlePrivateMessage(ctx context.Context, msg *tgbotapi.Message) error {
	userID := msg.From.ID

	command := "message"
	if msg.IsCommand() {
		command = "/" + msg.Command()
	}
	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(userID, command), 20, time.Minute)
		if err != nil {
			logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			_, err := r.SendMessage(ctx, userID, r.facade.RateLimitedText())
			return err
		}
	}

	switch command {
	case "/start":
		name := msg.From.FirstName
		if name == "" {
			name = msg.From.UserName
		}
		_, err := r.SendMessage(ctx, userID, r.facade.HandleStart(ctx, name))
		return err

	case "/admin":
		if !r.facade.IsSuperAdmin(userID) {
			_, err := r.SendMessage(ctx, userID, r.facade.AdminDeniedText())
			return err
		}
		return r.sendAdminMenu(ctx, userID)

	case "message":
		// A plain private message from the operator is a broadcast draft;
		// anyone else gets pointed at /start.
		if !r.facade.IsSuperAdmin(userID) {
			_, err := r.SendMessage(ctx, userID, r.facade.HandleStart(ctx, msg.From.FirstName))
			return err
		}
		return r.stageBroadcast(ctx, userID, msg.Text)
	}
	return nil
}

func (r *RealBotAdapter) stageBroadcast(ctx context.Context, adminID int64, text string) error {
	if strings.TrimSpace(text) == "" {
		_, err := r.SendMessage(ctx, adminID, r.facade.BroadcastPrompt())
		return err
	}
	confirm, err := r.facade.BroadcastPrepare(ctx, adminID, text)
	if err != nil {
		return err
	}
	rows := [][]adapter.InlineButton{
		{
			{Text: "✅ Confirm", Data: "bc:confirm"},
			{Text: "❌ Cancel", Data: "bc:cancel"},
		},
	}
	return r.SendButtons(ctx, adminID, confirm, rows)
}

func (r *RealBotAdapter) sendAdminMenu(ctx context.Context, adminID int64) error {
	rows := [][]adapter.InlineButton{
		{{Text: "📋 Groups", Data: "admin:groups"}, {Text: "📊 Stats", Data: "admin:stats"}},
		{{Text: "📤 Broadcast", Data: "admin:broadcast"}},
	}
	return r.SendButtons(ctx, adminID, r.facade.AdminPanelText(), rows)
}

// sendGroupsMenu lists managed groups with per-group settings shortcuts.
func (r *RealBotAdapter) sendGroupsMenu(ctx context.Context, adminID int64) error {
	text, err := r.facade.GroupsText(ctx)
	if err != nil {
		return err
	}
	groups, err := r.facade.GroupUC.ListGroups(ctx)
	if err != nil {
		return err
	}
	rows := make([][]adapter.InlineButton, 0, len(groups)+1)
	for _, g := range groups {
		rows = append(rows, []adapter.InlineButton{
			{Text: g.Title + " · links", Data: "set:" + strconv.FormatInt(g.ID, 10) + ":links"},
			{Text: "ads", Data: "set:" + strconv.FormatInt(g.ID, 10) + ":ads"},
			{Text: "join/leave", Data: "set:" + strconv.FormatInt(g.ID, 10) + ":join_leave"},
		})
	}
	rows = append(rows, []adapter.InlineButton{{Text: "◀️ Menu", Data: "admin:menu"}})
	return r.SendButtons(ctx, adminID, text, rows)
}

type cbHandler func(ctx context.Context, chatID int64, data string) error

// Exact-match callbacks
func (r *RealBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"admin:menu": func(ctx context.Context, id int64, _ string) error {
			return r.sendAdminMenu(ctx, id)
		},
		"admin:groups": func(ctx context.Context, id int64, _ string) error {
			return r.sendGroupsMenu(ctx, id)
		},
		"admin:stats": func(ctx context.Context, id int64, _ string) error {
			text, err := r.facade.StatsText(ctx)
			if err != nil {
				return err
			}
			_, err = r.SendMessage(ctx, id, text)
			return err
		},
		"admin:broadcast": func(ctx context.Context, id int64, _ string) error {
			_, err := r.SendMessage(ctx, id, r.facade.BroadcastPrompt())
			return err
		},
		"bc:confirm": func(ctx context.Context, id int64, _ string) error {
			text, err := r.facade.BroadcastConfirm(ctx, id)
			if err != nil {
				return err
			}
			_, err = r.SendMessage(ctx, id, text)
			return err
		},
		"bc:cancel": func(ctx context.Context, id int64, _ string) error {
			text, err := r.facade.BroadcastCancel(ctx, id)
			if err != nil {
				return err
			}
			_, err = r.SendMessage(ctx, id, text)
			return err
		},
	}
}

// Prefix-match callbacks
func (r *RealBotAdapter) cbPrefixRoutes() []struct {
	Prefix string
	Fn     cbHandler
} {
	return []struct {
		Prefix string
		Fn     cbHandler
	}{
		{
			Prefix: "set:",
			Fn: func(ctx context.Context, id int64, data string) error {
				parts := strings.SplitN(strings.TrimPrefix(data, "set:"), ":", 2)
				if len(parts) != 2 {
					return nil
				}
				groupID, err := strconv.ParseInt(parts[0], 10, 64)
				if err != nil {
					return nil
				}
				text, err := r.facade.ToggleSetting(ctx, groupID, parts[1])
				if err != nil {
					return err
				}
				_, err = r.SendMessage(ctx, id, text)
				return err
			},
		},
	}
}

func (r *RealBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	defer func() {
		if _, err := r.bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			r.log.Debug().Err(err).Msg("callback ack failed")
		}
	}()

	if query.From == nil || !r.facade.IsSuperAdmin(query.From.ID) {
		return nil
	}
	chatID := query.From.ID
	data := query.Data

	if fn, ok := r.cbRoutes()[data]; ok {
		return fn(ctx, chatID, data)
	}
	for _, route := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, route.Prefix) {
			return route.Fn(ctx, chatID, data)
		}
	}
	return nil
}

// ---- mapping helpers ----

func toSender(u *tgbotapi.User) model.Sender {
	return model.Sender{
		TelegramID: u.ID,
		Handle:     u.UserName,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}

func toChatMember(cm tgbotapi.ChatMember) *adapter.ChatMember {
	out := &adapter.ChatMember{Status: adapter.MemberStatus(cm.Status)}
	if cm.User != nil {
		out.User = toSender(cm.User)
	}
	return out
}

func toDomainMessage(msg *tgbotapi.Message, edited bool) *model.Message {
	return &model.Message{
		ChatID:          msg.Chat.ID,
		MessageID:       msg.MessageID,
		From:            toSender(msg.From),
		Text:            msg.Text,
		Caption:         msg.Caption,
		Entities:        toEntities(msg.Entities),
		CaptionEntities: toEntities(msg.CaptionEntities),
		Edited:          edited,
	}
}

func toEntities(es []tgbotapi.MessageEntity) []model.MessageEntity {
	if len(es) == 0 {
		return nil
	}
	out := make([]model.MessageEntity, 0, len(es))
	for _, e := range es {
		switch e.Type {
		case "mention", "url", "text_link":
			out = append(out, model.MessageEntity{
				Type:   model.EntityType(e.Type),
				Offset: e.Offset,
				Length: e.Length,
				URL:    e.URL,
			})
		}
	}
	return out
}

// translateErr maps the platform's "not found"-style errors onto the domain
// sentinel so the verifier can treat them as authoritative.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not found") || strings.Contains(msg, "user_id_invalid") {
		return domain.ErrUserNotFound
	}
	return err
}

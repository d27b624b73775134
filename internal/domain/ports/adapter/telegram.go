// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"telegram-group-guard/internal/domain/model"
)

// MemberStatus is the platform's view of a user's standing in a chat.
type MemberStatus string

const (
	StatusCreator       MemberStatus = "creator"
	StatusAdministrator MemberStatus = "administrator"
	StatusMember        MemberStatus = "member"
	StatusRestricted    MemberStatus = "restricted"
	StatusLeft          MemberStatus = "left"
	StatusKicked        MemberStatus = "kicked"
)

// Present reports whether the status still counts as group membership.
func (s MemberStatus) Present() bool {
	return s != StatusLeft && s != StatusKicked
}

// Admin reports whether the status carries administrator rights.
func (s MemberStatus) Admin() bool {
	return s == StatusCreator || s == StatusAdministrator
}

// ChatMember is a platform member object, decoupled from the wire library.
type ChatMember struct {
	User   model.Sender
	Status MemberStatus
}

// ChatClient is the capability surface the moderation core needs from the
// messaging platform. Implementations translate the platform's
// "not found"-style Bad Request responses into domain.ErrUserNotFound so the
// verifier can distinguish an authoritative negative from a transport error.
type ChatClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) (messageID int, err error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	GetChatMember(ctx context.Context, chatID, userID int64) (*ChatMember, error)
	// ResolveMemberByHandle resolves a public @handle to a member of the
	// chat, when the platform can do so.
	ResolveMemberByHandle(ctx context.Context, chatID int64, handle string) (*ChatMember, error)
	GetChatAdministrators(ctx context.Context, chatID int64) ([]ChatMember, error)
	GetChatMemberCount(ctx context.Context, chatID int64) (int, error)
}

// InlineButton is one button of an inline keyboard.
type InlineButton struct {
	Text string
	Data string
	URL  string
}

// BotAdapter extends ChatClient with the interactive surface used by the
// admin flows.
type BotAdapter interface {
	ChatClient
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
}

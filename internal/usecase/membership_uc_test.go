package usecase

import (
	"context"
	"errors"
	"testing"

	"telegram-group-guard/internal/domain"
	"telegram-group-guard/internal/domain/model"
	"telegram-group-guard/internal/domain/ports/adapter"
)

func TestMembershipUC_StoreHitShortCircuits(t *testing.T) {
	members := newMockMemberRepo()
	chat := &mockChatClient{}
	lookedUp := false
	chat.ResolveMemberByHandleFunc = func(ctx context.Context, chatID int64, handle string) (*adapter.ChatMember, error) {
		lookedUp = true
		return nil, domain.ErrUserNotFound
	}

	m, _ := model.NewGroupMember(-100, model.NumericIdentity(42), "known_user", "K", "", true)
	_ = members.Upsert(context.Background(), nil, m)

	uc := NewMembershipUseCase(members, chat, 0, testLogger())
	if !uc.IsVerifiedMember(context.Background(), -100, "@Known_User") {
		t.Fatal("expected stored verified handle to pass")
	}
	if lookedUp {
		t.Error("store hit must not reach the platform")
	}
}

func TestMembershipUC_AuthoritativeNegative(t *testing.T) {
	members := newMockMemberRepo()
	scanned := false
	chat := &mockChatClient{
		ResolveMemberByHandleFunc: func(ctx context.Context, chatID int64, handle string) (*adapter.ChatMember, error) {
			return nil, domain.ErrUserNotFound
		},
		GetChatAdministratorsFunc: func(ctx context.Context, chatID int64) ([]adapter.ChatMember, error) {
			scanned = true
			return nil, nil
		},
	}

	uc := NewMembershipUseCase(members, chat, 0, testLogger())
	if uc.IsVerifiedMember(context.Background(), -100, "ghost_handle") {
		t.Fatal("platform 'not found' must deny")
	}
	if scanned {
		t.Error("authoritative negative must not fall through to the roster scan")
	}
}

func TestMembershipUC_LookupSuccessPersists(t *testing.T) {
	members := newMockMemberRepo()
	chat := &mockChatClient{
		ResolveMemberByHandleFunc: func(ctx context.Context, chatID int64, handle string) (*adapter.ChatMember, error) {
			return &adapter.ChatMember{
				User:   model.Sender{TelegramID: 777, Handle: "found_user", FirstName: "F"},
				Status: adapter.StatusMember,
			}, nil
		},
	}

	uc := NewMembershipUseCase(members, chat, 0, testLogger())
	if !uc.IsVerifiedMember(context.Background(), -100, "found_user") {
		t.Fatal("present member must verify")
	}
	rec := members.get(-100, model.NumericIdentity(777))
	if rec == nil || !rec.Verified {
		t.Fatal("lookup success must persist a verified record")
	}
}

func TestMembershipUC_LookupLeftDenies(t *testing.T) {
	members := newMockMemberRepo()
	chat := &mockChatClient{
		ResolveMemberByHandleFunc: func(ctx context.Context, chatID int64, handle string) (*adapter.ChatMember, error) {
			return &adapter.ChatMember{
				User:   model.Sender{TelegramID: 777, Handle: "gone_user"},
				Status: adapter.StatusLeft,
			}, nil
		},
	}

	uc := NewMembershipUseCase(members, chat, 0, testLogger())
	if uc.IsVerifiedMember(context.Background(), -100, "gone_user") {
		t.Fatal("a member who left must not verify")
	}
}

func TestMembershipUC_AdminScanMatch(t *testing.T) {
	members := newMockMemberRepo()
	chat := &mockChatClient{
		ResolveMemberByHandleFunc: func(ctx context.Context, chatID int64, handle string) (*adapter.ChatMember, error) {
			return nil, errors.New("timeout")
		},
		GetChatAdministratorsFunc: func(ctx context.Context, chatID int64) ([]adapter.ChatMember, error) {
			return []adapter.ChatMember{
				{User: model.Sender{TelegramID: 1, Handle: "Group_Owner"}, Status: adapter.StatusCreator},
			}, nil
		},
	}

	uc := NewMembershipUseCase(members, chat, 0, testLogger())
	if !uc.IsVerifiedMember(context.Background(), -100, "group_owner") {
		t.Fatal("roster match must verify")
	}
	if rec := members.get(-100, model.NumericIdentity(1)); rec == nil {
		t.Fatal("roster match must persist a record")
	}
}

func TestMembershipUC_SizeHeuristic(t *testing.T) {
	inconclusive := func(chat *mockChatClient) {
		chat.ResolveMemberByHandleFunc = func(ctx context.Context, chatID int64, handle string) (*adapter.ChatMember, error) {
			return nil, errors.New("timeout")
		}
		chat.GetChatAdministratorsFunc = func(ctx context.Context, chatID int64) ([]adapter.ChatMember, error) {
			return nil, errors.New("timeout")
		}
	}

	t.Run("small group denies", func(t *testing.T) {
		chat := &mockChatClient{}
		inconclusive(chat)
		chat.GetChatMemberCountFunc = func(ctx context.Context, chatID int64) (int, error) { return 50, nil }

		uc := NewMembershipUseCase(newMockMemberRepo(), chat, 0, testLogger())
		if uc.IsVerifiedMember(context.Background(), -100, "some_person") {
			t.Fatal("inconclusive lookup in a small group must deny")
		}
	})

	t.Run("large group allows clean handle without persisting", func(t *testing.T) {
		members := newMockMemberRepo()
		chat := &mockChatClient{}
		inconclusive(chat)
		chat.GetChatMemberCountFunc = func(ctx context.Context, chatID int64) (int, error) { return 500, nil }

		uc := NewMembershipUseCase(members, chat, 0, testLogger())
		if !uc.IsVerifiedMember(context.Background(), -100, "some_person") {
			t.Fatal("large group must allow a clean handle")
		}
		if rec := members.get(-100, model.HandleOnlyIdentity("some_person")); rec != nil {
			t.Error("heuristic allow must not persist a record")
		}
	})

	t.Run("large group denies suspicious handle", func(t *testing.T) {
		chat := &mockChatClient{}
		inconclusive(chat)
		chat.GetChatMemberCountFunc = func(ctx context.Context, chatID int64) (int, error) { return 500, nil }

		uc := NewMembershipUseCase(newMockMemberRepo(), chat, 0, testLogger())
		if uc.IsVerifiedMember(context.Background(), -100, "group_admin99") {
			t.Fatal("suspicious handle must deny in the heuristic tier")
		}
	})

	t.Run("count failure allows conservatively", func(t *testing.T) {
		chat := &mockChatClient{}
		inconclusive(chat)
		chat.GetChatMemberCountFunc = func(ctx context.Context, chatID int64) (int, error) {
			return 0, errors.New("timeout")
		}

		uc := NewMembershipUseCase(newMockMemberRepo(), chat, 0, testLogger())
		if !uc.IsVerifiedMember(context.Background(), -100, "some_person") {
			t.Fatal("total verification failure must allow, not censor")
		}
	})
}

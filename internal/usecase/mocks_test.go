package usecase

import (
	"context"
	"sync"
	"time"

	"telegram-group-guard/internal/domain"
	"telegram-group-guard/internal/domain/model"
	"telegram-group-guard/internal/domain/ports/adapter"
	"telegram-group-guard/internal/domain/ports/repository"
	red "telegram-group-guard/internal/infra/redis"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- repositories ---

type mockMemberRepo struct {
	mu      sync.Mutex
	records map[int64]map[int64]*model.GroupMember // groupID -> storage key

	UpsertFunc           func(ctx context.Context, tx repository.Tx, m *model.GroupMember) error
	IsVerifiedHandleFunc func(ctx context.Context, tx repository.Tx, groupID int64, handle string) (bool, error)
	PurgeUnverifiedFunc  func(ctx context.Context, tx repository.Tx, groupID int64, olderThan time.Time) (int, error)
}

func newMockMemberRepo() *mockMemberRepo {
	return &mockMemberRepo{records: make(map[int64]map[int64]*model.GroupMember)}
}

func (m *mockMemberRepo) Upsert(ctx context.Context, tx repository.Tx, rec *model.GroupMember) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[rec.GroupID] == nil {
		m.records[rec.GroupID] = make(map[int64]*model.GroupMember)
	}
	cp := *rec
	m.records[rec.GroupID][rec.Identity.StorageKey()] = &cp
	return nil
}

func (m *mockMemberRepo) FindVerifiedByHandle(ctx context.Context, tx repository.Tx, groupID int64, handle string) (*model.GroupMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records[groupID] {
		if rec.Verified && rec.Handle == handle {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockMemberRepo) IsVerifiedHandle(ctx context.Context, tx repository.Tx, groupID int64, handle string) (bool, error) {
	if m.IsVerifiedHandleFunc != nil {
		return m.IsVerifiedHandleFunc(ctx, tx, groupID, handle)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records[groupID] {
		if rec.Verified && rec.Handle == handle {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockMemberRepo) Remove(ctx context.Context, tx repository.Tx, groupID int64, identity model.MemberIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records[groupID], identity.StorageKey())
	return nil
}

func (m *mockMemberRepo) CountMembers(ctx context.Context, tx repository.Tx, groupID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[groupID]), nil
}

func (m *mockMemberRepo) CountVerified(ctx context.Context, tx repository.Tx, groupID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rec := range m.records[groupID] {
		if rec.Verified {
			n++
		}
	}
	return n, nil
}

func (m *mockMemberRepo) ListRecent(ctx context.Context, tx repository.Tx, groupID int64, since time.Time, limit int) ([]*model.GroupMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.GroupMember
	for _, rec := range m.records[groupID] {
		if rec.UpdatedAt.After(since) && len(out) < limit {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockMemberRepo) PurgeUnverified(ctx context.Context, tx repository.Tx, groupID int64, olderThan time.Time) (int, error) {
	if m.PurgeUnverifiedFunc != nil {
		return m.PurgeUnverifiedFunc(ctx, tx, groupID, olderThan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, rec := range m.records[groupID] {
		if !rec.Verified && rec.UpdatedAt.Before(olderThan) {
			delete(m.records[groupID], key)
			n++
		}
	}
	return n, nil
}

// get returns the stored record for direct assertions.
func (m *mockMemberRepo) get(groupID int64, identity model.MemberIdentity) *model.GroupMember {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[groupID][identity.StorageKey()]
}

type mockGroupRepo struct {
	mu     sync.Mutex
	groups map[int64]*model.Group

	ListActiveFunc func(ctx context.Context, tx repository.Tx) ([]*model.Group, error)
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{groups: make(map[int64]*model.Group)}
}

func (m *mockGroupRepo) Save(ctx context.Context, tx repository.Tx, g *model.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.groups[g.ID] = &cp
	return nil
}

func (m *mockGroupRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *mockGroupRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Group, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Group
	for _, g := range m.groups {
		if g.Active {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockGroupRepo) Deactivate(ctx context.Context, tx repository.Tx, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.groups[id]; ok {
		g.Active = false
	}
	return nil
}

func (m *mockGroupRepo) Remove(ctx context.Context, tx repository.Tx, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.groups, id)
	return nil
}

func (m *mockGroupRepo) CountActive(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, g := range m.groups {
		if g.Active {
			n++
		}
	}
	return n, nil
}

type mockSettingsRepo struct {
	mu       sync.Mutex
	settings map[int64]*model.GroupSettings

	GetFunc  func(ctx context.Context, tx repository.Tx, groupID int64) (*model.GroupSettings, error)
	SaveFunc func(ctx context.Context, tx repository.Tx, s *model.GroupSettings) error
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{settings: make(map[int64]*model.GroupSettings)}
}

func (m *mockSettingsRepo) Get(ctx context.Context, tx repository.Tx, groupID int64) (*model.GroupSettings, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, tx, groupID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.settings[groupID]; ok {
		cp := *s
		return &cp, nil
	}
	return model.DefaultGroupSettings(groupID), nil
}

func (m *mockSettingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.GroupSettings) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.settings[s.GroupID] = &cp
	return nil
}

type mockTxManager struct{}

func (mockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// --- platform ---

type sentMessage struct {
	ChatID int64
	Text   string
}

type mockChatClient struct {
	mu   sync.Mutex
	sent []sentMessage

	SendMessageFunc           func(ctx context.Context, chatID int64, text string) (int, error)
	DeleteMessageFunc         func(ctx context.Context, chatID int64, messageID int) error
	GetChatMemberFunc         func(ctx context.Context, chatID, userID int64) (*adapter.ChatMember, error)
	ResolveMemberByHandleFunc func(ctx context.Context, chatID int64, handle string) (*adapter.ChatMember, error)
	GetChatAdministratorsFunc func(ctx context.Context, chatID int64) ([]adapter.ChatMember, error)
	GetChatMemberCountFunc    func(ctx context.Context, chatID int64) (int, error)
}

func (m *mockChatClient) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, chatID, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text})
	return len(m.sent), nil
}

func (m *mockChatClient) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, chatID, messageID)
	}
	return nil
}

func (m *mockChatClient) GetChatMember(ctx context.Context, chatID, userID int64) (*adapter.ChatMember, error) {
	if m.GetChatMemberFunc != nil {
		return m.GetChatMemberFunc(ctx, chatID, userID)
	}
	return &adapter.ChatMember{Status: adapter.StatusMember}, nil
}

func (m *mockChatClient) ResolveMemberByHandle(ctx context.Context, chatID int64, handle string) (*adapter.ChatMember, error) {
	if m.ResolveMemberByHandleFunc != nil {
		return m.ResolveMemberByHandleFunc(ctx, chatID, handle)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockChatClient) GetChatAdministrators(ctx context.Context, chatID int64) ([]adapter.ChatMember, error) {
	if m.GetChatAdministratorsFunc != nil {
		return m.GetChatAdministratorsFunc(ctx, chatID)
	}
	return nil, nil
}

func (m *mockChatClient) GetChatMemberCount(ctx context.Context, chatID int64) (int, error) {
	if m.GetChatMemberCountFunc != nil {
		return m.GetChatMemberCountFunc(ctx, chatID)
	}
	return 0, nil
}

func (m *mockChatClient) sentMessages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// --- redis-backed state ---

type mockSettingsCache struct {
	mu    sync.Mutex
	items map[int64]*model.GroupSettings

	GetFunc func(ctx context.Context, groupID int64) (*model.GroupSettings, error)
}

func newMockSettingsCache() *mockSettingsCache {
	return &mockSettingsCache{items: make(map[int64]*model.GroupSettings)}
}

func (m *mockSettingsCache) Get(ctx context.Context, groupID int64) (*model.GroupSettings, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, groupID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.items[groupID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *mockSettingsCache) Store(ctx context.Context, s *model.GroupSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.items[s.GroupID] = &cp
	return nil
}

func (m *mockSettingsCache) Invalidate(ctx context.Context, groupID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, groupID)
	return nil
}

type mockBroadcastState struct {
	mu    sync.Mutex
	items map[int64]*red.PendingBroadcast
}

func newMockBroadcastState() *mockBroadcastState {
	return &mockBroadcastState{items: make(map[int64]*red.PendingBroadcast)}
}

func (m *mockBroadcastState) Set(ctx context.Context, p *red.PendingBroadcast) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.items[p.AdminID] = &cp
	return nil
}

func (m *mockBroadcastState) Get(ctx context.Context, adminID int64) (*red.PendingBroadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.items[adminID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *mockBroadcastState) Clear(ctx context.Context, adminID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, adminID)
	return nil
}

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-group-guard/internal/domain"
	"telegram-group-guard/internal/domain/model"
	"telegram-group-guard/internal/infra/worker"
)

func broadcastFixture(t *testing.T) (*broadcastUC, *mockBroadcastState, *mockGroupRepo, *mockChatClient, func()) {
	t.Helper()
	state := newMockBroadcastState()
	groups := newMockGroupRepo()
	chat := &mockChatClient{}

	pool := worker.NewPool(1, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	cleanup := func() {
		cancel()
		pool.Stop()
	}

	uc := NewBroadcastUseCase(state, groups, chat, pool, testLogger())
	return uc, state, groups, chat, cleanup
}

func TestBroadcastUC_PrepareAndCancel(t *testing.T) {
	uc, state, _, _, cleanup := broadcastFixture(t)
	defer cleanup()
	ctx := context.Background()

	p, err := uc.Prepare(ctx, 1000, "maintenance tonight")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if p.JobID == "" || p.Text != "maintenance tonight" {
		t.Fatalf("bad draft %+v", p)
	}

	if _, err := uc.Prepare(ctx, 1000, "another"); !errors.Is(err, domain.ErrBroadcastPending) {
		t.Fatalf("second prepare must report the pending draft, got %v", err)
	}

	if err := uc.Cancel(ctx, 1000); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got, _ := state.Get(ctx, 1000); got != nil {
		t.Fatal("cancel must clear the draft")
	}
}

func TestBroadcastUC_PrepareRejectsEmpty(t *testing.T) {
	uc, _, _, _, cleanup := broadcastFixture(t)
	defer cleanup()

	if _, err := uc.Prepare(context.Background(), 1000, ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
}

func TestBroadcastUC_ConfirmWithoutDraft(t *testing.T) {
	uc, _, _, _, cleanup := broadcastFixture(t)
	defer cleanup()

	if _, _, err := uc.Confirm(context.Background(), 1000); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestBroadcastUC_ConfirmDeliversToActiveGroups(t *testing.T) {
	uc, state, groups, chat, cleanup := broadcastFixture(t)
	defer cleanup()
	ctx := context.Background()

	g1, _ := model.NewGroup(-1, "alpha", "")
	g2, _ := model.NewGroup(-2, "beta", "")
	g3, _ := model.NewGroup(-3, "gone", "")
	g3.Active = false
	for _, g := range []*model.Group{g1, g2, g3} {
		_ = groups.Save(ctx, nil, g)
	}

	if _, err := uc.Prepare(ctx, 1000, "hello groups"); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	jobID, n, err := uc.Confirm(ctx, 1000)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if jobID == "" || n != 2 {
		t.Fatalf("want 2 targets, got jobID=%q n=%d", jobID, n)
	}
	if got, _ := state.Get(ctx, 1000); got != nil {
		t.Fatal("confirm must clear the draft")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if len(chat.sentMessages()) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("delivery timed out, sent=%v", chat.sentMessages())
		}
		time.Sleep(10 * time.Millisecond)
	}
	for _, s := range chat.sentMessages() {
		if s.Text != "hello groups" {
			t.Fatalf("wrong broadcast text %q", s.Text)
		}
		if s.ChatID != -1 && s.ChatID != -2 {
			t.Fatalf("broadcast reached inactive group %d", s.ChatID)
		}
	}
}

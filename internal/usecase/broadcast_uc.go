package usecase

import (
	"context"
	"time"

	"telegram-group-guard/internal/domain"
	"telegram-group-guard/internal/domain/model"
	"telegram-group-guard/internal/domain/ports/adapter"
	"telegram-group-guard/internal/domain/ports/repository"
	"telegram-group-guard/internal/infra/logging"
	"telegram-group-guard/internal/infra/metrics"
	red "telegram-group-guard/internal/infra/redis"
	"telegram-group-guard/internal/infra/worker"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// broadcastRate caps deliveries at just under the platform's ~30 msg/s
// bot-wide limit, leaving headroom for moderation traffic.
const broadcastRate = time.Second / 25

// BroadcastState is the per-admin pending-draft store. A draft survives
// process restarts and expires on its own.
type BroadcastState interface {
	Set(ctx context.Context, p *red.PendingBroadcast) error
	Get(ctx context.Context, adminID int64) (*red.PendingBroadcast, error)
	Clear(ctx context.Context, adminID int64) error
}

var _ BroadcastUseCase = (*broadcastUC)(nil)

// BroadcastUseCase implements the two-phase admin broadcast: Prepare stages
// a draft, Confirm fans it out to every active group, Cancel discards it.
type BroadcastUseCase interface {
	Prepare(ctx context.Context, adminID int64, text string) (*red.PendingBroadcast, error)
	Pending(ctx context.Context, adminID int64) (*red.PendingBroadcast, error)
	// Confirm queues the delivery and returns (jobID, groupCount). Delivery
	// itself runs on the worker pool, throttled.
	Confirm(ctx context.Context, adminID int64) (string, int, error)
	Cancel(ctx context.Context, adminID int64) error
}

type broadcastUC struct {
	state  BroadcastState
	groups repository.GroupRepository
	chat   adapter.ChatClient
	pool   *worker.Pool
	log    *zerolog.Logger
}

func NewBroadcastUseCase(
	state BroadcastState,
	groups repository.GroupRepository,
	chat adapter.ChatClient,
	pool *worker.Pool,
	logger *zerolog.Logger,
) *broadcastUC {
	return &broadcastUC{
		state:  state,
		groups: groups,
		chat:   chat,
		pool:   pool,
		log:    logger,
	}
}

func (u *broadcastUC) Prepare(ctx context.Context, adminID int64, text string) (*red.PendingBroadcast, error) {
	defer logging.TraceDuration(u.log, "BroadcastUC.Prepare")()

	if text == "" {
		return nil, domain.ErrInvalidArgument
	}
	if existing, err := u.state.Get(ctx, adminID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrBroadcastPending
	}

	p := &red.PendingBroadcast{
		JobID:     ulid.Make().String(),
		AdminID:   adminID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := u.state.Set(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *broadcastUC) Pending(ctx context.Context, adminID int64) (*red.PendingBroadcast, error) {
	return u.state.Get(ctx, adminID)
}

func (u *broadcastUC) Confirm(ctx context.Context, adminID int64) (string, int, error) {
	defer logging.TraceDuration(u.log, "BroadcastUC.Confirm")()

	p, err := u.state.Get(ctx, adminID)
	if err != nil {
		return "", 0, err
	}
	if p == nil {
		return "", 0, domain.ErrNotFound
	}
	groups, err := u.groups.ListActive(ctx, repository.NoTX)
	if err != nil {
		return "", 0, err
	}
	if err := u.state.Clear(ctx, adminID); err != nil {
		u.log.Warn().Err(err).Int64("admin_id", adminID).Msg("clear broadcast draft failed")
	}

	job := *p
	targets := make([]*model.Group, len(groups))
	copy(targets, groups)
	if err := u.pool.Submit(func(taskCtx context.Context) error {
		u.deliver(taskCtx, &job, targets)
		return nil
	}); err != nil {
		return "", 0, err
	}

	u.log.Info().Str("job_id", job.JobID).Int("groups", len(targets)).Msg("broadcast queued")
	return job.JobID, len(targets), nil
}

func (u *broadcastUC) Cancel(ctx context.Context, adminID int64) error {
	defer logging.TraceDuration(u.log, "BroadcastUC.Cancel")()
	return u.state.Clear(ctx, adminID)
}

func (u *broadcastUC) deliver(ctx context.Context, job *red.PendingBroadcast, groups []*model.Group) {
	ticker := time.NewTicker(broadcastRate)
	defer ticker.Stop()

	sent, failed := 0, 0
	for _, g := range groups {
		select {
		case <-ctx.Done():
			u.log.Warn().Str("job_id", job.JobID).Int("sent", sent).Msg("broadcast interrupted")
			return
		case <-ticker.C:
		}
		if _, err := u.chat.SendMessage(ctx, g.ID, job.Text); err != nil {
			failed++
			metrics.IncBroadcastSend(false)
			u.log.Warn().Err(err).Str("job_id", job.JobID).Int64("group_id", g.ID).Msg("broadcast send failed")
			continue
		}
		sent++
		metrics.IncBroadcastSend(true)
	}
	u.log.Info().Str("job_id", job.JobID).Int("sent", sent).Int("failed", failed).Msg("broadcast finished")
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// PendingBroadcast is a per-admin draft awaiting confirmation. Modeled as
// explicit keyed session state with an expiry instead of an in-process
// waiting map, so a restart or a forgotten draft cannot wedge the flow.
type PendingBroadcast struct {
	JobID     string    `json:"job_id"`
	AdminID   int64     `json:"admin_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type BroadcastStateRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewBroadcastStateRepo(client RedisClient, ttl time.Duration) *BroadcastStateRepo {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &BroadcastStateRepo{client: client, ttl: ttl}
}

func broadcastKey(adminID int64) string {
	return fmt.Sprintf("broadcast_pending:%d", adminID)
}

func (r *BroadcastStateRepo) Set(ctx context.Context, p *PendingBroadcast) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, broadcastKey(p.AdminID), data, r.ttl)
}

// Get returns the pending draft or (nil, nil) when none exists.
func (r *BroadcastStateRepo) Get(ctx context.Context, adminID int64) (*PendingBroadcast, error) {
	data, err := r.client.Get(ctx, broadcastKey(adminID))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var p PendingBroadcast
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BroadcastStateRepo) Clear(ctx context.Context, adminID int64) error {
	return r.client.Del(ctx, broadcastKey(adminID))
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-group-guard/internal/domain/model"
)

// SettingsCache keeps per-group moderation toggles hot; the database stays
// the source of truth and entries simply expire.
type SettingsCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewSettingsCache(client RedisClient, ttl time.Duration) *SettingsCache {
	return &SettingsCache{
		client: client,
		ttl:    ttl,
	}
}

func settingsKey(groupID int64) string {
	return fmt.Sprintf("group_settings:%d", groupID)
}

func (c *SettingsCache) Store(ctx context.Context, s *model.GroupSettings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, settingsKey(s.GroupID), data, c.ttl)
}

// Get returns the cached settings or (nil, nil) on a miss.
func (c *SettingsCache) Get(ctx context.Context, groupID int64) (*model.GroupSettings, error) {
	data, err := c.client.Get(ctx, settingsKey(groupID))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var s model.GroupSettings
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *SettingsCache) Invalidate(ctx context.Context, groupID int64) error {
	return c.client.Del(ctx, settingsKey(groupID))
}

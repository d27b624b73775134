package model

import (
	"time"

	"telegram-group-guard/internal/domain"
)

// Group is a chat group the bot moderates.
type Group struct {
	ID       int64
	Title    string
	Username string // public @handle of the group, "" for private groups
	AddedAt  time.Time
	Active   bool
}

func NewGroup(id int64, title, username string) (*Group, error) {
	if id == 0 || title == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Group{
		ID:       id,
		Title:    title,
		Username: username,
		AddedAt:  time.Now(),
		Active:   true,
	}, nil
}

// GroupSettings holds the per-group moderation toggles. A group without a
// stored record is fully moderated, so the zero value is never used directly;
// callers go through DefaultGroupSettings.
type GroupSettings struct {
	GroupID         int64
	DeleteLinks     bool
	DeleteAds       bool
	DeleteJoinLeave bool
}

// DefaultGroupSettings returns the all-enabled default applied when no record
// exists for the group.
func DefaultGroupSettings(groupID int64) *GroupSettings {
	return &GroupSettings{
		GroupID:         groupID,
		DeleteLinks:     true,
		DeleteAds:       true,
		DeleteJoinLeave: true,
	}
}

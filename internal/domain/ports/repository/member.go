package repository

import (
	"context"
	"time"

	"telegram-group-guard/internal/domain/model"
)

// MemberRepository is the membership store. Records are unique per
// (group id, identity storage key); handle lookups are case-insensitive.
type MemberRepository interface {
	// Upsert creates or refreshes a record, last-write-wins on UpdatedAt.
	Upsert(ctx context.Context, tx Tx, m *model.GroupMember) error
	// FindVerifiedByHandle returns the newest verified record whose handle
	// matches (case-insensitive), or domain.ErrNotFound.
	FindVerifiedByHandle(ctx context.Context, tx Tx, groupID int64, handle string) (*model.GroupMember, error)
	// IsVerifiedHandle is the fast existence probe behind the verifier's
	// first tier.
	IsVerifiedHandle(ctx context.Context, tx Tx, groupID int64, handle string) (bool, error)
	Remove(ctx context.Context, tx Tx, groupID int64, identity model.MemberIdentity) error
	CountMembers(ctx context.Context, tx Tx, groupID int64) (int, error)
	CountVerified(ctx context.Context, tx Tx, groupID int64) (int, error)
	// ListRecent returns records touched since the cutoff, newest first.
	ListRecent(ctx context.Context, tx Tx, groupID int64, since time.Time, limit int) ([]*model.GroupMember, error)
	// PurgeUnverified deletes unverified records older than the cutoff and
	// reports how many were removed.
	PurgeUnverified(ctx context.Context, tx Tx, groupID int64, olderThan time.Time) (int, error)
}

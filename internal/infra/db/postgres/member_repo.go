package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-group-guard/internal/domain"
	"telegram-group-guard/internal/domain/model"
	"telegram-group-guard/internal/domain/ports/repository"
)

var _ repository.MemberRepository = (*MemberRepo)(nil)

// MemberRepo persists membership records. The identity union is flattened
// into (user_key, identity_kind): user_key is the Telegram ID for numeric
// identities and the synthetic negative key for handle-only ones.
type MemberRepo struct {
	pool *pgxpool.Pool
}

func NewMemberRepo(pool *pgxpool.Pool) *MemberRepo {
	return &MemberRepo{pool: pool}
}

func (r *MemberRepo) Upsert(ctx context.Context, tx repository.Tx, m *model.GroupMember) error {
	const q = `
INSERT INTO group_members (
  group_id, user_key, identity_kind, handle, first_name, last_name, is_verified, updated_at
) VALUES (
  $1,$2,$3,NULLIF($4,''),$5,$6,$7,$8
) ON CONFLICT (group_id, user_key) DO UPDATE SET
  handle=NULLIF($4,''), first_name=$5, last_name=$6, is_verified=$7, updated_at=$8;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q,
		m.GroupID, m.Identity.StorageKey(), int(m.Identity.Kind),
		strings.ToLower(m.Handle), m.FirstName, m.LastName, m.Verified, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

func (r *MemberRepo) FindVerifiedByHandle(ctx context.Context, tx repository.Tx, groupID int64, handle string) (*model.GroupMember, error) {
	const q = `
SELECT group_id, user_key, identity_kind, COALESCE(handle,''), first_name, last_name, is_verified, updated_at
  FROM group_members
 WHERE group_id=$1 AND LOWER(handle)=LOWER($2) AND handle IS NOT NULL AND is_verified=TRUE
 ORDER BY updated_at DESC LIMIT 1;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	row := ex.QueryRow(ctx, q, groupID, strings.TrimPrefix(handle, "@"))
	return scanMember(row)
}

func (r *MemberRepo) IsVerifiedHandle(ctx context.Context, tx repository.Tx, groupID int64, handle string) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM group_members
   WHERE group_id=$1 AND LOWER(handle)=LOWER($2) AND handle IS NOT NULL AND is_verified=TRUE
);
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := ex.QueryRow(ctx, q, groupID, strings.TrimPrefix(handle, "@")).Scan(&ok); err != nil {
		return false, fmt.Errorf("verified handle probe: %w", err)
	}
	return ok, nil
}

func (r *MemberRepo) Remove(ctx context.Context, tx repository.Tx, groupID int64, identity model.MemberIdentity) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `DELETE FROM group_members WHERE group_id=$1 AND user_key=$2;`, groupID, identity.StorageKey())
	return err
}

func (r *MemberRepo) CountMembers(ctx context.Context, tx repository.Tx, groupID int64) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM group_members WHERE group_id=$1;`, groupID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

func (r *MemberRepo) CountVerified(ctx context.Context, tx repository.Tx, groupID int64) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM group_members WHERE group_id=$1 AND is_verified=TRUE;`, groupID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count verified: %w", err)
	}
	return n, nil
}

func (r *MemberRepo) ListRecent(ctx context.Context, tx repository.Tx, groupID int64, since time.Time, limit int) ([]*model.GroupMember, error) {
	const q = `
SELECT group_id, user_key, identity_kind, COALESCE(handle,''), first_name, last_name, is_verified, updated_at
  FROM group_members
 WHERE group_id=$1 AND updated_at >= $2
 ORDER BY updated_at DESC LIMIT $3;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, groupID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent members: %w", err)
	}
	defer rows.Close()

	var out []*model.GroupMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MemberRepo) PurgeUnverified(ctx context.Context, tx repository.Tx, groupID int64, olderThan time.Time) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	tag, err := ex.Exec(ctx,
		`DELETE FROM group_members WHERE group_id=$1 AND is_verified=FALSE AND updated_at < $2;`,
		groupID, olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("purge unverified: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanMember(row pgx.Row) (*model.GroupMember, error) {
	var (
		m    model.GroupMember
		key  int64
		kind int
	)
	if err := row.Scan(&m.GroupID, &key, &kind, &m.Handle, &m.FirstName, &m.LastName, &m.Verified, &m.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if model.IdentityKind(kind) == model.IdentityHandleOnly {
		m.Identity = model.HandleOnlyIdentity(m.Handle)
	} else {
		m.Identity = model.NumericIdentity(key)
	}
	return &m, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-group-guard/internal/domain"
	"telegram-group-guard/internal/domain/model"
	"telegram-group-guard/internal/domain/ports/repository"
)

var _ repository.GroupRepository = (*GroupRepo)(nil)

type GroupRepo struct {
	pool *pgxpool.Pool
}

func NewGroupRepo(pool *pgxpool.Pool) *GroupRepo {
	return &GroupRepo{pool: pool}
}

func (r *GroupRepo) Save(ctx context.Context, tx repository.Tx, g *model.Group) error {
	const q = `
INSERT INTO groups (id, title, username, added_at, is_active)
VALUES ($1,$2,NULLIF($3,''),$4,$5)
ON CONFLICT (id) DO UPDATE SET
  title=$2, username=NULLIF($3,''), is_active=$5;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, g.ID, g.Title, g.Username, g.AddedAt, g.Active); err != nil {
		return fmt.Errorf("save group: %w", err)
	}
	return nil
}

func (r *GroupRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Group, error) {
	const q = `SELECT id, title, COALESCE(username,''), added_at, is_active FROM groups WHERE id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var g model.Group
	if err := ex.QueryRow(ctx, q, id).Scan(&g.ID, &g.Title, &g.Username, &g.AddedAt, &g.Active); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Group, error) {
	const q = `SELECT id, title, COALESCE(username,''), added_at, is_active FROM groups WHERE is_active=TRUE ORDER BY added_at;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var out []*model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Title, &g.Username, &g.AddedAt, &g.Active); err != nil {
			return nil, err
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

func (r *GroupRepo) Deactivate(ctx context.Context, tx repository.Tx, id int64) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `UPDATE groups SET is_active=FALSE WHERE id=$1;`, id)
	return err
}

func (r *GroupRepo) Remove(ctx context.Context, tx repository.Tx, id int64) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, `DELETE FROM group_members WHERE group_id=$1;`, id); err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, `DELETE FROM group_settings WHERE group_id=$1;`, id); err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `DELETE FROM groups WHERE id=$1;`, id)
	return err
}

func (r *GroupRepo) CountActive(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM groups WHERE is_active=TRUE;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}
	return n, nil
}

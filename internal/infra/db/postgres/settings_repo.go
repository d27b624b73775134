package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-group-guard/internal/domain/model"
	"telegram-group-guard/internal/domain/ports/repository"
)

var _ repository.SettingsRepository = (*SettingsRepo)(nil)

type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

// Get returns stored settings; a group without a record gets the all-enabled
// default (no record = fully moderated).
func (r *SettingsRepo) Get(ctx context.Context, tx repository.Tx, groupID int64) (*model.GroupSettings, error) {
	const q = `SELECT group_id, delete_links, delete_ads, delete_join_leave FROM group_settings WHERE group_id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var s model.GroupSettings
	if err := ex.QueryRow(ctx, q, groupID).Scan(&s.GroupID, &s.DeleteLinks, &s.DeleteAds, &s.DeleteJoinLeave); err != nil {
		if err == pgx.ErrNoRows {
			return model.DefaultGroupSettings(groupID), nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.GroupSettings) error {
	const q = `
INSERT INTO group_settings (group_id, delete_links, delete_ads, delete_join_leave)
VALUES ($1,$2,$3,$4)
ON CONFLICT (group_id) DO UPDATE SET
  delete_links=$2, delete_ads=$3, delete_join_leave=$4;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, s.GroupID, s.DeleteLinks, s.DeleteAds, s.DeleteJoinLeave); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

package repository

import (
	"context"

	"telegram-group-guard/internal/domain/model"
)

type GroupRepository interface {
	Save(ctx context.Context, tx Tx, g *model.Group) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Group, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Group, error)
	// Deactivate keeps the row but marks the group inactive (bot removed).
	Deactivate(ctx context.Context, tx Tx, id int64) error
	Remove(ctx context.Context, tx Tx, id int64) error
	CountActive(ctx context.Context, tx Tx) (int, error)
}

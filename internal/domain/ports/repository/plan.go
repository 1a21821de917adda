package repository

import (
	"context"
	"time"

	"nutriplan-backend/internal/domain/model"
)

// PlanRepository is the port for weekly plans and their items.
type PlanRepository interface {
	SavePlan(ctx context.Context, tx Tx, plan *model.WeeklyPlan) error
	// SaveItems inserts all items of one plan in a single batch.
	SaveItems(ctx context.Context, tx Tx, items []*model.PlanItem) error
	// DeleteByWindow removes every plan of the user whose start date falls in
	// [start, end], deleting its items first (the allocator owns the cascade,
	// not the schema). Returns the number of plans removed.
	DeleteByWindow(ctx context.Context, tx Tx, userID string, start, end time.Time) (int, error)
	// FindByWindow returns the plan whose start date falls in [start, end],
	// or ErrNotFound.
	FindByWindow(ctx context.Context, tx Tx, userID string, start, end time.Time) (*model.WeeklyPlan, error)
	// FindItems returns a plan's items ordered by (day_index, meal slot),
	// with recipes resolved.
	FindItems(ctx context.Context, tx Tx, planID string) ([]*model.PlanItem, error)
	CountSince(ctx context.Context, tx Tx, since time.Time) (int, error)
}

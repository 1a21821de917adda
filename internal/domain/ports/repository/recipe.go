package repository

import (
	"context"

	"nutriplan-backend/internal/domain/model"
)

// RecipeRepository is the port for the admin-managed recipe catalog.
type RecipeRepository interface {
	Save(ctx context.Context, tx Tx, recipe *model.Recipe) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Recipe, error)
	// ListAll returns the full catalog with no pagination; the allocator
	// partitions it into per-slot buckets.
	ListAll(ctx context.Context, tx Tx) ([]*model.Recipe, error)
	Delete(ctx context.Context, tx Tx, id string) error
	CountByMealType(ctx context.Context, tx Tx) (map[model.MealType]int, error)
}

package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/domain/ports/repository"
)

var _ repository.PlanRepository = (*PlanRepo)(nil)

type PlanRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

const savePlanQuery = `
INSERT INTO weekly_plans (id, user_id, start_date, end_date, calorie_target, meals_per_day, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

func (r *PlanRepo) SavePlan(ctx context.Context, tx repository.Tx, plan *model.WeeklyPlan) error {
	_, err := execSQL(ctx, r.pool, tx, savePlanQuery,
		plan.ID, plan.UserID, plan.StartDate, plan.EndDate, plan.CalorieTarget, plan.MealsPerDay, plan.CreatedAt)
	return mapPgError(err)
}

const saveItemsQuery = `
INSERT INTO plan_items (id, plan_id, day_index, meal_type, recipe_id)
SELECT * FROM unnest($1::text[], $2::text[], $3::int[], $4::text[], $5::text[]);`

// SaveItems inserts the full 7x(slots) grid of one plan in a single statement.
func (r *PlanRepo) SaveItems(ctx context.Context, tx repository.Tx, items []*model.PlanItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	planIDs := make([]string, len(items))
	days := make([]int32, len(items))
	mealTypes := make([]string, len(items))
	recipeIDs := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
		planIDs[i] = it.PlanID
		days[i] = int32(it.DayIndex)
		mealTypes[i] = string(it.MealType)
		recipeIDs[i] = it.RecipeID
	}
	_, err := execSQL(ctx, r.pool, tx, saveItemsQuery, ids, planIDs, days, mealTypes, recipeIDs)
	return mapPgError(err)
}

const deleteItemsByWindowQuery = `
DELETE FROM plan_items WHERE plan_id IN (
    SELECT id FROM weekly_plans WHERE user_id = $1 AND start_date >= $2 AND start_date <= $3
);`

const deletePlansByWindowQuery = `
DELETE FROM weekly_plans WHERE user_id = $1 AND start_date >= $2 AND start_date <= $3;`

// DeleteByWindow removes plans (items first; the schema carries no cascade)
// whose start date falls in [start, end].
func (r *PlanRepo) DeleteByWindow(ctx context.Context, tx repository.Tx, userID string, start, end time.Time) (int, error) {
	if _, err := execSQL(ctx, r.pool, tx, deleteItemsByWindowQuery, userID, start, end); err != nil {
		return 0, mapPgError(err)
	}
	tag, err := execSQL(ctx, r.pool, tx, deletePlansByWindowQuery, userID, start, end)
	if err != nil {
		return 0, mapPgError(err)
	}
	return int(tag.RowsAffected()), nil
}

const findPlanByWindowQuery = `
SELECT id, user_id, start_date, end_date, calorie_target, meals_per_day, created_at
FROM weekly_plans
WHERE user_id = $1 AND start_date >= $2 AND start_date <= $3
ORDER BY created_at DESC LIMIT 1;`

func (r *PlanRepo) FindByWindow(ctx context.Context, tx repository.Tx, userID string, start, end time.Time) (*model.WeeklyPlan, error) {
	row, err := queryRow(ctx, r.pool, tx, findPlanByWindowQuery, userID, start, end)
	if err != nil {
		return nil, err
	}
	var p model.WeeklyPlan
	if err := row.Scan(&p.ID, &p.UserID, &p.StartDate, &p.EndDate, &p.CalorieTarget, &p.MealsPerDay, &p.CreatedAt); err != nil {
		return nil, mapPgError(err)
	}
	return &p, nil
}

const findItemsQuery = `
SELECT i.id, i.plan_id, i.day_index, i.meal_type, i.recipe_id,
       r.id, r.title, r.meal_type, r.calories, r.prep_minutes, r.ingredients, r.instructions, r.image_url, r.created_at
FROM plan_items i
JOIN recipes r ON r.id = i.recipe_id
WHERE i.plan_id = $1
ORDER BY i.day_index,
         CASE i.meal_type WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 WHEN 'dinner' THEN 2 ELSE 3 END;`

func (r *PlanRepo) FindItems(ctx context.Context, tx repository.Tx, planID string) ([]*model.PlanItem, error) {
	rows, err := queryRows(ctx, r.pool, tx, findItemsQuery, planID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []*model.PlanItem
	for rows.Next() {
		var it model.PlanItem
		var rec model.Recipe
		var itemMeal, recipeMeal string
		if err := rows.Scan(&it.ID, &it.PlanID, &it.DayIndex, &itemMeal, &it.RecipeID,
			&rec.ID, &rec.Title, &recipeMeal, &rec.Calories, &rec.PrepMinutes,
			&rec.Ingredients, &rec.Instructions, &rec.ImageURL, &rec.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		it.MealType = model.MealType(itemMeal)
		rec.MealType = model.MealType(recipeMeal)
		it.Recipe = &rec
		out = append(out, &it)
	}
	if rows.Err() != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}

func (r *PlanRepo) CountSince(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	row, err := queryRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM weekly_plans WHERE created_at >= $1;`, since)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, mapPgError(err)
	}
	return n, nil
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/domain/ports/repository"
)

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

type RecipeRepo struct {
	pool *pgxpool.Pool
}

func NewRecipeRepo(pool *pgxpool.Pool) *RecipeRepo {
	return &RecipeRepo{pool: pool}
}

const saveRecipeQuery = `
INSERT INTO recipes (id, title, meal_type, calories, prep_minutes, ingredients, instructions, image_url, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    title        = EXCLUDED.title,
    meal_type    = EXCLUDED.meal_type,
    calories     = EXCLUDED.calories,
    prep_minutes = EXCLUDED.prep_minutes,
    ingredients  = EXCLUDED.ingredients,
    instructions = EXCLUDED.instructions,
    image_url    = EXCLUDED.image_url;`

func (r *RecipeRepo) Save(ctx context.Context, tx repository.Tx, recipe *model.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return err
	}
	_, err := execSQL(ctx, r.pool, tx, saveRecipeQuery,
		recipe.ID, recipe.Title, string(recipe.MealType), recipe.Calories, recipe.PrepMinutes,
		recipe.Ingredients, recipe.Instructions, recipe.ImageURL, recipe.CreatedAt)
	return mapPgError(err)
}

const findRecipeByIDQuery = `
SELECT id, title, meal_type, calories, prep_minutes, ingredients, instructions, image_url, created_at
FROM recipes WHERE id = $1;`

func (r *RecipeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Recipe, error) {
	row, err := queryRow(ctx, r.pool, tx, findRecipeByIDQuery, id)
	if err != nil {
		return nil, err
	}
	var rec model.Recipe
	var mealType string
	if err := row.Scan(&rec.ID, &rec.Title, &mealType, &rec.Calories, &rec.PrepMinutes,
		&rec.Ingredients, &rec.Instructions, &rec.ImageURL, &rec.CreatedAt); err != nil {
		return nil, mapPgError(err)
	}
	rec.MealType = model.MealType(mealType)
	return &rec, nil
}

const listRecipesQuery = `
SELECT id, title, meal_type, calories, prep_minutes, ingredients, instructions, image_url, created_at
FROM recipes ORDER BY created_at, id;`

func (r *RecipeRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Recipe, error) {
	rows, err := queryRows(ctx, r.pool, tx, listRecipesQuery)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []*model.Recipe
	for rows.Next() {
		var rec model.Recipe
		var mealType string
		if err := rows.Scan(&rec.ID, &rec.Title, &mealType, &rec.Calories, &rec.PrepMinutes,
			&rec.Ingredients, &rec.Instructions, &rec.ImageURL, &rec.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		rec.MealType = model.MealType(mealType)
		out = append(out, &rec)
	}
	if rows.Err() != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}

func (r *RecipeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM recipes WHERE id = $1;`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const countRecipesBySlotQuery = `
SELECT meal_type, COUNT(*) FROM recipes GROUP BY meal_type;`

func (r *RecipeRepo) CountByMealType(ctx context.Context, tx repository.Tx) (map[model.MealType]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, countRecipesBySlotQuery)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make(map[model.MealType]int, len(model.MealSlots))
	for rows.Next() {
		var mealType string
		var n int
		if err := rows.Scan(&mealType, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[model.MealType(mealType)] = n
	}
	if rows.Err() != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}

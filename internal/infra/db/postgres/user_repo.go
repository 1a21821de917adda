package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const findUserByIDQuery = `
SELECT id, email, display_name, calorie_target, meals_per_day, is_admin, registered_at, last_active_at
FROM users WHERE id = $1;`

func (r *UserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	row, err := queryRow(ctx, r.pool, tx, findUserByIDQuery, id)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.CalorieTarget, &u.MealsPerDay,
		&u.Admin, &u.RegisteredAt, &u.LastActiveAt); err != nil {
		return nil, mapPgError(err)
	}
	return &u, nil
}

const saveUserQuery = `
INSERT INTO users (id, email, display_name, calorie_target, meals_per_day, is_admin, registered_at, last_active_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    email          = EXCLUDED.email,
    display_name   = EXCLUDED.display_name,
    calorie_target = EXCLUDED.calorie_target,
    meals_per_day  = EXCLUDED.meals_per_day,
    is_admin       = EXCLUDED.is_admin,
    last_active_at = EXCLUDED.last_active_at;`

func (r *UserRepo) Save(ctx context.Context, tx repository.Tx, user *model.User) error {
	_, err := execSQL(ctx, r.pool, tx, saveUserQuery,
		user.ID, user.Email, user.DisplayName, user.CalorieTarget, user.MealsPerDay,
		user.Admin, user.RegisteredAt, user.LastActiveAt)
	return mapPgError(err)
}

func (r *UserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := queryRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, mapPgError(err)
	}
	return n, nil
}

package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/domain/ports/repository"
)

var _ repository.TrialRepository = (*TrialRepo)(nil)

type TrialRepo struct {
	pool *pgxpool.Pool
}

func NewTrialRepo(pool *pgxpool.Pool) *TrialRepo {
	return &TrialRepo{pool: pool}
}

const findTrialByUserQuery = `
SELECT id, user_id, started_at, ends_at, active FROM trials WHERE user_id = $1;`

func (r *TrialRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Trial, error) {
	row, err := queryRow(ctx, r.pool, tx, findTrialByUserQuery, userID)
	if err != nil {
		return nil, err
	}
	var t model.Trial
	if err := row.Scan(&t.ID, &t.UserID, &t.StartedAt, &t.EndsAt, &t.Active); err != nil {
		return nil, mapPgError(err)
	}
	return &t, nil
}

// One trial per user: the upsert keys on user_id so a racing lazy creation
// cannot produce a second row.
const saveTrialQuery = `
INSERT INTO trials (id, user_id, started_at, ends_at, active)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET active = EXCLUDED.active;`

func (r *TrialRepo) Save(ctx context.Context, tx repository.Tx, trial *model.Trial) error {
	_, err := execSQL(ctx, r.pool, tx, saveTrialQuery,
		trial.ID, trial.UserID, trial.StartedAt, trial.EndsAt, trial.Active)
	return mapPgError(err)
}

func (r *TrialRepo) CountActive(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	row, err := queryRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM trials WHERE ends_at > $1;`, now)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, mapPgError(err)
	}
	return n, nil
}

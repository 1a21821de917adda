package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

const saveSubscriptionQuery = `
INSERT INTO subscriptions (id, user_id, tier, status, expires_at, lifetime, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    tier       = EXCLUDED.tier,
    status     = EXCLUDED.status,
    expires_at = EXCLUDED.expires_at,
    lifetime   = EXCLUDED.lifetime,
    updated_at = EXCLUDED.updated_at;`

func (r *SubscriptionRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	_, err := execSQL(ctx, r.pool, tx, saveSubscriptionQuery,
		sub.ID, sub.UserID, string(sub.Tier), string(sub.Status), sub.ExpiresAt, sub.Lifetime,
		sub.CreatedAt, sub.UpdatedAt)
	return mapPgError(err)
}

const findActiveSubQuery = `
SELECT id, user_id, tier, status, expires_at, lifetime, created_at, updated_at
FROM subscriptions
WHERE user_id = $1 AND lifetime = FALSE AND status = 'active'
  AND (expires_at IS NULL OR expires_at > NOW())
ORDER BY created_at DESC LIMIT 1;`

func (r *SubscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	row, err := queryRow(ctx, r.pool, tx, findActiveSubQuery, userID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

const findLatestSubQuery = `
SELECT id, user_id, tier, status, expires_at, lifetime, created_at, updated_at
FROM subscriptions
WHERE user_id = $1 AND lifetime = FALSE
ORDER BY created_at DESC LIMIT 1;`

func (r *SubscriptionRepo) FindLatestByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	row, err := queryRow(ctx, r.pool, tx, findLatestSubQuery, userID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

const findLifetimeSubQuery = `
SELECT id, user_id, tier, status, expires_at, lifetime, created_at, updated_at
FROM subscriptions
WHERE user_id = $1 AND lifetime = TRUE
ORDER BY created_at DESC LIMIT 1;`

func (r *SubscriptionRepo) FindLifetimeByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	row, err := queryRow(ctx, r.pool, tx, findLifetimeSubQuery, userID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

const findExpiringQuery = `
SELECT id, user_id, tier, status, expires_at, lifetime, created_at, updated_at
FROM subscriptions
WHERE lifetime = FALSE AND status = 'active'
  AND expires_at IS NOT NULL
  AND expires_at > NOW() AND expires_at <= NOW() + ($1 * INTERVAL '1 day')
ORDER BY expires_at;`

func (r *SubscriptionRepo) FindExpiring(ctx context.Context, tx repository.Tx, withinDays int) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, findExpiringQuery, withinDays)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, sub)
	}
	if rows.Err() != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}

const countActiveByTierQuery = `
SELECT tier, COUNT(*) FROM subscriptions
WHERE lifetime = TRUE OR (status = 'active' AND (expires_at IS NULL OR expires_at > NOW()))
GROUP BY tier;`

func (r *SubscriptionRepo) CountActiveByTier(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, countActiveByTierQuery)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[tier] = n
	}
	if rows.Err() != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(row rowScanner) (*model.Subscription, error) {
	var s model.Subscription
	var tier, status string
	if err := row.Scan(&s.ID, &s.UserID, &tier, &status, &s.ExpiresAt, &s.Lifetime, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, mapPgError(err)
	}
	s.Tier = model.Tier(tier)
	s.Status = model.SubscriptionStatus(status)
	return &s, nil
}

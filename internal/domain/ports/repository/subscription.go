package repository

import (
	"context"

	"nutriplan-backend/internal/domain/model"
)

// SubscriptionRepository is the port for the locally mirrored billing state.
// Rows are written only by the refresh sync; everything else re-reads.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error
	// FindActiveByUser returns the newest non-lifetime subscription that is
	// exactly active and unexpired, or ErrNotFound.
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	// FindLatestByUser returns the newest non-lifetime row regardless of status
	// or expiry, or ErrNotFound. The refresh sync uses it as its upsert target
	// so a lapsed mirror row is updated in place instead of duplicated.
	FindLatestByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	// FindLifetimeByUser returns the user's lifetime grant row, or ErrNotFound.
	FindLifetimeByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	// FindExpiring lists active subscriptions expiring within the given number
	// of days, for the billing reconciler.
	FindExpiring(ctx context.Context, tx Tx, withinDays int) ([]*model.Subscription, error)
	CountActiveByTier(ctx context.Context, tx Tx) (map[string]int, error)
}

package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"nutriplan-backend/internal/domain/ports/repository"
	"nutriplan-backend/internal/infra/worker"
	"nutriplan-backend/internal/usecase"
)

// BillingReconciler periodically re-reads near-expiry subscriptions from the
// provider. It covers renewals the client never reported: without it a user
// who renews but never reopens the app would be marked expired locally.
type BillingReconciler struct {
	billing  usecase.BillingUseCase
	subs     repository.SubscriptionRepository
	pool     *worker.Pool
	interval time.Duration
	horizon  int // days ahead to look for expiring rows
	log      *zerolog.Logger
}

func NewBillingReconciler(
	billing usecase.BillingUseCase,
	subs repository.SubscriptionRepository,
	pool *worker.Pool,
	interval time.Duration,
	horizonDays int,
	logger *zerolog.Logger,
) *BillingReconciler {
	if interval <= 0 {
		interval = time.Hour
	}
	if horizonDays <= 0 {
		horizonDays = 3
	}
	l := logger.With().Str("component", "billing-reconciler").Logger()
	return &BillingReconciler{
		billing:  billing,
		subs:     subs,
		pool:     pool,
		interval: interval,
		horizon:  horizonDays,
		log:      &l,
	}
}

func (w *BillingReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *BillingReconciler) tick(ctx context.Context) {
	expiring, err := w.subs.FindExpiring(ctx, repository.NoTX, w.horizon)
	if err != nil {
		w.log.Error().Err(err).Msg("list expiring subscriptions failed")
		return
	}
	for _, sub := range expiring {
		userID := sub.UserID
		err := w.pool.Submit(func(ctx context.Context) error {
			_, err := w.billing.Refresh(ctx, userID)
			return err
		})
		if err != nil {
			w.log.Warn().Str("user_id", userID).Msg("refresh task dropped, queue full")
		}
	}
	if len(expiring) > 0 {
		w.log.Info().Int("count", len(expiring)).Msg("queued subscription refreshes")
	}
}

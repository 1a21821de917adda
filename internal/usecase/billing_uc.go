package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/domain/ports/adapter"
	"nutriplan-backend/internal/domain/ports/repository"
	"nutriplan-backend/internal/infra/logging"
	"nutriplan-backend/internal/infra/metrics"
)

// Compile-time check
var _ BillingUseCase = (*billingUC)(nil)

// BillingUseCase is the thin seam to the external payment collaborator:
// open a hosted checkout, and re-sync the local subscription mirror from the
// provider's source of truth on demand.
type BillingUseCase interface {
	Checkout(ctx context.Context, userID, tier string) (adapter.CheckoutSession, error)
	// Refresh pulls the provider state and upserts the local mirror. A
	// provider that knows no subscription leaves the mirror untouched.
	Refresh(ctx context.Context, userID string) (*model.Subscription, error)
}

type billingUC struct {
	gateway adapter.BillingGateway
	subs    repository.SubscriptionRepository
	ents    EntitlementUseCase
	log     *zerolog.Logger
}

func NewBillingUseCase(gateway adapter.BillingGateway, subs repository.SubscriptionRepository, ents EntitlementUseCase, logger *zerolog.Logger) *billingUC {
	l := logger.With().Str("component", "BillingUC").Logger()
	return &billingUC{gateway: gateway, subs: subs, ents: ents, log: &l}
}

func (uc *billingUC) Checkout(ctx context.Context, userID, tier string) (adapter.CheckoutSession, error) {
	if userID == "" {
		return adapter.CheckoutSession{}, domain.ErrInvalidArgument
	}
	if _, err := model.ParseTier(tier); err != nil {
		return adapter.CheckoutSession{}, err
	}
	session, err := uc.gateway.CreateCheckout(ctx, userID, tier)
	if err != nil {
		metrics.IncBilling("checkout_failed")
		return adapter.CheckoutSession{}, err
	}
	metrics.IncBilling("checkout_created")
	return session, nil
}

func (uc *billingUC) Refresh(ctx context.Context, userID string) (*model.Subscription, error) {
	defer logging.TraceDuration(uc.log, "BillingUC.Refresh")()
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	state, err := uc.gateway.FetchSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncBilling("refresh_empty")
			return nil, domain.ErrNotFound
		}
		metrics.IncBilling("refresh_failed")
		return nil, err
	}

	tier, err := model.ParseTier(state.Tier)
	if err != nil {
		uc.log.Warn().Str("tier", state.Tier).Str("user_id", userID).Msg("provider returned unknown tier; mirror not updated")
		return nil, domain.ErrOperationFailed
	}

	// Upsert against the newest mirror row whatever its status, so a lapsed
	// row is rewritten in place rather than left behind next to a fresh one.
	existing, err := uc.subs.FindLatestByUser(ctx, repository.NoTX, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if state.Lifetime {
		if lt, err := uc.subs.FindLifetimeByUser(ctx, repository.NoTX, userID); err == nil {
			existing = lt
		}
	}

	now := time.Now()
	sub := existing
	if sub == nil {
		sub = &model.Subscription{ID: uuid.NewString(), UserID: userID, CreatedAt: now}
	}
	sub.Tier = tier
	sub.Status = model.SubscriptionStatus(state.Status)
	sub.ExpiresAt = state.ExpiresAt
	sub.Lifetime = state.Lifetime
	sub.UpdatedAt = now

	if err := uc.subs.Save(ctx, repository.NoTX, sub); err != nil {
		metrics.IncBilling("refresh_failed")
		return nil, err
	}
	uc.ents.Invalidate(ctx, userID)
	metrics.IncBilling("refresh_ok")
	uc.log.Info().Str("user_id", userID).Str("tier", string(tier)).Str("status", string(sub.Status)).Msg("subscription mirror refreshed")
	return sub, nil
}

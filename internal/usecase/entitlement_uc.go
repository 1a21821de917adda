package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/domain/ports/repository"
	"nutriplan-backend/internal/infra/logging"
	"nutriplan-backend/internal/infra/metrics"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

// EntitlementUseCase resolves the access decision for a user by merging the
// three time-bounded grants: trial, recurring subscription, lifetime.
type EntitlementUseCase interface {
	// Resolve computes the current entitlement. The first call for a user
	// lazily creates the trial row (disclosed via Entitlement.TrialStarted).
	// Grant-read failures degrade to "no grant"; Resolve only errors on
	// caller misuse (empty user id).
	Resolve(ctx context.Context, userID string) (*model.Entitlement, error)
	// Invalidate drops any cached decision for the user. Called when a trial
	// or subscription row changes underneath them.
	Invalidate(ctx context.Context, userID string)
}

// EntitlementCache is the optional read-through cache for resolved decisions.
type EntitlementCache interface {
	Get(ctx context.Context, userID string) (*model.Entitlement, bool)
	Set(ctx context.Context, userID string, ent *model.Entitlement)
	Del(ctx context.Context, userID string)
}

type entitlementUC struct {
	trials repository.TrialRepository
	subs   repository.SubscriptionRepository
	cache  EntitlementCache // nil is fine

	trialDuration time.Duration
	now           func() time.Time
	log           *zerolog.Logger
}

// EntitlementOption tweaks construction; used by tests to pin the clock.
type EntitlementOption func(*entitlementUC)

func WithClock(now func() time.Time) EntitlementOption {
	return func(uc *entitlementUC) { uc.now = now }
}

func NewEntitlementUseCase(trials repository.TrialRepository, subs repository.SubscriptionRepository, cache EntitlementCache, trialDuration time.Duration, logger *zerolog.Logger, opts ...EntitlementOption) *entitlementUC {
	l := logger.With().Str("component", "EntitlementUC").Logger()
	uc := &entitlementUC{
		trials:        trials,
		subs:          subs,
		cache:         cache,
		trialDuration: trialDuration,
		now:           time.Now,
		log:           &l,
	}
	if uc.trialDuration <= 0 {
		uc.trialDuration = 24 * time.Hour
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

func (uc *entitlementUC) Resolve(ctx context.Context, userID string) (*model.Entitlement, error) {
	defer logging.TraceDuration(uc.log, "EntitlementUC.Resolve")()
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	if uc.cache != nil {
		if ent, ok := uc.cache.Get(ctx, userID); ok && !uc.trialLapsed(ent) {
			metrics.IncEntitlementCache(true)
			return ent, nil
		} else if ok {
			uc.cache.Del(ctx, userID)
		}
		metrics.IncEntitlementCache(false)
	}

	trial, trialStarted := uc.ensureTrial(ctx, userID)

	// Billing-check failures must never grant access: any error that is not
	// "no rows" is treated as "no subscription" and logged.
	sub, err := uc.subs.FindActiveByUser(ctx, repository.NoTX, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			uc.log.Warn().Err(err).Str("user_id", userID).Msg("subscription check failed; failing closed")
		}
		sub = nil
	}
	lifetime, err := uc.subs.FindLifetimeByUser(ctx, repository.NoTX, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			uc.log.Warn().Err(err).Str("user_id", userID).Msg("lifetime grant check failed; failing closed")
		}
		lifetime = nil
	}

	now := uc.now()
	ent := &model.Entitlement{TrialStarted: trialStarted}

	if trial != nil {
		ent.TrialActive = trial.ActiveAt(now)
		ent.TrialExpired = !ent.TrialActive
		ent.TrialEndsAt = trial.EndsAt
		if rem := trial.EndsAt.Sub(now); rem > 0 {
			ent.TrialRemaining = rem
		}
	}

	subGrants := sub.GrantsAt(now)
	switch {
	case lifetime != nil:
		ent.HasAccess = true
		ent.Tier = lifetime.Tier
	case subGrants:
		ent.HasAccess = true
		ent.Tier = sub.Tier
	case ent.TrialActive:
		ent.HasAccess = true
		ent.Tier = model.TierPremium
	default:
		ent.Tier = model.TierNone
	}

	metrics.ObserveEntitlement(ent.HasAccess, string(ent.Tier))

	// A resolution that just created the trial is not cached so the
	// TrialStarted disclosure stays one-shot.
	if uc.cache != nil && !trialStarted {
		uc.cache.Set(ctx, userID, ent)
	}
	return ent, nil
}

// trialLapsed reports whether a cached decision leans on a trial whose
// deadline has since passed. Trial expiry changes no row, so no change event
// evicts such entries; they must be re-checked against the clock instead.
func (uc *entitlementUC) trialLapsed(ent *model.Entitlement) bool {
	return ent.TrialActive && !ent.TrialEndsAt.IsZero() && !uc.now().Before(ent.TrialEndsAt)
}

func (uc *entitlementUC) Invalidate(ctx context.Context, userID string) {
	if uc.cache != nil {
		uc.cache.Del(ctx, userID)
	}
}

// ensureTrial loads the user's trial, creating it on first sight. Creation is
// idempotent: a silently failed insert is simply retried on the next call.
func (uc *entitlementUC) ensureTrial(ctx context.Context, userID string) (*model.Trial, bool) {
	trial, err := uc.trials.FindByUser(ctx, repository.NoTX, userID)
	if err == nil {
		return trial, false
	}
	if !errors.Is(err, domain.ErrNotFound) {
		uc.log.Warn().Err(err).Str("user_id", userID).Msg("trial lookup failed; treating as absent")
		return nil, false
	}

	trial, err = model.NewTrial(uuid.NewString(), userID, uc.now(), uc.trialDuration)
	if err != nil {
		uc.log.Error().Err(err).Str("user_id", userID).Msg("trial construction failed")
		return nil, false
	}
	if err := uc.trials.Save(ctx, repository.NoTX, trial); err != nil {
		uc.log.Warn().Err(err).Str("user_id", userID).Msg("trial creation failed; will retry on next check")
		return nil, false
	}
	metrics.IncTrialStarted()
	uc.log.Info().Str("user_id", userID).Time("ends_at", trial.EndsAt).Msg("trial activated")
	return trial, true
}

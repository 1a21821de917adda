package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Totals is the admin back-office counters snapshot.
type Totals struct {
	Users         int            `json:"total_users"`
	ActiveTrials  int            `json:"active_trials"`
	ActiveByTier  map[string]int `json:"active_subs_by_tier"`
	PlansThisWeek int            `json:"plans_generated_this_week"`
	CatalogBySlot map[string]int `json:"catalog_by_meal_type"`
}

type StatsUseCase interface {
	Totals(ctx context.Context) (*Totals, error)
}

type statsUC struct {
	users   repository.UserRepository
	trials  repository.TrialRepository
	subs    repository.SubscriptionRepository
	plans   repository.PlanRepository
	recipes repository.RecipeRepository

	now func() time.Time
	log *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, trials repository.TrialRepository, subs repository.SubscriptionRepository, plans repository.PlanRepository, recipes repository.RecipeRepository, logger *zerolog.Logger) *statsUC {
	l := logger.With().Str("component", "StatsUC").Logger()
	return &statsUC{users: users, trials: trials, subs: subs, plans: plans, recipes: recipes, now: time.Now, log: &l}
}

func (s *statsUC) Totals(ctx context.Context) (*Totals, error) {
	users, err := s.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	now := s.now()
	trials, err := s.trials.CountActive(ctx, repository.NoTX, now)
	if err != nil {
		return nil, err
	}
	byTier, err := s.subs.CountActiveByTier(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	plans, err := s.plans.CountSince(ctx, repository.NoTX, model.MondayOf(now))
	if err != nil {
		return nil, err
	}
	bySlot, err := s.recipes.CountByMealType(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	catalog := make(map[string]int, len(bySlot))
	for mt, n := range bySlot {
		catalog[string(mt)] = n
	}
	return &Totals{
		Users:         users,
		ActiveTrials:  trials,
		ActiveByTier:  byTier,
		PlansThisWeek: plans,
		CatalogBySlot: catalog,
	}, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/domain/ports/repository"
	"nutriplan-backend/internal/infra/logging"
	"nutriplan-backend/internal/infra/metrics"
)

// Compile-time check
var _ PlannerUseCase = (*plannerUC)(nil)

// PlannerUseCase allocates weekly meal plans and serves the week read path.
type PlannerUseCase interface {
	// Generate builds and persists a 7-day x 4-slot plan anchored at exactly
	// weekStart (no Monday normalization on the write path), replacing any
	// plan whose start date falls in the same window. Requires premium.
	Generate(ctx context.Context, userID string, weekStart time.Time) (*model.GeneratedPlan, error)
	// WeekView loads the plan for the ISO week containing anyDate, reshaped
	// into a day-name-keyed structure. Failures degrade to an empty view.
	WeekView(ctx context.Context, userID string, anyDate time.Time) (*model.WeekView, error)
}

// GenerationLock serializes regeneration per (user, week) across sessions.
// Best effort: when the lock backend is down, generation proceeds unguarded,
// which is safe because the window is always cleared before inserting.
type GenerationLock interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

const generationLockTTL = 30 * time.Second

type plannerUC struct {
	recipes repository.RecipeRepository
	plans   repository.PlanRepository
	users   repository.UserRepository
	ents    EntitlementUseCase
	txm     repository.TransactionManager
	lock    GenerationLock // nil disables cross-session locking

	shuffle func(n int, swap func(i, j int))
	log     *zerolog.Logger
}

// PlannerOption tweaks construction; used by tests to seed the shuffle.
type PlannerOption func(*plannerUC)

func WithShuffle(fn func(n int, swap func(i, j int))) PlannerOption {
	return func(uc *plannerUC) { uc.shuffle = fn }
}

func NewPlannerUseCase(recipes repository.RecipeRepository, plans repository.PlanRepository, users repository.UserRepository, ents EntitlementUseCase, txm repository.TransactionManager, lock GenerationLock, logger *zerolog.Logger, opts ...PlannerOption) *plannerUC {
	l := logger.With().Str("component", "PlannerUC").Logger()
	uc := &plannerUC{
		recipes: recipes,
		plans:   plans,
		users:   users,
		ents:    ents,
		txm:     txm,
		lock:    lock,
		shuffle: rand.Shuffle,
		log:     &l,
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

func (uc *plannerUC) Generate(ctx context.Context, userID string, weekStart time.Time) (*model.GeneratedPlan, error) {
	defer logging.TraceDuration(uc.log, "PlannerUC.Generate")()
	if userID == "" || weekStart.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	start := time.Now()

	// Gate before any read or write.
	ent, err := uc.ents.Resolve(ctx, userID)
	if err != nil || !ent.Tier.AtLeast(model.TierPremium) {
		metrics.ObserveGeneration("denied", time.Since(start))
		return nil, domain.ErrEntitlementRequired
	}

	weekStart = model.DateOf(weekStart)
	weekEnd := weekStart.AddDate(0, 0, model.PlanDays-1)

	if uc.lock != nil {
		key := fmt.Sprintf("planner:gen:%s:%s", userID, weekStart.Format("2006-01-02"))
		token, err := uc.lock.TryLock(ctx, key, generationLockTTL)
		switch {
		case err == nil:
			defer func() {
				if uerr := uc.lock.Unlock(context.WithoutCancel(ctx), key, token); uerr != nil {
					uc.log.Warn().Err(uerr).Str("key", key).Msg("generation lock release failed; TTL will expire it")
				}
			}()
		case errors.Is(err, domain.ErrGenerationInProgress):
			metrics.ObserveGeneration("locked", time.Since(start))
			return nil, domain.ErrGenerationInProgress
		default:
			uc.log.Warn().Err(err).Msg("generation lock unavailable; proceeding unguarded")
		}
	}

	catalog, err := uc.recipes.ListAll(ctx, repository.NoTX)
	if err != nil {
		metrics.ObserveGeneration("error", time.Since(start))
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(catalog) == 0 {
		metrics.ObserveGeneration("empty_catalog", time.Since(start))
		return nil, domain.ErrEmptyCatalog
	}

	buckets, repeated := uc.buildBuckets(catalog)

	calorieTarget, mealsPerDay := model.DefaultCalorieTarget, model.DefaultMealsPerDay
	if user, err := uc.users.FindByID(ctx, repository.NoTX, userID); err == nil {
		if user.CalorieTarget > 0 {
			calorieTarget = user.CalorieTarget
		}
		if user.MealsPerDay > 0 {
			mealsPerDay = user.MealsPerDay
		}
	}

	plan, err := model.NewWeeklyPlan(ulid.Make().String(), userID, weekStart, calorieTarget, mealsPerDay)
	if err != nil {
		return nil, err
	}

	items := make([]*model.PlanItem, 0, model.PlanDays*len(model.MealSlots))
	for day := 0; day < model.PlanDays; day++ {
		for _, slot := range model.MealSlots {
			bucket := buckets[slot]
			recipe := bucket[day%len(bucket)]
			item, err := model.NewPlanItem(ulid.Make().String(), plan.ID, day, slot, recipe)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	// Replacement of the window and insertion of the new plan happen in one
	// transaction; regeneration stays idempotent either way because the
	// delete always runs first.
	err = uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := uc.plans.DeleteByWindow(ctx, tx, userID, weekStart, weekEnd); err != nil {
			return err
		}
		if err := uc.plans.SavePlan(ctx, tx, plan); err != nil {
			return err
		}
		return uc.plans.SaveItems(ctx, tx, items)
	})
	if err != nil {
		metrics.ObserveGeneration("error", time.Since(start))
		return nil, fmt.Errorf("persist plan: %w", err)
	}

	metrics.ObserveGeneration("ok", time.Since(start))
	uc.log.Info().
		Str("user_id", userID).
		Time("week_start", weekStart).
		Bool("repeated", repeated).
		Int("items", len(items)).
		Msg("weekly plan generated")

	return &model.GeneratedPlan{Plan: plan, Items: items, RepeatedRecipes: repeated}, nil
}

// buildBuckets partitions the catalog by meal type, falling back to the whole
// unfiltered catalog for any slot with no matching recipes, and shuffles each
// bucket independently. Reports whether any bucket is smaller than the week.
func (uc *plannerUC) buildBuckets(catalog []*model.Recipe) (map[model.MealType][]*model.Recipe, bool) {
	byType := make(map[model.MealType][]*model.Recipe, len(model.MealSlots))
	for _, r := range catalog {
		byType[r.MealType] = append(byType[r.MealType], r)
	}

	buckets := make(map[model.MealType][]*model.Recipe, len(model.MealSlots))
	repeated := false
	for _, slot := range model.MealSlots {
		src := byType[slot]
		if len(src) == 0 {
			src = catalog
		}
		bucket := make([]*model.Recipe, len(src))
		copy(bucket, src)
		uc.shuffle(len(bucket), func(i, j int) { bucket[i], bucket[j] = bucket[j], bucket[i] })
		buckets[slot] = bucket
		if len(bucket) < model.PlanDays {
			repeated = true
		}
	}
	return buckets, repeated
}

func (uc *plannerUC) WeekView(ctx context.Context, userID string, anyDate time.Time) (*model.WeekView, error) {
	defer logging.TraceDuration(uc.log, "PlannerUC.WeekView")()
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	monday := model.MondayOf(anyDate)
	view := model.NewEmptyWeekView(monday)

	plan, err := uc.plans.FindByWindow(ctx, repository.NoTX, userID, monday, monday.AddDate(0, 0, model.PlanDays-1))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			uc.log.Warn().Err(err).Str("user_id", userID).Msg("week lookup failed; serving empty week")
		}
		return view, nil
	}

	items, err := uc.plans.FindItems(ctx, repository.NoTX, plan.ID)
	if err != nil {
		uc.log.Warn().Err(err).Str("plan_id", plan.ID).Msg("plan items load failed; serving empty week")
		return view, nil
	}

	for _, item := range items {
		if item.DayIndex < 0 || item.DayIndex >= model.PlanDays {
			continue
		}
		name := model.DayNames[item.DayIndex]
		view.Days[name] = append(view.Days[name], item)
	}
	return view, nil
}

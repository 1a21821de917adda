//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/domain/ports/repository"
	"nutriplan-backend/internal/usecase"
)

// noShuffle keeps every bucket in catalog order so item placement is
// deterministic.
func noShuffle(n int, swap func(i, j int)) {}

func mustRecipe(t *testing.T, id string, mt model.MealType) *model.Recipe {
	t.Helper()
	r, err := model.NewRecipe(id, "recipe "+id, mt, 500, 20, "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// catalog 4/1/4/4: four breakfasts, one lunch, four dinners, four snacks.
func smallCatalog(t *testing.T) []*model.Recipe {
	t.Helper()
	var out []*model.Recipe
	for i := 0; i < 4; i++ {
		out = append(out, mustRecipe(t, fmt.Sprintf("b%d", i), model.MealTypeBreakfast))
	}
	out = append(out, mustRecipe(t, "l0", model.MealTypeLunch))
	for i := 0; i < 4; i++ {
		out = append(out, mustRecipe(t, fmt.Sprintf("d%d", i), model.MealTypeDinner))
	}
	for i := 0; i < 4; i++ {
		out = append(out, mustRecipe(t, fmt.Sprintf("s%d", i), model.MealTypeSnack))
	}
	return out
}

func newPlanner(recipes *MockRecipeRepo, plans *MockPlanRepo, lock usecase.GenerationLock, ents usecase.EntitlementUseCase) usecase.PlannerUseCase {
	if ents == nil {
		ents = &MockEntitlements{}
	}
	return usecase.NewPlannerUseCase(recipes, plans, NewMockUserRepo(), ents, NewMockTxManager(), lock, nopLogger(), usecase.WithShuffle(noShuffle))
}

func TestGenerateFillsEveryCell(t *testing.T) {
	ctx := context.Background()
	plans := NewMockPlanRepo()
	uc := newPlanner(NewMockRecipeRepo(smallCatalog(t)...), plans, nil, nil)

	weekStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	gen, err := uc.Generate(ctx, "u1", weekStart)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if want := model.PlanDays * len(model.MealSlots); len(gen.Items) != want {
		t.Fatalf("items = %d, want %d", len(gen.Items), want)
	}

	// Every (day, slot) cell appears exactly once, with a slot-matching recipe.
	seen := map[string]bool{}
	for _, it := range gen.Items {
		key := fmt.Sprintf("%d/%s", it.DayIndex, it.MealType)
		if seen[key] {
			t.Errorf("cell %s assigned twice", key)
		}
		seen[key] = true
		if it.Recipe == nil {
			t.Fatalf("cell %s has no resolved recipe", key)
		}
		if it.Recipe.MealType != it.MealType {
			t.Errorf("cell %s filled with %s recipe %s", key, it.Recipe.MealType, it.Recipe.ID)
		}
	}
	if len(seen) != model.PlanDays*len(model.MealSlots) {
		t.Errorf("distinct cells = %d", len(seen))
	}

	if gen.Plan.StartDate != weekStart {
		t.Errorf("StartDate = %s", gen.Plan.StartDate)
	}
	if want := weekStart.AddDate(0, 0, 6); gen.Plan.EndDate != want {
		t.Errorf("EndDate = %s, want %s", gen.Plan.EndDate, want)
	}
}

func TestGenerateCyclesSmallBuckets(t *testing.T) {
	ctx := context.Background()
	uc := newPlanner(NewMockRecipeRepo(smallCatalog(t)...), NewMockPlanRepo(), nil, nil)

	gen, err := uc.Generate(ctx, "u1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !gen.RepeatedRecipes {
		t.Error("every bucket is smaller than the week; RepeatedRecipes should be set")
	}

	byCell := map[string]*model.PlanItem{}
	for _, it := range gen.Items {
		byCell[fmt.Sprintf("%d/%s", it.DayIndex, it.MealType)] = it
	}

	// The single lunch recipe covers all seven days.
	for day := 0; day < model.PlanDays; day++ {
		if got := byCell[fmt.Sprintf("%d/lunch", day)].RecipeID; got != "l0" {
			t.Errorf("day %d lunch = %s, want l0", day, got)
		}
	}

	// Four breakfasts cycle with period four: day d repeats day d-4.
	for day := 4; day < model.PlanDays; day++ {
		a := byCell[fmt.Sprintf("%d/breakfast", day)].RecipeID
		b := byCell[fmt.Sprintf("%d/breakfast", day-4)].RecipeID
		if a != b {
			t.Errorf("breakfast day %d = %s, day %d = %s; want same", day, a, day-4, b)
		}
	}
	// And the first four days are all distinct.
	distinct := map[string]bool{}
	for day := 0; day < 4; day++ {
		distinct[byCell[fmt.Sprintf("%d/breakfast", day)].RecipeID] = true
	}
	if len(distinct) != 4 {
		t.Errorf("first four breakfasts use %d distinct recipes, want 4", len(distinct))
	}
}

func TestGenerateFallsBackToWholeCatalog(t *testing.T) {
	// No snack recipes at all: the snack slot borrows from the whole catalog
	// instead of failing.
	ctx := context.Background()
	var catalog []*model.Recipe
	for i := 0; i < 7; i++ {
		catalog = append(catalog, mustRecipe(t, fmt.Sprintf("b%d", i), model.MealTypeBreakfast))
	}
	uc := newPlanner(NewMockRecipeRepo(catalog...), NewMockPlanRepo(), nil, nil)

	gen, err := uc.Generate(ctx, "u1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	snacks := 0
	for _, it := range gen.Items {
		if it.MealType == model.MealTypeSnack {
			snacks++
			if it.Recipe == nil {
				t.Fatal("snack cell unfilled")
			}
		}
	}
	if snacks != model.PlanDays {
		t.Errorf("snack cells = %d, want %d", snacks, model.PlanDays)
	}
}

func TestGenerateReplacesWindowInsideTx(t *testing.T) {
	ctx := context.Background()
	plans := NewMockPlanRepo()
	uc := newPlanner(NewMockRecipeRepo(smallCatalog(t)...), plans, nil, nil)

	weekStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := uc.Generate(ctx, "u1", weekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Generate(ctx, "u1", weekStart); err != nil {
		t.Fatal(err)
	}

	if got := plans.PlanCount(); got != 1 {
		t.Errorf("plans in window after regeneration = %d, want 1", got)
	}
	want := []string{"delete", "save_plan", "save_items", "delete", "save_plan", "save_items"}
	got := plans.Ops()
	if len(got) != len(want) {
		t.Fatalf("ops = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ops = %v, want %v", got, want)
		}
	}

	windows := plans.DeleteWindows()
	if len(windows) != 2 {
		t.Fatal("expected two delete calls")
	}
	if windows[0][0] != weekStart || windows[0][1] != weekStart.AddDate(0, 0, 6) {
		t.Errorf("delete window = %v", windows[0])
	}
}

func TestGenerateRequiresPremium(t *testing.T) {
	ctx := context.Background()
	recipes := NewMockRecipeRepo(smallCatalog(t)...)
	recipes.ListAllFunc = func(ctx context.Context, tx repository.Tx) ([]*model.Recipe, error) {
		t.Error("catalog must not be read for a denied caller")
		return nil, nil
	}
	ents := &MockEntitlements{ResolveFunc: func(ctx context.Context, userID string) (*model.Entitlement, error) {
		return &model.Entitlement{HasAccess: true, Tier: model.TierBasic}, nil
	}}
	uc := newPlanner(recipes, NewMockPlanRepo(), nil, ents)

	_, err := uc.Generate(ctx, "u1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, domain.ErrEntitlementRequired) {
		t.Errorf("err = %v, want ErrEntitlementRequired", err)
	}
}

func TestGenerateEmptyCatalog(t *testing.T) {
	uc := newPlanner(NewMockRecipeRepo(), NewMockPlanRepo(), nil, nil)
	_, err := uc.Generate(context.Background(), "u1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, domain.ErrEmptyCatalog) {
		t.Errorf("err = %v, want ErrEmptyCatalog", err)
	}
}

func TestGenerateLockContention(t *testing.T) {
	lock := &MockLocker{TryLockFunc: func(ctx context.Context, key string, ttl time.Duration) (string, error) {
		return "", domain.ErrGenerationInProgress
	}}
	uc := newPlanner(NewMockRecipeRepo(smallCatalog(t)...), NewMockPlanRepo(), lock, nil)

	_, err := uc.Generate(context.Background(), "u1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, domain.ErrGenerationInProgress) {
		t.Errorf("err = %v, want ErrGenerationInProgress", err)
	}
}

func TestGenerateProceedsWhenLockBackendDown(t *testing.T) {
	lock := &MockLocker{TryLockFunc: func(ctx context.Context, key string, ttl time.Duration) (string, error) {
		return "", errors.New("redis gone")
	}}
	uc := newPlanner(NewMockRecipeRepo(smallCatalog(t)...), NewMockPlanRepo(), lock, nil)

	if _, err := uc.Generate(context.Background(), "u1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Errorf("lock backend failure should not block generation: %v", err)
	}
}

func TestGenerateReleasesLock(t *testing.T) {
	lock := &MockLocker{}
	uc := newPlanner(NewMockRecipeRepo(smallCatalog(t)...), NewMockPlanRepo(), lock, nil)

	if _, err := uc.Generate(context.Background(), "u1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if len(lock.Unlocked) != 1 || lock.Unlocked[0] != "planner:gen:u1:2024-01-01" {
		t.Errorf("unlocked keys = %v", lock.Unlocked)
	}
}

func TestWeekViewNormalizesToMonday(t *testing.T) {
	ctx := context.Background()
	plans := NewMockPlanRepo()
	uc := newPlanner(NewMockRecipeRepo(smallCatalog(t)...), plans, nil, nil)

	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := uc.Generate(ctx, "u1", monday); err != nil {
		t.Fatal(err)
	}

	// Sunday Jan 7 belongs to the week starting Monday Jan 1.
	sunday := time.Date(2024, 1, 7, 15, 30, 0, 0, time.UTC)
	view, err := uc.WeekView(ctx, "u1", sunday)
	if err != nil {
		t.Fatalf("WeekView: %v", err)
	}
	if view.WeekStart != monday {
		t.Errorf("WeekStart = %s, want %s", view.WeekStart, monday)
	}
	total := 0
	for _, name := range model.DayNames {
		items, ok := view.Days[name]
		if !ok {
			t.Errorf("day %s missing from view", name)
		}
		total += len(items)
	}
	if want := model.PlanDays * len(model.MealSlots); total != want {
		t.Errorf("items in view = %d, want %d", total, want)
	}
}

func TestWeekViewDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assertEmpty := func(t *testing.T, view *model.WeekView, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("WeekView must not error: %v", err)
		}
		if view.WeekStart != monday {
			t.Errorf("WeekStart = %s", view.WeekStart)
		}
		if len(view.Days) != model.PlanDays {
			t.Errorf("day keys = %d, want %d", len(view.Days), model.PlanDays)
		}
		for name, items := range view.Days {
			if len(items) != 0 {
				t.Errorf("day %s not empty", name)
			}
		}
	}

	t.Run("no plan", func(t *testing.T) {
		uc := newPlanner(NewMockRecipeRepo(), NewMockPlanRepo(), nil, nil)
		view, err := uc.WeekView(ctx, "u1", date)
		assertEmpty(t, view, err)
	})

	t.Run("plan lookup fails", func(t *testing.T) {
		plans := NewMockPlanRepo()
		plans.FindByWindowFunc = func(ctx context.Context, tx repository.Tx, userID string, start, end time.Time) (*model.WeeklyPlan, error) {
			return nil, domain.ErrOperationFailed
		}
		uc := newPlanner(NewMockRecipeRepo(), plans, nil, nil)
		view, err := uc.WeekView(ctx, "u1", date)
		assertEmpty(t, view, err)
	})

	t.Run("item load fails", func(t *testing.T) {
		plans := NewMockPlanRepo()
		plans.FindByWindowFunc = func(ctx context.Context, tx repository.Tx, userID string, start, end time.Time) (*model.WeeklyPlan, error) {
			plan, _ := model.NewWeeklyPlan("p1", "u1", monday, 2000, 4)
			return plan, nil
		}
		plans.FindItemsFunc = func(ctx context.Context, tx repository.Tx, planID string) ([]*model.PlanItem, error) {
			return nil, domain.ErrOperationFailed
		}
		uc := newPlanner(NewMockRecipeRepo(), plans, nil, nil)
		view, err := uc.WeekView(ctx, "u1", date)
		assertEmpty(t, view, err)
	})
}

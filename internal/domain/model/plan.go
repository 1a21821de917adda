package model

import (
	"time"

	"nutriplan-backend/internal/domain"
)

// PlanDays is the fixed length of a weekly plan window.
const PlanDays = 7

// DayNames keys the week view; index 0 is the plan's first day.
var DayNames = [PlanDays]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeeklyPlan covers an inclusive [StartDate, EndDate] window of exactly
// seven days for one user. At most one plan may overlap a window at a time;
// the allocator enforces that, not the storage layer.
type WeeklyPlan struct {
	ID            string
	UserID        string
	StartDate     time.Time
	EndDate       time.Time
	CalorieTarget int
	MealsPerDay   int
	CreatedAt     time.Time
}

func NewWeeklyPlan(id, userID string, startDate time.Time, calorieTarget, mealsPerDay int) (*WeeklyPlan, error) {
	if id == "" || userID == "" || startDate.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	if calorieTarget < 0 || mealsPerDay <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	start := DateOf(startDate)
	return &WeeklyPlan{
		ID:            id,
		UserID:        userID,
		StartDate:     start,
		EndDate:       start.AddDate(0, 0, PlanDays-1),
		CalorieTarget: calorieTarget,
		MealsPerDay:   mealsPerDay,
		CreatedAt:     time.Now(),
	}, nil
}

// PlanItem assigns one recipe to one (day, meal slot) cell. DayIndex and
// MealType are carried redundantly for query convenience.
type PlanItem struct {
	ID       string
	PlanID   string
	DayIndex int
	MealType MealType
	RecipeID string

	// Recipe is resolved on the read/generate paths so the caller can render
	// without a second round trip. It is not persisted on the item itself.
	Recipe *Recipe
}

func NewPlanItem(id, planID string, dayIndex int, mealType MealType, recipe *Recipe) (*PlanItem, error) {
	if id == "" || planID == "" || recipe == nil || recipe.ID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if dayIndex < 0 || dayIndex >= PlanDays {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := ParseMealType(string(mealType)); err != nil {
		return nil, err
	}
	return &PlanItem{
		ID:       id,
		PlanID:   planID,
		DayIndex: dayIndex,
		MealType: mealType,
		RecipeID: recipe.ID,
		Recipe:   recipe,
	}, nil
}

// GeneratedPlan is the allocator's result: the persisted plan, its items with
// recipes resolved, and whether any slot bucket was too small for the week.
type GeneratedPlan struct {
	Plan            *WeeklyPlan
	Items           []*PlanItem
	RepeatedRecipes bool
}

// WeekView is the day-name-keyed read shape. All seven keys are always
// present, possibly with empty slices, even when no plan exists.
type WeekView struct {
	WeekStart time.Time
	Days      map[string][]*PlanItem
}

func NewEmptyWeekView(weekStart time.Time) *WeekView {
	days := make(map[string][]*PlanItem, PlanDays)
	for _, name := range DayNames {
		days[name] = []*PlanItem{}
	}
	return &WeekView{WeekStart: DateOf(weekStart), Days: days}
}

// DateOf truncates a timestamp to its calendar date, preserving location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MondayOf returns the Monday starting the ISO week containing t.
// Sunday counts as day seven of the prior week.
func MondayOf(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return DateOf(t).AddDate(0, 0, 1-wd)
}

package model

import (
	"fmt"
	"time"

	"nutriplan-backend/internal/domain"
)

type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// MealSlots is the fixed set of slots a day is divided into, in display order.
var MealSlots = [4]MealType{MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack}

func ParseMealType(s string) (MealType, error) {
	switch MealType(s) {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return MealType(s), nil
	}
	return "", fmt.Errorf("%w: unknown meal type %q", domain.ErrInvalidArgument, s)
}

// Recipe is an immutable catalog entry managed by an administrator.
type Recipe struct {
	ID           string
	Title        string
	MealType     MealType
	Calories     int
	PrepMinutes  int
	Ingredients  string
	Instructions string
	ImageURL     string
	CreatedAt    time.Time
}

// NewRecipe validates and constructs a recipe. Rows coming back from storage
// go through Validate instead so malformed rows are rejected, not propagated.
func NewRecipe(id, title string, mealType MealType, calories, prepMinutes int, ingredients, instructions, imageURL string) (*Recipe, error) {
	r := &Recipe{
		ID:           id,
		Title:        title,
		MealType:     mealType,
		Calories:     calories,
		PrepMinutes:  prepMinutes,
		Ingredients:  ingredients,
		Instructions: instructions,
		ImageURL:     imageURL,
		CreatedAt:    time.Now(),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Recipe) Validate() error {
	if r == nil || r.ID == "" || r.Title == "" {
		return domain.ErrInvalidArgument
	}
	if _, err := ParseMealType(string(r.MealType)); err != nil {
		return err
	}
	if r.Calories < 0 || r.PrepMinutes < 0 {
		return domain.ErrInvalidArgument
	}
	return nil
}

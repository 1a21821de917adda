package model

import (
	"time"

	"nutriplan-backend/internal/domain"
)

// User is the profile mirror of the auth collaborator's identity. Calorie
// target and meals-per-day feed plan generation defaults.
type User struct {
	ID            string
	Email         string
	DisplayName   string
	CalorieTarget int
	MealsPerDay   int
	Admin         bool
	RegisteredAt  time.Time
	LastActiveAt  time.Time
}

const (
	DefaultCalorieTarget = 2000
	DefaultMealsPerDay   = len(MealSlots)
)

func NewUser(id, email, displayName string) (*User, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:            id,
		Email:         email,
		DisplayName:   displayName,
		CalorieTarget: DefaultCalorieTarget,
		MealsPerDay:   DefaultMealsPerDay,
		RegisteredAt:  now,
		LastActiveAt:  now,
	}, nil
}

package repository

import (
	"context"

	"nutriplan-backend/internal/domain/model"
)

// UserRepository is the port for profile rows.
type UserRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	Save(ctx context.Context, tx Tx, user *model.User) error
	CountUsers(ctx context.Context, tx Tx) (int, error)
}

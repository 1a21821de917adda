package repository

import (
	"context"
	"time"

	"nutriplan-backend/internal/domain/model"
)

// TrialRepository is the port for one-shot trial grants. At most one trial
// exists per user; Save must be an upsert so a retried lazy creation stays
// idempotent.
type TrialRepository interface {
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.Trial, error)
	Save(ctx context.Context, tx Tx, trial *model.Trial) error
	CountActive(ctx context.Context, tx Tx, now time.Time) (int, error)
}

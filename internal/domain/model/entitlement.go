package model

import (
	"time"

	"nutriplan-backend/internal/domain"
)

// Tier ranks what a user may use. A higher tier satisfies any lower
// requirement.
type Tier string

const (
	TierNone    Tier = "none"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
	TierElite   Tier = "elite"
)

var tierRank = map[Tier]int{
	TierNone:    0,
	TierBasic:   1,
	TierPremium: 2,
	TierElite:   3,
}

func (t Tier) AtLeast(other Tier) bool { return tierRank[t] >= tierRank[other] }

func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if _, ok := tierRank[t]; !ok {
		return TierNone, domain.ErrInvalidArgument
	}
	return t, nil
}

// Trial is a one-time, non-renewing grant of premium access. Expiry is
// decided by comparing EndsAt against the wall clock at check time; the
// stored Active flag only records that the trial was ever started and is
// never trusted over the timestamp.
type Trial struct {
	ID        string
	UserID    string
	StartedAt time.Time
	EndsAt    time.Time
	Active    bool
}

func NewTrial(id, userID string, startedAt time.Time, duration time.Duration) (*Trial, error) {
	if id == "" || userID == "" || duration <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Trial{
		ID:        id,
		UserID:    userID,
		StartedAt: startedAt,
		EndsAt:    startedAt.Add(duration),
		Active:    true,
	}, nil
}

// ActiveAt reports whether the trial still grants access at the given time.
func (t *Trial) ActiveAt(now time.Time) bool {
	return t != nil && now.Before(t.EndsAt)
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

// Subscription mirrors the payment provider's record for one user. The
// authoritative state lives with the provider; this row is only re-read,
// never mutated locally except by the refresh sync. A Lifetime row is a
// subscription-like grant with no time bound.
type Subscription struct {
	ID        string
	UserID    string
	Tier      Tier
	Status    SubscriptionStatus
	ExpiresAt *time.Time // nil means no expiry
	Lifetime  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GrantsAt reports whether this record grants access at the given time:
// lifetime rows always do, others only when exactly active and unexpired.
func (s *Subscription) GrantsAt(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.Lifetime {
		return true
	}
	if s.Status != SubscriptionStatusActive {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// Entitlement is the resolved access decision for one user at one instant.
type Entitlement struct {
	HasAccess      bool
	Tier           Tier
	TrialActive    bool
	TrialExpired   bool
	TrialRemaining time.Duration
	// TrialEndsAt carries the trial deadline alongside the decision so a
	// cached copy can be re-checked against the clock before it is served.
	TrialEndsAt time.Time
	// TrialStarted discloses the resolver's one proactive write: a trial row
	// was created during this resolution. It is reported exactly once.
	TrialStarted bool
}

package payment

import (
	"context"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/ports/adapter"
)

var _ adapter.BillingGateway = (*NoopGateway)(nil)

// NoopGateway is for local development without a billing provider: checkout
// returns a placeholder URL and no user ever has a subscription.
type NoopGateway struct{}

func NewNoopGateway() *NoopGateway { return &NoopGateway{} }

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) CreateCheckout(ctx context.Context, userID, tier string) (adapter.CheckoutSession, error) {
	return adapter.CheckoutSession{URL: "https://checkout.invalid/session/dev", Reference: "dev"}, nil
}

func (g *NoopGateway) FetchSubscription(ctx context.Context, userID string) (*adapter.SubscriptionState, error) {
	return nil, domain.ErrNotFound
}

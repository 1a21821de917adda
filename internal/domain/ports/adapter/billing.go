package adapter

import (
	"context"
	"time"
)

// CheckoutSession points the client at the provider-hosted checkout page.
type CheckoutSession struct {
	URL       string
	Reference string // provider session id, for support/reconciliation
}

// SubscriptionState is the provider's authoritative view of one user's
// subscription, pulled on demand to re-sync the local mirror.
type SubscriptionState struct {
	Tier      string
	Status    string
	ExpiresAt *time.Time // nil means no expiry
	Lifetime  bool
}

// BillingGateway is the hex port for the external payment collaborator.
// Entitlement is granted out-of-band by the hosted checkout flow; this port
// only opens that flow and re-reads its outcome.
type BillingGateway interface {
	Name() string

	// CreateCheckout initiates a hosted checkout for the given tier and
	// returns the URL the client should open.
	CreateCheckout(ctx context.Context, userID, tier string) (CheckoutSession, error)

	// FetchSubscription returns the provider's current state for the user,
	// or ErrNotFound when the provider knows no subscription.
	FetchSubscription(ctx context.Context, userID string) (*SubscriptionState, error)
}

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/ports/adapter"
)

var _ adapter.BillingGateway = (*CheckoutGateway)(nil)

// CheckoutGateway talks to the hosted-checkout billing provider over its
// JSON API. The provider owns the whole payment flow; we only open checkout
// sessions and read back subscription state.
type CheckoutGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCheckoutGateway(baseURL, apiKey string) *CheckoutGateway {
	return &CheckoutGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *CheckoutGateway) Name() string { return "hosted-checkout" }

type checkoutRequest struct {
	UserID string `json:"user_id"`
	Tier   string `json:"tier"`
}

type checkoutResponse struct {
	URL       string `json:"url"`
	Reference string `json:"reference"`
}

func (g *CheckoutGateway) CreateCheckout(ctx context.Context, userID, tier string) (adapter.CheckoutSession, error) {
	body, err := json.Marshal(checkoutRequest{UserID: userID, Tier: tier})
	if err != nil {
		return adapter.CheckoutSession{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return adapter.CheckoutSession{}, err
	}
	g.setHeaders(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return adapter.CheckoutSession{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return adapter.CheckoutSession{}, fmt.Errorf("checkout provider http %d", resp.StatusCode)
	}

	var out checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.CheckoutSession{}, err
	}
	return adapter.CheckoutSession{URL: out.URL, Reference: out.Reference}, nil
}

type subscriptionResponse struct {
	Tier      string     `json:"tier"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at"`
	Lifetime  bool       `json:"lifetime"`
}

func (g *CheckoutGateway) FetchSubscription(ctx context.Context, userID string) (*adapter.SubscriptionState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/subscriptions/"+userID, nil)
	if err != nil {
		return nil, err
	}
	g.setHeaders(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("checkout provider http %d", resp.StatusCode)
	}

	var out subscriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &adapter.SubscriptionState{
		Tier:      out.Tier,
		Status:    out.Status,
		ExpiresAt: out.ExpiresAt,
		Lifetime:  out.Lifetime,
	}, nil
}

func (g *CheckoutGateway) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
}

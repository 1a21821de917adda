package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/usecase"
)

var _ usecase.EntitlementCache = (*EntitlementCache)(nil)

// EntitlementCache keeps resolved entitlements in redis for a short TTL.
// All failures degrade to a cache miss; the resolver recomputes from the
// database, so a flaky redis only costs latency, never correctness.
type EntitlementCache struct {
	client *Client
	ttl    time.Duration
	log    *zerolog.Logger
}

func NewEntitlementCache(client *Client, ttl time.Duration, logger *zerolog.Logger) *EntitlementCache {
	l := logger.With().Str("component", "entitlement-cache").Logger()
	return &EntitlementCache{client: client, ttl: ttl, log: &l}
}

func entitlementKey(userID string) string {
	return fmt.Sprintf("entitlement:%s", userID)
}

func (c *EntitlementCache) Get(ctx context.Context, userID string) (*model.Entitlement, bool) {
	raw, err := c.client.Get(ctx, entitlementKey(userID))
	if err != nil {
		if !IsNil(err) {
			c.log.Debug().Err(err).Msg("cache read failed")
		}
		return nil, false
	}
	var ent model.Entitlement
	if err := json.Unmarshal([]byte(raw), &ent); err != nil {
		return nil, false
	}
	return &ent, true
}

func (c *EntitlementCache) Set(ctx context.Context, userID string, ent *model.Entitlement) {
	raw, err := json.Marshal(ent)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, entitlementKey(userID), raw, c.ttl); err != nil {
		c.log.Debug().Err(err).Msg("cache write failed")
	}
}

func (c *EntitlementCache) Del(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, entitlementKey(userID)); err != nil {
		c.log.Debug().Err(err).Msg("cache invalidation failed")
	}
}

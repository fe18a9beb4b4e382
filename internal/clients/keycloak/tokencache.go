package keycloak

import (
	"context"
	"time"
)

// TokenCache stores short-lived service-account tokens so repeated admin
// calls skip the discovery fetch and client-credentials exchange. Lookup
// misses and store failures are invisible to callers; correctness never
// depends on the cache.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, token string, ttl time.Duration)
}

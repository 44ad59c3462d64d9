package middleware

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/benvon/calendar-todo/internal/request"
)

// DefaultRateLimit allows 20 requests per second per client
const DefaultRateLimit = "20-S"

// rateLimitPrefix namespaces limiter counters in a shared Redis
const rateLimitPrefix = "calendar-todo:ratelimit"

// RateLimit returns ulule/limiter middleware keyed on the client IP.
// Counters live in Redis when a client is given, otherwise in process memory.
// Forwarding headers only pick the key for requests from trusted proxies.
func RateLimit(formatted string, redisClient *redis.Client, trusted request.TrustedProxies) (func(http.Handler) http.Handler, error) {
	if formatted == "" {
		formatted = DefaultRateLimit
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", formatted, err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	} else {
		store = memorystore.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
	}

	instance := limiter.New(store, rate)
	keyGetter := func(r *http.Request) string {
		return request.ClientIP(r, trusted)
	}
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(keyGetter))
	return mw.Handler, nil
}

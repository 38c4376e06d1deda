package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const rateLimitPrefix = "shortlink:ratelimit"

// RateLimiter throttles requests per client IP. Counters live in process
// memory, or in Redis when an address is configured so that replicas share
// one budget.
type RateLimiter struct {
	mw     *stdlib.Middleware
	client *redis.Client
}

// RateLimitOptions configures NewRateLimiter.
type RateLimitOptions struct {
	// Rate is a formatted rate such as "100-M"; empty disables limiting.
	Rate string

	// RedisAddr selects the shared Redis store.
	RedisAddr string

	// TrustForwardHeader keys clients on X-Forwarded-For / X-Real-IP instead
	// of the connection address.
	TrustForwardHeader bool
}

// NewRateLimiter builds a limiter from opts.
func NewRateLimiter(ctx context.Context, opts RateLimitOptions, logger *zap.Logger) (*RateLimiter, error) {
	if opts.Rate == "" {
		return &RateLimiter{}, nil
	}

	parsed, err := limiter.NewRateFromFormatted(opts.Rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", opts.Rate, err)
	}

	rl := &RateLimiter{}
	var store limiter.Store
	if opts.RedisAddr != "" {
		rl.client = redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rl.client.Ping(pingCtx).Err(); err != nil {
			rl.client.Close()
			return nil, fmt.Errorf("redis is unreachable: %w", err)
		}

		store, err = sredis.NewStoreWithOptions(rl.client, limiter.StoreOptions{
			Prefix:   rateLimitPrefix,
			MaxRetry: 3,
		})
		if err != nil {
			rl.client.Close()
			return nil, err
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
	}

	rl.mw = stdlib.NewMiddleware(
		limiter.New(store, parsed, limiter.WithTrustForwardHeader(opts.TrustForwardHeader)),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("rate limiter failed", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}),
	)

	logger.Info("rate limiting enabled",
		zap.String("rate", opts.Rate),
		zap.Bool("redis", rl.client != nil),
		zap.Bool("trust_forward_header", opts.TrustForwardHeader),
	)
	return rl, nil
}

// Handler wraps next with the limiter. Throttled requests get 429.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	if rl == nil || rl.mw == nil {
		return next
	}
	return rl.mw.Handler(next)
}

// Close releases the Redis connection, if any.
func (rl *RateLimiter) Close() error {
	if rl == nil || rl.client == nil {
		return nil
	}
	return rl.client.Close()
}

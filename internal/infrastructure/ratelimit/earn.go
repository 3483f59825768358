package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/lumapay/marketplace-order-service/internal/domain"
	"golang.org/x/time/rate"
)

// swapped in tests
var timeNow = time.Now

// EarnRateLimiter caps the token amount a single user-wallet pair may earn
// per minute. Each pair gets its own token bucket sized to one minute's
// allowance, so a burst can spend the full minute at once but no more.
type EarnRateLimiter struct {
	amountPerMinute int64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewEarnRateLimiter(amountPerMinute int64) *EarnRateLimiter {
	return &EarnRateLimiter{
		amountPerMinute: amountPerMinute,
		limiters:        make(map[string]*rate.Limiter),
	}
}

func (l *EarnRateLimiter) AssertEarnLimit(ctx context.Context, userID, walletAddress string, amount int64) error {
	if amount > l.amountPerMinute {
		return domain.RateLimitExceeded(userID)
	}

	limiter := l.limiterFor(userID + "|" + walletAddress)
	if !limiter.AllowN(timeNow(), int(amount)) {
		return domain.RateLimitExceeded(userID)
	}
	return nil
}

func (l *EarnRateLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(l.amountPerMinute)/60.0), int(l.amountPerMinute))
		l.limiters[key] = limiter
	}
	return limiter
}

package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 30 * time.Minute
	limiterSweepTick = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware keeps one token bucket per client IP.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	refill  rate.Limit
	burst   int
	log     zerolog.Logger
}

// NewRateLimiterMiddleware creates a limiter refilling refillPerSecond tokens
// into buckets of bucketSize. Idle clients are swept until ctx is done.
func NewRateLimiterMiddleware(ctx context.Context, refillPerSecond, bucketSize int, log zerolog.Logger) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		refill:  rate.Limit(refillPerSecond),
		burst:   bucketSize,
		log:     log.With().Str("component", "ratelimit").Logger(),
	}
	go rm.sweep(ctx)
	return rm
}

func (rm *RateLimiterMiddleware) get(key string) *rate.Limiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	cl, ok := rm.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rm.refill, rm.burst)}
		rm.clients[key] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

func (rm *RateLimiterMiddleware) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		rm.mu.Lock()
		removed := 0
		for id, cl := range rm.clients {
			if time.Since(cl.lastSeen) > limiterIdleTTL {
				delete(rm.clients, id)
				removed++
			}
		}
		rm.mu.Unlock()
		if removed > 0 {
			rm.log.Debug().Int("removed", removed).Msg("rate limiter sweep")
		}
	}
}

// Limit creates the Gin middleware handler.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		if !rm.get(client).Allow() {
			rm.log.Warn().Str("client", client).Str("path", c.FullPath()).Msg("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}

package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sentrygate/securevault/config"
	"github.com/sentrygate/securevault/utils"
)

// RateLimitMiddleware applies a per-IP request limit. With Redis configured
// the window is shared across processes; otherwise an in-process token
// bucket is used.
func RateLimitMiddleware() gin.HandlerFunc {
	cfg := config.Get()
	if utils.RedisEnabled() {
		return redisRateLimit(cfg.RateLimitPerMinute)
	}
	return memoryRateLimit(cfg.RateLimitPerMinute)
}

// redisRateLimit counts requests in fixed one-minute windows keyed by client
// IP. Redis errors fail open: an unavailable limiter must not take down the
// upload path.
func redisRateLimit(perMinute int) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rdb := utils.GetRedis()
		key := fmt.Sprintf("ratelimit:%s:%d", ctx.ClientIP(), time.Now().Unix()/60)

		count, err := rdb.Incr(ctx.Request.Context(), key).Result()
		if err != nil {
			utils.Sugar.Warnf("rate limiter redis error, failing open: %v", err)
			ctx.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx.Request.Context(), key, time.Minute)
		}
		if count > int64(perMinute) {
			tooManyRequests(ctx)
			return
		}
		ctx.Next()
	}
}

type ipLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

func memoryRateLimit(perMinute int) gin.HandlerFunc {
	if perMinute < 1 {
		perMinute = 1
	}
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	burst := perMinute/2 + 1

	var (
		mu       sync.Mutex
		limiters = map[string]*ipLimiter{}
	)

	return func(ctx *gin.Context) {
		ip := ctx.ClientIP()

		mu.Lock()
		now := time.Now()
		for key, l := range limiters {
			if now.After(l.expires) {
				delete(limiters, key)
			}
		}
		l, ok := limiters[ip]
		if !ok {
			l = &ipLimiter{limiter: rate.NewLimiter(limit, burst)}
			limiters[ip] = l
		}
		l.expires = now.Add(5 * time.Minute)
		allowed := l.limiter.Allow()
		mu.Unlock()

		if !allowed {
			tooManyRequests(ctx)
			return
		}
		ctx.Next()
	}
}

func tooManyRequests(ctx *gin.Context) {
	ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"message": "rate limit exceeded",
	})
}

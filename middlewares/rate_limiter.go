package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter is a sliding-window limiter keyed by client IP.
type RateLimiter struct {
	rate     int
	interval time.Duration
	ips      map[string][]time.Time
	mu       sync.Mutex
}

func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		rate:     rate,
		interval: interval,
		ips:      make(map[string][]time.Time),
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.interval)
	valid := rl.ips[ip][:0]
	for _, t := range rl.ips[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.rate {
		rl.ips[ip] = valid
		return false
	}
	rl.ips[ip] = append(valid, now)
	return true
}

// Prune forgets IPs with no request inside the window and returns how many
// were dropped.
func (rl *RateLimiter) Prune(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.interval)
	n := 0
	for ip, times := range rl.ips {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(rl.ips, ip)
			n++
		}
	}
	return n
}

// StrictRateLimiter allows burst requests per client IP and refills one
// token per minute/burst. Used for login and signup.
type StrictRateLimiter struct {
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewStrictRateLimiter(burst int) *StrictRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &StrictRateLimiter{
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (sl *StrictRateLimiter) limiter(ip string) *rate.Limiter {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	limiter, ok := sl.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(sl.burst)), sl.burst)
		sl.limiters[ip] = limiter
	}
	return limiter
}

func (sl *StrictRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sl.limiter(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": "Too many attempts, please wait a moment",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Prune drops limiters that have refilled to a full burst, which a new
// limiter for the same IP would match, and returns how many were dropped.
func (sl *StrictRateLimiter) Prune(now time.Time) int {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	n := 0
	for ip, limiter := range sl.limiters {
		if limiter.TokensAt(now) >= float64(sl.burst) {
			delete(sl.limiters, ip)
			n++
		}
	}
	return n
}

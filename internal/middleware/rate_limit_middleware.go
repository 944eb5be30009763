package middleware

import (
	"fmt"
	"log"
	"net/http"

	appRedis "github.com/joaoc-dev/blueledger-sub001/internal/redis"
)

// RateLimitMiddleware throttles state-changing requests per actor. It runs
// after authentication and before any authorization or state is touched; a
// limited request gets 429 without side effects. A limiter outage fails
// open: availability over throttling accuracy.
func RateLimitMiddleware(next http.Handler, limiter appRedis.RateLimiter, bucket string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "missing authenticated user", http.StatusUnauthorized)
			return
		}

		key := fmt.Sprintf("%d:%s", userID, bucket)
		allowed, err := limiter.Allow(r.Context(), key)
		if err != nil {
			log.Printf("Warning: rate limiter unavailable for %s: %v", key, err)
			allowed = true
		}
		if !allowed {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"
)

// Throttle is the global requests-per-second guard in front of the API.
// It protects the process from request floods; the per-session message
// budget is enforced separately by the chat pipeline.
func Throttle(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"error":   "Zbyt wiele żądań. Spróbuj ponownie za chwilę.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

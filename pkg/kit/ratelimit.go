package kit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

const tooManyRequests = "Too Many Requests"

// RateLimitByIP admits at most limit requests per client address within a
// rolling window. Rejected requests get a JSON 429 naming the client.
func RateLimitByIP(limit int, window time.Duration, log *zap.Logger) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			msg := fmt.Sprintf("Rate limit exceeded for IP: %s at %s",
				clientIP(r), time.Now().UTC().Format(time.RFC3339Nano))
			if log != nil {
				log.Warn(msg, zap.String("path", r.URL.Path))
			}
			WriteErrorMessage(w, http.StatusTooManyRequests, tooManyRequests, msg)
		}),
	)
}

func clientIP(r *http.Request) string {
	ip, err := httprate.KeyByIP(r)
	if err != nil || ip == "" {
		return r.RemoteAddr
	}
	return ip
}

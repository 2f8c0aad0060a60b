package middleware

import (
	"net/http"

	"github.com/ulule/limiter/v3"
	stdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const rateLimitedBody = `{"error":{"type":"RATE_LIMITED","code":"RATE_LIMITED","message":"too many requests, try again later"}}`

// NewIPRateLimiter limits requests per client IP using an in-memory store.
// rateFormatted uses the limiter syntax ("20-M" is 20 per minute); empty
// disables limiting. The key is the socket address unless trustForwardHeader
// is set, which is only safe behind a proxy that overwrites X-Forwarded-For.
func NewIPRateLimiter(rateFormatted string, trustForwardHeader bool) (func(next http.Handler) http.Handler, error) {
	if rateFormatted == "" {
		return noopMiddleware, nil
	}
	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(memory.NewStore(), rate, limiter.WithTrustForwardHeader(trustForwardHeader))
	mw := stdlib.NewMiddleware(instance, stdlib.WithLimitReachedHandler(limitReached))
	return mw.Handler, nil
}

func limitReached(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(rateLimitedBody))
}

func noopMiddleware(next http.Handler) http.Handler {
	return next
}

package appMiddleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/FACorreiaa/go-recipe-catalog/config"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
)

// RateLimit limits requests per client IP using the given rule. Rejected
// requests get a 429 error envelope carrying message. Put it behind
// middleware.RealIP so proxied clients are told apart.
func RateLimit(rule config.RateLimitRule, message string, logger *slog.Logger) func(http.Handler) http.Handler {
	return httprate.Limit(
		rule.Requests,
		rule.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.WarnContext(r.Context(), "Rate limit exceeded",
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("request_id", middleware.GetReqID(r.Context())))
			api.ErrorResponse(w, r, http.StatusTooManyRequests, message)
		}),
	)
}

// RateLimiters groups the three limiter tiers of the API.
type RateLimiters struct {
	Default func(http.Handler) http.Handler
	Auth    func(http.Handler) http.Handler
	Search  func(http.Handler) http.Handler
}

func NewRateLimiters(cfg *config.Config, logger *slog.Logger) RateLimiters {
	l := logger.With(slog.String("middleware", "RateLimit"))
	return RateLimiters{
		Default: RateLimit(cfg.RateLimit.Default, api.MsgTooManyRequests, l),
		Auth:    RateLimit(cfg.RateLimit.Auth, api.MsgTooManyAuthRequests, l),
		Search:  RateLimit(cfg.RateLimit.Search, api.MsgTooManySearchRequest, l),
	}
}

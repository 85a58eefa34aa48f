package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/saborhub/saborhub-backend/api/responses"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy throttles one traffic surface per client IP and per cart session.
type RateLimitPolicy struct {
	name         string
	window       time.Duration
	ipLimit      int
	sessionLimit int
}

func NewRateLimitPolicy(name string, window time.Duration, ipLimit, sessionLimit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:         strings.ToLower(strings.TrimSpace(name)),
		window:       window,
		ipLimit:      ipLimit,
		sessionLimit: sessionLimit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.sessionLimit > 0)
}

func (p RateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "public"
	}
	return p.name
}

// RateLimit counts requests in fixed windows. The session counter only applies
// once CartSession has run.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			checks := []struct {
				scope string
				value string
				limit int
			}{
				{"ip", clientIP(r), policy.ipLimit},
				{"session", CartSessionFromContext(ctx), policy.sessionLimit},
			}
			for _, check := range checks {
				if check.limit <= 0 || check.value == "" {
					continue
				}
				scope := policy.normalizedName() + ":" + check.scope + ":" + check.value
				allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(check.limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"scope":          check.scope,
							"policy":         policy.normalizedName(),
							"attempts":       count,
							"limit":          check.limit,
							"window_seconds": int(policy.window.Seconds()),
						}), "rate_limit.blocked")
					}
					w.Header().Set("Retry-After", retryAfter(policy.window))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(window time.Duration) string {
	seconds := int(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

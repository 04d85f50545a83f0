package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/config"
	"github.com/valisyam/shub/internal/domain"
	"go.uber.org/zap"
)

// defaultCredentialsPerMinute applies when RateLimit.CredentialsPerMinute is unset
const defaultCredentialsPerMinute = 10

// RateLimiter builds the three request budgets of the API:
//   - per client IP for every request (LimitByIP)
//   - per account once a caller is authenticated (Limit)
//   - per IP and endpoint on the public credential routes (LimitCredentials)
type RateLimiter struct {
	cfg    *config.RateLimitConfig
	logger *zap.Logger

	byIP          func(http.Handler) http.Handler
	byUser        func(http.Handler) http.Handler
	byCredentials func(http.Handler) http.Handler

	exemptIPs      map[string]struct{}
	exemptPaths    map[string]struct{}
	exemptPrefixes []string
}

// NewRateLimiter creates the limiters described by cfg
func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		cfg:         cfg,
		logger:      logger,
		exemptIPs:   make(map[string]struct{}, len(cfg.WhitelistIPs)),
		exemptPaths: make(map[string]struct{}, len(cfg.WhitelistPaths)),
	}
	for _, ip := range cfg.WhitelistIPs {
		rl.exemptIPs[ip] = struct{}{}
	}
	for _, p := range cfg.WhitelistPaths {
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			rl.exemptPrefixes = append(rl.exemptPrefixes, prefix)
			continue
		}
		rl.exemptPaths[p] = struct{}{}
	}

	credentials := cfg.CredentialsPerMinute
	if credentials <= 0 {
		credentials = defaultCredentialsPerMinute
	}

	rl.byIP = rl.limiter(cfg.RequestsPerMinute, func(r *http.Request) (string, error) {
		return "ip:" + clientIP(r), nil
	})
	rl.byUser = rl.limiter(cfg.RequestsPerMinuteAuth, func(r *http.Request) (string, error) {
		if userCtx, ok := auth.FromContext(r.Context()); ok && userCtx != nil {
			return "user:" + userCtx.UserID.String(), nil
		}
		return "ip:" + clientIP(r), nil
	})
	rl.byCredentials = rl.limiter(credentials, func(r *http.Request) (string, error) {
		return "cred:" + clientIP(r), nil
	}, httprate.KeyByEndpoint)

	if cfg.Enabled {
		logger.Info("rate limiting enabled",
			zap.Int("requests_per_minute", cfg.RequestsPerMinute),
			zap.Int("requests_per_minute_auth", cfg.RequestsPerMinuteAuth),
			zap.Int("credentials_per_minute", credentials),
			zap.Int("exempt_ips", len(rl.exemptIPs)),
		)
	}
	return rl
}

func (rl *RateLimiter) limiter(perMinute int, keys ...httprate.KeyFunc) func(http.Handler) http.Handler {
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(keys...),
		httprate.WithLimitHandler(rl.tooManyRequests),
	)
}

// exempt reports whether the request skips rate limiting entirely
func (rl *RateLimiter) exempt(r *http.Request) bool {
	if _, ok := rl.exemptIPs[clientIP(r)]; ok {
		return true
	}
	if _, ok := rl.exemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range rl.exemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

func (rl *RateLimiter) wrap(limit func(http.Handler) http.Handler, next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}
	limited := limit(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// LimitByIP applies the per-IP budget. It runs before authentication.
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	return rl.wrap(rl.byIP, next)
}

// Limit applies the per-account budget. Mount it after Authenticate.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return rl.wrap(rl.byUser, next)
}

// LimitCredentials applies the strict budget of login, verification and
// password reset endpoints
func (rl *RateLimiter) LimitCredentials(next http.Handler) http.Handler {
	return rl.wrap(rl.byCredentials, next)
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (rl *RateLimiter) tooManyRequests(w http.ResponseWriter, r *http.Request) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("client_ip", clientIP(r)),
	}
	if userCtx, ok := auth.FromContext(r.Context()); ok && userCtx != nil {
		fields = append(fields, zap.String("user_id", userCtx.UserID.String()))
	}
	rl.logger.Warn("rate limit exceeded", fields...)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(domain.ErrorResponse{
		Error:   http.StatusText(http.StatusTooManyRequests),
		Message: "Too many requests. Please try again later.",
	})
}

package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// rateDimension counts requests that share a subject, such as a client IP or
// an account email. An empty subject skips the dimension for that request.
type rateDimension struct {
	name    string
	limit   int64
	needs   bool
	subject func(r *http.Request, body []byte) string
}

// AuthRateLimitPolicy throttles one credential endpoint per client IP and per
// submitted email.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	dimensions []rateDimension
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	policy := AuthRateLimitPolicy{name: name, window: window}
	if ipLimit > 0 {
		policy.dimensions = append(policy.dimensions, rateDimension{
			name:  "ip",
			limit: int64(ipLimit),
			subject: func(r *http.Request, _ []byte) string {
				return clientIP(r)
			},
		})
	}
	if emailLimit > 0 {
		policy.dimensions = append(policy.dimensions, rateDimension{
			name:  "email",
			limit: int64(emailLimit),
			needs: true,
			subject: func(_ *http.Request, body []byte) string {
				email := strings.ToLower(strings.TrimSpace(emailFromBody(body)))
				if email == "" {
					return ""
				}
				sum := sha256.Sum256([]byte(email))
				return hex.EncodeToString(sum[:])
			},
		})
	}
	return policy
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && len(p.dimensions) > 0
}

func (p AuthRateLimitPolicy) readsBody() bool {
	for _, d := range p.dimensions {
		if d.needs {
			return true
		}
	}
	return false
}

// AuthRateLimit rejects a request with 429 once any dimension exceeds its
// limit inside the policy window.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var body []byte
			if policy.readsBody() {
				var err error
				if body, err = io.ReadAll(r.Body); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			for _, dim := range policy.dimensions {
				subject := dim.subject(r, body)
				if subject == "" {
					continue
				}
				scope := policy.name + ":" + dim.name + ":" + subject
				allowed, count, err := store.FixedWindowAllow(ctx, scope, dim.limit, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check"))
					return
				}
				if !allowed {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":    policy.name,
							"dimension": dim.name,
							"attempts":  count,
							"limit":     dim.limit,
						}), "auth request throttled")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop since the API runs behind a
// load balancer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func emailFromBody(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/clearstack/opsdesk/internal/auth"
	"github.com/clearstack/opsdesk/internal/config"
	"github.com/clearstack/opsdesk/internal/domain"
)

type Middleware func(http.Handler) http.Handler

type ctxKey string

const (
	identityKey ctxKey = "identity"
	tokenKey    ctxKey = "token"
)

// GetIdentity extracts the signed-in identity from the request context,
// falling back to the guest identity.
func GetIdentity(ctx context.Context) *domain.Identity {
	id, ok := ctx.Value(identityKey).(*domain.Identity)
	if !ok {
		return domain.Guest()
	}
	return id
}

// GetToken extracts the session token, empty when not signed in.
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// Recover returns middleware that recovers from handler panics.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("panic recovered in handler",
						"panic", rec,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Logging returns middleware that logs request processing time.
func Logging() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			slog.Debug("request processed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// RateLimit returns middleware enforcing a per-minute fixed window per
// caller (signed-in email, or remote address for guests).
func RateLimit() Middleware {
	var (
		mu     sync.Mutex
		window time.Time
		counts = make(map[string]int)
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := GetIdentity(r.Context()).Email
			if caller == "" {
				caller = r.RemoteAddr
			}

			mu.Lock()
			now := time.Now()
			if now.Sub(window) >= time.Minute {
				window = now
				counts = make(map[string]int)
			}
			counts[caller]++
			over := counts[caller] > config.RateLimitPerMinute
			mu.Unlock()

			if over {
				slog.Debug("rate limited", "caller", caller)
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityLoader returns middleware that resolves the session token into
// the request context. Requests without a valid token proceed as guest.
func IdentityLoader(mgr *auth.Manager) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(sessionCookie); err == nil {
					token = c.Value
				}
			}
			if token != "" {
				if id, err := mgr.Identity(token); err == nil {
					ctx := context.WithValue(r.Context(), identityKey, id)
					ctx = context.WithValue(ctx, tokenKey, token)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

// Chain applies middlewares outermost-first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

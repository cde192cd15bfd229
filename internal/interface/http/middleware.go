package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mentorship-hub/mentorship-engine/internal/application/identity"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/pkg/logger"
)

// Headers set by the upstream authentication layer. They are trusted as-is.
const (
	headerAccountID   = "X-Account-ID"
	headerAccountRole = "X-Account-Role"
	headerRequestID   = "X-Request-ID"
)

type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
	contextKeyAccount   contextKey = "account"
	contextKeyCaller    contextKey = "caller"
)

// requestContext assigns the request ID and attaches a request-scoped logger.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(headerRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)

		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		ctx = logger.WithContext(ctx, s.logger.WithRequestID(requestID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs every request once it has been served.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger.FromContext(r.Context()).Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Int("bytes", ww.BytesWritten()),
			logger.Latency(time.Since(start)),
			logger.String("ip", r.RemoteAddr),
		)
	})
}

// recoverer turns a handler panic into a 500 response.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.FromContext(r.Context()).Error("panic recovered",
				logger.Any("panic", rec),
				logger.String("stack", string(debug.Stack())),
				logger.String("path", r.URL.Path),
			)
			writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "An unexpected error occurred", nil)
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimit applies the per-client request budget.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(r.RemoteAddr, time.Now()) {
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, r, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests, please try again later", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the caller from the trusted identity headers.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc := mentorship.Account{
			ID:   strings.TrimSpace(r.Header.Get(headerAccountID)),
			Role: mentorship.AccountRole(strings.ToLower(strings.TrimSpace(r.Header.Get(headerAccountRole)))),
		}
		ctx := context.WithValue(r.Context(), contextKeyAccount, acc)

		caller, err := s.deps.Resolver.Current(ctx, requestIdentity{})
		if err != nil {
			s.writeError(w, r.WithContext(ctx), err)
			return
		}

		ctx = context.WithValue(ctx, contextKeyCaller, caller)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(logger.AccountID(acc.ID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestIdentity reads the account authenticate stored in the context.
type requestIdentity struct{}

// CurrentAccount implements mentorship.IdentityContext.
func (requestIdentity) CurrentAccount(ctx context.Context) (mentorship.Account, error) {
	acc, ok := ctx.Value(contextKeyAccount).(mentorship.Account)
	if !ok || acc.ID == "" {
		return mentorship.Account{}, identity.ErrNoAccount
	}
	return acc, nil
}

func callerFrom(ctx context.Context) mentorship.Caller {
	caller, _ := ctx.Value(contextKeyCaller).(mentorship.Caller)
	return caller
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

// rateLimiter is a sliding-window limiter keyed by client address.
type rateLimiter struct {
	mu        sync.Mutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	lastSweep time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow records a request from key at now and reports whether it fits the budget.
func (rl *rateLimiter) Allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := now.Add(-rl.window)
	if now.Sub(rl.lastSweep) > rl.window {
		rl.sweep(windowStart)
		rl.lastSweep = now
	}

	valid := recent(rl.requests[key], windowStart)
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}

// sweep drops keys with no requests in the window.
func (rl *rateLimiter) sweep(windowStart time.Time) {
	for key, times := range rl.requests {
		if valid := recent(times, windowStart); len(valid) > 0 {
			rl.requests[key] = valid
		} else {
			delete(rl.requests, key)
		}
	}
}

func recent(times []time.Time, windowStart time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(windowStart) {
		i++
	}
	return times[i:]
}

package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
)

// requestID tags each request with the caller's X-Request-Id or a fresh
// UUID. The id is stored where middleware.Logger looks for it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) corsMiddleware() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: h.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", h.cfg.Auth.Header, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         h.cfg.CORS.MaxAge,
	})
}

// authMiddleware rejects requests without the configured shared secret.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	key := []byte(h.cfg.Auth.APIKey)
	if len(key) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get(h.cfg.Auth.Header))
		if subtle.ConstantTimeCompare(got, key) != 1 {
			h.writeJSON(w, http.StatusUnauthorized, APIResponse{Result: "Unauthorized."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware limits requests per client IP. With a shared counter
// the limit holds across every instance behind the load balancer.
func (h *Handler) rateLimitMiddleware() func(http.Handler) http.Handler {
	opts := []httprate.Option{
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if h.recorder != nil {
				h.recorder.IncRateLimited()
			}
			h.writeJSON(w, http.StatusTooManyRequests, APIResponse{Result: "Too many requests."})
		}),
	}
	if h.counter != nil {
		opts = append(opts, httprate.WithLimitCounter(h.counter))
	}
	return httprate.Limit(h.cfg.RateLimit.Requests, h.cfg.RateLimit.Window, opts...)
}

// metricsMiddleware records status and latency per route pattern.
func (h *Handler) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.recorder.ObserveHTTP(route, r.Method, status, time.Since(start))
	})
}

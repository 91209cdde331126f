// Package http exposes the balance ledger, the goal registry and goal
// progress as a JSON API.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"stackit/internal/core"
	applog "stackit/internal/log"
	"stackit/internal/metrics"
	"stackit/internal/middleware/ratelimit"
	"stackit/internal/middleware/security"
	"stackit/internal/middleware/trace"
)

type (
	BalanceLedger interface {
		List(ctx context.Context) ([]core.MonthlyBalance, error)
		Upsert(ctx context.Context, b core.MonthlyBalance) (core.MonthlyBalance, error)
		Delete(ctx context.Context, id int64) (core.MonthlyBalance, error)
	}

	GoalRegistry interface {
		List(ctx context.Context) ([]core.Goal, error)
		Create(ctx context.Context, g core.Goal) (core.Goal, error)
		Delete(ctx context.Context, id int64) (core.Goal, error)
	}

	ProgressComputer interface {
		Compute(ctx context.Context) ([]core.Goal, error)
	}
)

// Deps are the services behind the API.
type Deps struct {
	Ledger   BalanceLedger
	Goals    GoalRegistry
	Progress ProgressComputer
	// Ready reports whether the record store is reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Options tune the server. A zero RateLimitPerMinute disables write limiting;
// a nil Logger falls back to the slog default.
type Options struct {
	RateLimitPerMinute int
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	detector := security.NewDetector()
	h := &api{deps: deps}

	r := chi.NewRouter()
	r.Use(lowercasePath)
	r.Use(chimw.StripSlashes)
	if opts.Logger != nil {
		r.Use(applog.Middleware(opts.Logger))
	}
	r.Use(trace.NewMiddleware(detector.ExtractClientIP).Middleware)
	r.Use(applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	}))
	r.Use(chimw.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(detector.Middleware)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}

	writes := func(next http.Handler) http.Handler { return next }
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
		writes = s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", h.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/monthlybalances", func(r chi.Router) {
		r.Get("/", h.listBalances)
		r.With(writes).Post("/", h.upsertBalance)
		r.With(writes).Delete("/{id}", h.deleteBalance)
	})
	r.Route("/savinggoals", func(r chi.Router) {
		r.Get("/", h.listGoals)
		r.With(writes).Post("/", h.createGoal)
		r.With(writes).Delete("/{id}", h.deleteGoal)
	})
	r.Get("/goalprogress", h.goalProgress)

	return s
}

// Shutdown stops background routines and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// lowercasePath makes route segments case-insensitive. Ids are numeric, so
// nothing case-sensitive is lost.
func lowercasePath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lower := strings.ToLower(r.URL.Path); lower != r.URL.Path {
			r2 := r.Clone(r.Context())
			r2.URL.Path = lower
			r2.URL.RawPath = ""
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fight-core/internal/config"
	"fight-core/internal/match"
	"fight-core/internal/moves"
)

// EngineInterface defines the match engine methods used by the API.
// This interface enables mocking for tests without spinning up the loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// GetState returns a consistent snapshot taken under the engine lock
	GetState() match.MatchSnapshot
	// GetSnapshot returns the latest published snapshot without locking
	GetSnapshot() match.MatchSnapshot
	// Stats returns match counters
	Stats() match.Stats
	// GetEventLogStats returns trace writer counters
	GetEventLogStats() match.LogStats
	// Table returns the move table the next round will use
	Table() *moves.Table
	// Config returns the match tuning
	Config() config.MatchConfig
	// Reset starts a new match
	Reset()
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: engine,
//	    Inputs: api.NewRemoteInput(0),
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the match engine (required)
	Engine EngineInterface

	// Inputs receives remote commands and actions (required for control routes)
	Inputs *RemoteInput

	// Auth guards control routes. If nil, control routes are open.
	Auth *ControlAuth

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, only localhost origins are allowed.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine      EngineInterface
	inputs      *RemoteInput
	auth        *ControlAuth
	rateLimiter *IPRateLimiter
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects beyond the
// rate limiter's cleanup goroutine:
//   - No network listeners are opened
//   - The engine is not started
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// CORS configuration
	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", ControlTokenHeader},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		engine:      cfg.Engine,
		inputs:      cfg.Inputs,
		auth:        cfg.Auth,
		rateLimiter: rateLimiter,
	}

	r.Route("/api", func(r chi.Router) {
		// Match state
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/moves", h.handleGetMoves)
		r.Get("/auth", h.handleAuthStatus)

		// Debug
		r.Get("/debug/frame.png", h.handleDebugFrame)

		// Control routes
		r.Group(func(r chi.Router) {
			if cfg.Auth != nil {
				r.Use(cfg.Auth.Middleware)
			}
			r.Post("/match/reset", h.handleMatchReset)
			r.Post("/fighter/{slot}/commands", h.handleFighterCommands)
			r.Post("/fighter/{slot}/action", h.handleFighterAction)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/state", http.StatusFound)
	})

	return r
}

// metricsMiddleware records latency by route pattern, never by raw path
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

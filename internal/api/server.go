package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fight-core/internal/fighter"
	"fight-core/internal/match"
)

// ServerOptions tunes the public server.
type ServerOptions struct {
	// ControlToken guards control routes and websocket control. Empty
	// leaves them open.
	ControlToken string
	// BroadcastEvery is the websocket snapshot interval
	BroadcastEvery time.Duration
	// CORSOrigins overrides the localhost-only default
	CORSOrigins []string
	// RateLimit shapes per-IP control traffic; nil uses DefaultRateLimitConfig
	RateLimit *RateLimitConfig
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with WebSocket hub for real-time updates.
type Server struct {
	engine      *match.Engine
	inputs      *RemoteInput
	auth        *ControlAuth
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
	every       time.Duration
}

// NewServer creates a new API server and wires engine callbacks into the
// hub and metrics.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(engine *match.Engine, inputs *RemoteInput, opts ServerOptions) *Server {
	s := &Server{
		engine: engine,
		inputs: inputs,
		auth:   NewControlAuth(opts.ControlToken),
		every:  opts.BroadcastEvery,
	}
	s.wsHub = NewWebSocketHub(inputs, s.auth)

	limits := DefaultRateLimitConfig
	if opts.RateLimit != nil {
		limits = *opts.RateLimit
	}
	s.rateLimiter = NewIPRateLimiter(limits)

	if opts.CORSOrigins != nil {
		SetAllowedOrigins(opts.CORSOrigins)
	}

	// Build router using the factory
	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Inputs:      inputs,
		Auth:        s.auth,
		RateLimiter: s.rateLimiter,
		CORSOrigins: opts.CORSOrigins,
	})

	// Add WebSocket routes (these need the wsHub instance)
	s.setupWebSocketRoutes()
	s.wireEngine()

	return s
}

// wireEngine forwards match events to clients and metrics. The callbacks
// run under the engine lock, so they only enqueue.
func (s *Server) wireEngine() {
	s.engine.SetCallbacks(
		func(victim match.Slot, ev fighter.DamageEvent) {
			health := ev.Victim.Health.Current()
			RecordDamage(victim, ev.Amount, health, ev.Blocked)
			s.wsHub.Broadcast("match:damage", map[string]interface{}{
				"victim":  victim,
				"amount":  ev.Amount,
				"health":  health,
				"blocked": ev.Blocked,
				"combo":   ev.Combo,
				"action":  ev.Action.String(),
				"x":       ev.X,
				"y":       ev.Y,
			})
		},
		func(slot match.Slot, state, move string) {
			RecordTransition(slot)
			s.wsHub.Broadcast("fighter:state", map[string]interface{}{
				"slot":  slot,
				"state": state,
				"move":  move,
			})
		},
		func(res match.RoundResult) {
			RecordRound(res.Outcome)
			s.wsHub.Broadcast("match:round", map[string]interface{}{
				"round":   res.Round,
				"outcome": res.Outcome.String(),
				"p1hp":    res.P1HP,
				"p2hp":    res.P2HP,
				"wins":    res.Wins,
				"final":   res.Final,
			})
		},
	)
	s.engine.SetTickHook(RecordTick)
}

// setupWebSocketRoutes adds WebSocket-specific routes to the router.
// These routes need access to the wsHub instance, so they can't be
// part of the generic NewRouter factory.
func (s *Server) setupWebSocketRoutes() {
	// WebSocket endpoint (compatible with Socket.IO path)
	s.router.Get("/socket.io/", s.handleSocketIO)
	s.router.Get("/ws", s.handleWS)
}

// Start begins the HTTP server AND starts background workers.
// This is the ONLY method that starts goroutines or opens network listeners.
// It blocks until the server stops; http.ErrServerClosed is not an error.
func (s *Server) Start(addr string) error {
	// Start background workers NOW, not in constructor
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.engine, s.every)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🎮 Match state: http://localhost%s/api/state", addr)
	if s.auth.Enabled() {
		log.Printf("🔐 Control routes require %s", ControlTokenHeader)
	}

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
//
// Example:
//
//	server := api.NewServer(engine, api.NewRemoteInput(0), api.ServerOptions{})
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the websocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.wsHub.Stop()
}

// WebSocket handlers - these need access to wsHub

func (s *Server) handleSocketIO(w http.ResponseWriter, r *http.Request) {
	// Check if this is a WebSocket upgrade request
	if r.Header.Get("Upgrade") == "websocket" {
		s.wsHub.HandleWebSocket(w, r)
		return
	}

	// For polling fallback, return 404 (we only support WebSocket)
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"use websocket"}`))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}

package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fight-core/internal/match"
)

// Metrics with bounded cardinality (slot and outcome labels only)
var (
	// Simulation metrics
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "match_tick_duration_seconds",
		Help:    "Time spent in one simulation step",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.0166},
	})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "debug_render_duration_seconds",
		Help:    "Time spent rendering a debug frame",
		Buckets: []float64{0.005, 0.01, 0.02, 0.033, 0.05, 0.1},
	})

	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_hits_total",
		Help: "Hits landed, by victim slot and result",
	}, []string{"slot", "result"}) // result: "hit", "block"

	damageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_damage_total",
		Help: "Damage dealt, by victim slot",
	}, []string{"slot"})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_state_transitions_total",
		Help: "Fighter state changes, by slot",
	}, []string{"slot"})

	roundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_rounds_total",
		Help: "Finished rounds, by outcome",
	}, []string{"outcome"}) // Bounded: the four outcome strings

	healthGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "match_fighter_health",
		Help: "Current health per slot",
	}, []string{"slot"})

	// Event log metrics
	eventLogTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_total",
		Help: "Total events logged",
	})

	eventLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_dropped_total",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter, origin check or auth",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "auth", "ws_total_limit", "ws_ip_limit"

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})

	wsInboundTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_inbound_total",
		Help: "WebSocket messages received, by outcome",
	}, []string{"result"}) // "ok", "invalid"
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // MUST be "127.0.0.1:6060" in production
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060", // Localhost only - NEVER expose externally
	}
}

// DebugMux builds the handler served by the debug server
func DebugMux(cfg ObservabilityConfig) http.Handler {
	mux := http.NewServeMux()

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.BasicAuthUser != "" {
		return basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}
	return mux
}

// StartDebugServer starts the internal observability server
// CRITICAL: This MUST bind to localhost only to prevent pprof-based DoS
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	// SECURITY: Validate address is localhost
	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		// Only allow external binding if explicitly enabled via env
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ Debug server forced to localhost for security")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	handler := DebugMux(cfg)

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

// basicAuthMiddleware adds basic authentication to the handler
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordTick records step timing for metrics
func RecordTick(duration time.Duration) {
	tickDuration.Observe(duration.Seconds())
}

// RecordRender records debug render timing
func RecordRender(duration time.Duration) {
	renderDuration.Observe(duration.Seconds())
}

// RecordDamage records a landed or blocked hit on the victim's slot
func RecordDamage(victim match.Slot, amount, health int, blocked bool) {
	result := "hit"
	if blocked {
		result = "block"
	}
	hitsTotal.WithLabelValues(victim.String(), result).Inc()
	damageTotal.WithLabelValues(victim.String()).Add(float64(amount))
	healthGauge.WithLabelValues(victim.String()).Set(float64(health))
}

// RecordTransition counts a fighter state change
func RecordTransition(slot match.Slot) {
	transitionsTotal.WithLabelValues(slot.String()).Inc()
}

// RecordRound counts a finished round
func RecordRound(o match.Outcome) {
	roundsTotal.WithLabelValues(o.String()).Inc()
}

// eventLogSeen remembers the last totals so counters only move forward
var eventLogSeen struct {
	sync.Mutex
	total, dropped uint64
}

// UpdateEventLogStats feeds trace counters from a stats sample
func UpdateEventLogStats(stats match.LogStats) {
	eventLogSeen.Lock()
	defer eventLogSeen.Unlock()

	if stats.Total >= eventLogSeen.total {
		eventLogTotal.Add(float64(stats.Total - eventLogSeen.total))
	}
	if stats.Dropped >= eventLogSeen.dropped {
		eventLogDropped.Add(float64(stats.Dropped - eventLogSeen.dropped))
	}
	eventLogSeen.total, eventLogSeen.dropped = stats.Total, stats.Dropped
}

// RecordConnectionRejected increments the rejection counter
// reason must be one of: "rate_limit", "origin", "auth", "ws_total_limit", "ws_ip_limit"
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

// RecordInbound counts a received WebSocket message
func RecordInbound(ok bool) {
	if ok {
		wsInboundTotal.WithLabelValues("ok").Inc()
		return
	}
	wsInboundTotal.WithLabelValues("invalid").Inc()
}

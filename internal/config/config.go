// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for match tuning and server settings.
//
// The simulation never reads this package's environment helpers directly:
// a MatchConfig value is built once and passed into the engine.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// MATCH TUNING
// =============================================================================

// MatchConfig holds every gameplay tunable the combat core reads.
// A copy is handed to the engine at construction (snapshot semantics).
type MatchConfig struct {
	TickRate    int     `ini:"tick_rate"`     // Fixed simulation steps per second
	RoundTime   float64 `ini:"round_time"`    // Seconds before a round times out
	RoundsToWin int     `ini:"rounds_to_win"` // Rounds needed to take the match
	ArenaWidth  float64 `ini:"arena_width"`   // Horizontal bounds in world units
	StartOffset float64 `ini:"start_offset"`  // Distance of each fighter from centre at round start

	NormalWindow float64 `ini:"normal_window"` // Normal channel token lifetime (seconds)
	ComboWindow  float64 `ini:"combo_window"`  // Combo channel token lifetime (seconds)

	SequenceLifetime      float64 `ini:"sequence_lifetime"`       // Special history lifetime
	SequenceDefaultWindow float64 `ini:"sequence_default_window"` // Window when an entry has none
	SequenceStepBonus     float64 `ini:"sequence_step_bonus"`     // Extra seconds per token past two
	SequenceCooldown      float64 `ini:"sequence_cooldown"`       // Same-trigger refire guard

	ChipDamageRatio      float64 `ini:"chip_damage_ratio"`      // Damage fraction applied through a block
	BlockMaxHoldSeconds  float64 `ini:"block_max_hold_seconds"` // Continuous hold ceiling
	BlockCooldownSeconds float64 `ini:"block_cooldown_seconds"` // Lockout after the ceiling trips

	MaxTransitionsPerDrain int  `ini:"max_transitions_per_drain"` // HFSM drain bound
	SpecialsEnabled        bool `ini:"specials_enabled"`          // Sequences + meter-on-block
}

// DefaultMatch returns the default match tuning.
func DefaultMatch() MatchConfig {
	return MatchConfig{
		TickRate:    60,
		RoundTime:   99,
		RoundsToWin: 2,
		ArenaWidth:  1200,
		StartOffset: 150,

		NormalWindow: 0.25,
		ComboWindow:  0.25,

		SequenceLifetime:      0.8,
		SequenceDefaultWindow: 0.4,
		SequenceStepBonus:     0.2,
		SequenceCooldown:      0.15,

		ChipDamageRatio:      0.2,
		BlockMaxHoldSeconds:  0.8,
		BlockCooldownSeconds: 1.0,

		MaxTransitionsPerDrain: 8,
		SpecialsEnabled:        true,
	}
}

// DeltaTime returns the fixed step length in seconds.
func (m MatchConfig) DeltaTime() float64 {
	if m.TickRate <= 0 {
		return 1.0 / 60.0
	}
	return 1.0 / float64(m.TickRate)
}

// MatchFromEnv returns match tuning with environment variable overrides.
// Environment variables take precedence over the INI file and defaults.
func MatchFromEnv(base MatchConfig) MatchConfig {
	cfg := base

	if tps := getEnvInt("TICK_RATE", 0); tps > 0 {
		cfg.TickRate = tps
	}
	if rt := getEnvFloat("ROUND_TIME", 0); rt > 0 {
		cfg.RoundTime = rt
	}
	if r := getEnvInt("ROUNDS_TO_WIN", 0); r > 0 {
		cfg.RoundsToWin = r
	}
	if chip := getEnvFloat("CHIP_DAMAGE_RATIO", -1); chip >= 0 {
		cfg.ChipDamageRatio = chip
	}
	if hold := getEnvFloat("BLOCK_MAX_HOLD", 0); hold > 0 {
		cfg.BlockMaxHoldSeconds = hold
	}
	if os.Getenv("SPECIALS_ENABLED") == "false" {
		cfg.SpecialsEnabled = false
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	BroadcastEvery int     // Milliseconds between websocket state pushes
	ControlToken   string  // Bearer token for control routes; empty disables the check
	CPUSlot        int     // Slot driven by the AI (0 for none)
	CPUReaction    int     // Frames between AI decisions
	RateLimitRPS   float64 // Per-IP requests per second; covers input polling at the tick rate
	RateLimitBurst int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		BroadcastEvery: 100,
		CPUSlot:        2,
		CPUReaction:    4,
		RateLimitRPS:   90,
		RateLimitBurst: 120,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if b := getEnvInt("BROADCAST_MS", 0); b > 0 {
		cfg.BroadcastEvery = b
	}
	cfg.ControlToken = os.Getenv("CONTROL_TOKEN")
	if s := getEnvInt("CPU_SLOT", -1); s >= 0 && s <= 2 {
		cfg.CPUSlot = s
	}
	if r := getEnvInt("CPU_REACTION", 0); r > 0 {
		cfg.CPUReaction = r
	}
	if r := getEnvFloat("RATE_LIMIT_RPS", 0); r > 0 {
		cfg.RateLimitRPS = r
	}
	if b := getEnvInt("RATE_LIMIT_BURST", 0); b > 0 {
		cfg.RateLimitBurst = b
	}

	return cfg
}

// =============================================================================
// DATA CONFIGURATION
// =============================================================================

// DataConfig points at externally authored tables and scripts.
// Empty paths fall back to the embedded defaults.
type DataConfig struct {
	MovesDir  string // Directory holding moves.yaml, sequences.yaml, fighter.ini
	MatchINI  string // Optional match tuning file
	AIScript  string // Optional tengo strategy for the CPU fighter
	TracePath string // JSONL combat trace output
	HotReload bool   // Watch MovesDir and AIScript for changes
}

// DataFromEnv returns data locations from the environment.
func DataFromEnv() DataConfig {
	return DataConfig{
		MovesDir:  os.Getenv("MOVES_DIR"),
		MatchINI:  os.Getenv("MATCH_INI"),
		AIScript:  os.Getenv("AI_SCRIPT"),
		TracePath: getEnvString("TRACE_PATH", "combat_trace.jsonl"),
		HotReload: os.Getenv("HOT_RELOAD") == "true",
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Match  MatchConfig
	Server ServerConfig
	Data   DataConfig
}

// Load returns the complete configuration.
// Match tuning is layered: defaults, then MATCH_INI (if set), then env.
// An unreadable INI file is reported and the defaults are kept.
func Load() (AppConfig, error) {
	data := DataFromEnv()

	match := DefaultMatch()
	var err error
	if data.MatchINI != "" {
		match, err = LoadMatchINI(data.MatchINI)
		if err != nil {
			match = DefaultMatch()
		}
	}

	return AppConfig{
		Match:  MatchFromEnv(match),
		Server: ServerFromEnv(),
		Data:   data,
	}, err
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

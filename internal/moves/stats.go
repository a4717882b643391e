package moves

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// FighterStats holds per-fighter tuning that is not tied to a single move.
type FighterStats struct {
	MaxHealth int `ini:"max_health"`
	MaxMeter  int `ini:"max_meter"`

	WalkSpeed     float64 `ini:"walk_speed"`
	BackWalkSpeed float64 `ini:"back_walk_speed"`
	JumpVelocity  float64 `ini:"jump_velocity"`
	Gravity       float64 `ini:"gravity"`
	GroundY       float64 `ini:"ground_y"`
	PushbackDecay float64 `ini:"pushback_decay"` // fraction of pushback velocity kept per second

	DodgeDuration    float64 `ini:"dodge_duration"`
	DodgeInvulnStart float64 `ini:"dodge_invuln_start"`
	DodgeInvulnEnd   float64 `ini:"dodge_invuln_end"`
	DodgeSpeed       float64 `ini:"dodge_speed"`

	HitstunFallback float64 `ini:"hitstun_fallback"`
	SoftDownTime    float64 `ini:"soft_down_time"`
	HardDownTime    float64 `ini:"hard_down_time"`
	WakeupDuration  float64 `ini:"wakeup_duration"`
	WakeupInvuln    float64 `ini:"wakeup_invuln"`
	WakeupNudge     float64 `ini:"wakeup_nudge"` // world units covered by a full roll

	ThrowTechWindow float64 `ini:"throw_tech_window"`
	ThrowTechPush   float64 `ini:"throw_tech_push"`
}

// DefaultStats returns the built-in fighter tuning.
func DefaultStats() FighterStats {
	return FighterStats{
		MaxHealth: 1000,
		MaxMeter:  1000,

		WalkSpeed:     220,
		BackWalkSpeed: 160,
		JumpVelocity:  900,
		Gravity:       2600,
		GroundY:       600,
		PushbackDecay: 0.02,

		DodgeDuration:    0.35,
		DodgeInvulnStart: 0.03,
		DodgeInvulnEnd:   0.25,
		DodgeSpeed:       380,

		HitstunFallback: 0.3,
		SoftDownTime:    0.6,
		HardDownTime:    1.2,
		WakeupDuration:  0.5,
		WakeupInvuln:    0.4,
		WakeupNudge:     90,

		ThrowTechWindow: 0.25,
		ThrowTechPush:   60,
	}
}

// ParseStats layers an INI [fighter] section over the defaults.
func ParseStats(data []byte) (FighterStats, error) {
	stats := DefaultStats()
	file, err := ini.LoadSources(ini.LoadOptions{Insensitive: true, SkipUnrecognizableLines: true}, data)
	if err != nil {
		return stats, fmt.Errorf("moves: parse fighter.ini: %w", err)
	}
	if err := file.Section("fighter").MapTo(&stats); err != nil {
		return DefaultStats(), fmt.Errorf("moves: map fighter.ini: %w", err)
	}
	return stats, nil
}

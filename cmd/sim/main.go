// =============================================================================
// FIGHT CORE - HEADLESS SIMULATOR
// =============================================================================
// Runs CPU vs CPU matches at full speed with no network surface. Useful for
// tuning move tables and AI scripts:
//
//	go run ./cmd/sim -seed 7 -script ai/rushdown.tengo -trace sim.jsonl
// =============================================================================
package main

import (
	"flag"
	"log"
	"os"

	"fight-core/internal/ai"
	"fight-core/internal/config"
	"fight-core/internal/match"
	"fight-core/internal/moves"
	"fight-core/internal/render"
)

func main() {
	var (
		matches   = flag.Int("matches", 1, "matches to play")
		rounds    = flag.Int("rounds", 0, "rounds to win (0 keeps the configured value)")
		seed      = flag.Int64("seed", 1, "seed for the P1 utility strategy")
		script    = flag.String("script", "", "tengo strategy for P2 (default: embedded script)")
		movesDir  = flag.String("moves", "", "directory with moves.yaml, sequences.yaml and fighter.ini")
		matchINI  = flag.String("ini", "", "match tuning file")
		trace     = flag.String("trace", "", "write the combat trace to this JSONL file")
		png       = flag.String("png", "", "write the final frame of the last match to this PNG")
		maxFrames = flag.Uint64("max-frames", 60*60*30, "abort a match after this many frames")
	)
	flag.Parse()

	cfg := config.DefaultMatch()
	if *matchINI != "" {
		c, err := config.LoadMatchINI(*matchINI)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		cfg = c
	}
	if *rounds > 0 {
		cfg.RoundsToWin = *rounds
	}

	table, err := moves.LoadDir(*movesDir)
	if err != nil {
		log.Fatalf("❌ Failed to load move tables: %v", err)
	}

	engine, err := match.NewEngine(match.Options{
		Match: cfg,
		Store: moves.NewStore(table),
		Names: [2]string{"Utility", "Script"},

		TraceLimits: &match.UnlimitedEventLog,
	})
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	utilCfg := ai.DefaultUtilityConfig()
	utilCfg.Seed = *seed
	p1, err := ai.NewUtilityStrategy(utilCfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	var p2 *ai.ScriptStrategy
	if *script != "" {
		p2, err = ai.LoadScriptStrategy(*script)
	} else {
		p2, err = ai.DefaultScriptStrategy()
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	engine.SetInput(match.SlotP1, ai.NewController(p1, 3))
	engine.SetInput(match.SlotP2, ai.NewController(p2, 3))
	engine.SetCallbacks(nil, nil, func(res match.RoundResult) {
		log.Printf("🏁 Round %d: %s (%d-%d hp, wins %d-%d)",
			res.Round, res.Outcome, res.P1HP, res.P2HP, res.Wins[0], res.Wins[1])
	})

	if *trace != "" {
		if err := engine.StartEventLog(*trace); err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer engine.StopEventLog()
	}

	var tally [3]int // p1, p2, undecided
	for m := 1; m <= *matches; m++ {
		if m > 1 {
			engine.Reset()
		}
		start := engine.Stats().Frames
		for !engine.MatchOver() && engine.Stats().Frames-start < *maxFrames {
			engine.Step()
			if *trace != "" {
				engine.FlushEventLog()
			}
		}

		switch winner := engine.Winner(); winner {
		case match.SlotP1, match.SlotP2:
			tally[int(winner)-1]++
			log.Printf("🏆 Match %d: %s wins", m, winner)
		default:
			tally[2]++
			log.Printf("⚠️ Match %d: no winner after %d frames", m, *maxFrames)
		}
	}

	stats := engine.Stats()
	log.Printf("📊 Utility %d, Script %d, undecided %d", tally[0], tally[1], tally[2])
	log.Printf("📊 %d frames, %d hits, %d blocks, %d specials, %d script errors",
		stats.Frames, stats.Hits, stats.Blocks, stats.Specials, p2.Failures())

	if *png != "" {
		opts := render.DefaultOptions()
		opts.WorldWidth = cfg.ArenaWidth
		opts.GroundY = engine.Table().Stats().GroundY
		data, err := render.PNG(engine.GetState(), opts)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		if err := os.WriteFile(*png, data, 0o644); err != nil {
			log.Fatalf("❌ %v", err)
		}
		log.Printf("📝 Final frame: %s", *png)
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"fight-core/internal/ai"
	"fight-core/internal/api"
	"fight-core/internal/config"
	"fight-core/internal/match"
	"fight-core/internal/moves"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  FIGHT CORE - MATCH SERVER")
	log.Println("🎮 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig, err := config.Load()
	if err != nil {
		log.Printf("⚠️ Match INI ignored: %v", err)
	}
	matchCfg := appConfig.Match
	serverCfg := appConfig.Server
	dataCfg := appConfig.Data

	log.Printf("🎮 Config: %d TPS, %.0fs rounds, first to %d", matchCfg.TickRate, matchCfg.RoundTime, matchCfg.RoundsToWin)

	// Move tables
	table, err := moves.LoadDir(dataCfg.MovesDir)
	if err != nil {
		log.Fatalf("❌ Failed to load move tables: %v", err)
	}
	store := moves.NewStore(table)
	if dataCfg.MovesDir != "" {
		log.Printf("📝 Move tables: %s", dataCfg.MovesDir)
	}

	engine, err := match.NewEngine(match.Options{
		Match: matchCfg,
		Store: store,
		Names: [2]string{
			getEnvWithDefault("P1_NAME", "Player"),
			getEnvWithDefault("P2_NAME", "CPU"),
		},
	})
	if err != nil {
		log.Fatalf("❌ Failed to create engine: %v", err)
	}

	// Inputs: every slot not driven by the CPU is remote
	inputs := api.NewRemoteInput(api.DefaultInputStaleAfter)
	cpuSlot := match.Slot(serverCfg.CPUSlot)

	var script *ai.ScriptStrategy
	for _, slot := range []match.Slot{match.SlotP1, match.SlotP2} {
		if slot != cpuSlot {
			engine.SetInput(slot, inputs.Source(slot))
			continue
		}

		strategy, s, err := buildStrategy(dataCfg.AIScript)
		if err != nil {
			log.Fatalf("❌ Failed to build CPU strategy: %v", err)
		}
		script = s
		engine.SetInput(slot, ai.NewController(strategy, serverCfg.CPUReaction))
		log.Printf("🤖 CPU controls %s (reaction %d frames)", slot, serverCfg.CPUReaction)
	}

	// Start event log
	if err := engine.StartEventLog(dataCfg.TracePath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else {
		log.Printf("📝 Event log: %s", dataCfg.TracePath)
	}

	// Hot reload of tables and the CPU script
	var watcher *moves.Watcher
	if dataCfg.HotReload {
		watcher = startWatcher(dataCfg, store, script)
	}

	// Start debug server
	debugCfg := api.DefaultObservabilityConfig()
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	server := api.NewServer(engine, inputs, api.ServerOptions{
		ControlToken:   serverCfg.ControlToken,
		BroadcastEvery: time.Duration(serverCfg.BroadcastEvery) * time.Millisecond,
		RateLimit: &api.RateLimitConfig{
			RequestsPerSecond: serverCfg.RateLimitRPS,
			Burst:             serverCfg.RateLimitBurst,
		},
	})

	engine.Start()

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutting down...")
	if watcher != nil {
		watcher.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Shutdown: %v", err)
	}
	engine.Stop()

	stats := engine.Stats()
	log.Printf("📊 %d frames, %d hits, %d blocks, %d rounds", stats.Frames, stats.Hits, stats.Blocks, stats.Rounds)
	log.Println("👋 Goodbye!")
}

// buildStrategy returns the CPU strategy: a tengo script when path is set,
// the utility strategy otherwise. The script is returned for hot reload.
func buildStrategy(path string) (ai.Strategy, *ai.ScriptStrategy, error) {
	if path == "" {
		u, err := ai.NewUtilityStrategy(ai.DefaultUtilityConfig())
		if err != nil {
			return nil, nil, err
		}
		log.Println("🤖 CPU strategy: utility")
		return u, nil, nil
	}

	s, err := ai.LoadScriptStrategy(path)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("🤖 CPU strategy: %s", path)
	return s, s, nil
}

// startWatcher reloads tables when data files change and the CPU script
// when it changes. Reloaded tables take effect from the next round.
func startWatcher(cfg config.DataConfig, store *moves.Store, script *ai.ScriptStrategy) *moves.Watcher {
	var dirs []string
	if cfg.MovesDir != "" {
		dirs = append(dirs, cfg.MovesDir)
	}
	if script != nil {
		if dir := filepath.Dir(script.Path()); dir != cfg.MovesDir {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		log.Println("💡 Hot reload enabled but nothing to watch")
		return nil
	}

	watcher, err := moves.NewWatcher(dirs...)
	if err != nil {
		log.Printf("⚠️ Hot reload disabled: %v", err)
		return nil
	}
	log.Printf("🔄 Watching %v", dirs)

	go func() {
		for {
			select {
			case path, ok := <-watcher.Events:
				if !ok {
					return
				}
				switch {
				case moves.IsScriptFile(path) && script != nil && filepath.Clean(path) == filepath.Clean(script.Path()):
					if err := script.ReloadFile(); err != nil {
						log.Printf("⚠️ Script reload failed, keeping previous: %v", err)
						continue
					}
					log.Printf("🔄 Reloaded %s", path)

				case moves.IsDataFile(path) && cfg.MovesDir != "":
					if err := store.Reload(cfg.MovesDir); err != nil {
						log.Printf("⚠️ Table reload failed, keeping previous: %v", err)
						continue
					}
					log.Printf("🔄 Reloaded tables (v%d), next round picks them up", store.Version())
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️ Watcher error: %v", err)
			}
		}
	}()
	return watcher
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

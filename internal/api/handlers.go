package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fight-core/internal/command"
	"fight-core/internal/match"
	"fight-core/internal/moves"
	"fight-core/internal/render"
)

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.GetState())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	// Lock-free snapshot; stats polling must not contend with the tick
	snap := h.engine.GetSnapshot()
	writeJSON(w, map[string]interface{}{
		"frame":     snap.Frame,
		"round":     snap.Round,
		"phase":     snap.Phase,
		"wins":      [2]int{snap.Fighters[0].Wins, snap.Fighters[1].Wins},
		"match":     h.engine.Stats(),
		"trace":     h.engine.GetEventLogStats(),
		"rateLimit": h.rateLimiter.GetStats(),
		"authFails": h.auth.Rejected(),
	})
}

// moveJSON is the public view of one move
type moveJSON struct {
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Startup   float64 `json:"startup"`
	Active    float64 `json:"active"`
	Recovery  float64 `json:"recovery"`
	Damage    int     `json:"damage"`
	Level     string  `json:"level"`
	Knockdown string  `json:"knockdown"`
	Blockable bool    `json:"blockable"`
	MeterCost int     `json:"meterCost"`
	Super     bool    `json:"super"`
}

type sequenceJSON struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Tokens  []string `json:"tokens"`
	Trigger string   `json:"trigger"`
	Window  float64  `json:"window,omitempty"`
}

func (h *routerHandlers) handleGetMoves(w http.ResponseWriter, r *http.Request) {
	table := h.engine.Table()

	list := make([]moveJSON, 0)
	for _, id := range table.Actions() {
		m, ok := table.Move(id)
		if !ok {
			continue
		}
		list = append(list, moveJSON{
			Name:      id.String(),
			Kind:      m.Kind.String(),
			Startup:   m.Startup,
			Active:    m.Active,
			Recovery:  m.Recovery,
			Damage:    m.Damage,
			Level:     m.Level.String(),
			Knockdown: m.Knockdown.String(),
			Blockable: m.Blockable,
			MeterCost: m.MeterCost,
			Super:     m.Super,
		})
	}

	seqs := make([]sequenceJSON, 0)
	for _, s := range table.Sequences() {
		tokens := make([]string, 0, len(s.Tokens))
		for _, t := range s.Tokens {
			tokens = append(tokens, t.String())
		}
		seqs = append(seqs, sequenceJSON{
			Name:    s.Name,
			Kind:    s.Kind.String(),
			Tokens:  tokens,
			Trigger: s.Trigger.String(),
			Window:  s.Window,
		})
	}

	writeJSON(w, map[string]interface{}{
		"moves":     list,
		"sequences": seqs,
	})
}

func (h *routerHandlers) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeJSON(w, AuthStatus{Authenticated: true})
		return
	}
	h.auth.HandleAuthStatus(w, r)
}

func (h *routerHandlers) handleMatchReset(w http.ResponseWriter, r *http.Request) {
	log.Println("🔄 Match reset requested via API")
	h.engine.Reset()
	writeJSON(w, h.engine.GetState())
}

func (h *routerHandlers) handleFighterCommands(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.parseSlot(w, r)
	if !ok {
		return
	}

	var cmd command.FighterCommands
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.inputs.SetCommands(slot, cmd); err != nil {
		writeInputError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleFighterAction(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.parseSlot(w, r)
	if !ok {
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	id, err := moves.ParseActionID(req.Action)
	if err != nil {
		writeError(w, "Unknown action", http.StatusBadRequest)
		return
	}
	if err := h.inputs.RequestAction(slot, id); err != nil {
		writeInputError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true, "action": id.String()})
}

func (h *routerHandlers) handleDebugFrame(w http.ResponseWriter, r *http.Request) {
	opts := render.DefaultOptions()
	opts.WorldWidth = h.engine.Config().ArenaWidth
	opts.GroundY = h.engine.Table().Stats().GroundY
	if v, err := strconv.Atoi(r.URL.Query().Get("w")); err == nil && v >= 64 && v <= 1920 {
		opts.Width = v
		opts.Height = v * 9 / 16
	}
	opts.Labels = r.URL.Query().Get("labels") != "0"

	start := time.Now()
	data, err := render.PNG(h.engine.GetSnapshot(), opts)
	RecordRender(time.Since(start))
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// parseSlot reads {slot} and writes a 400 when it is not 1 or 2
func (h *routerHandlers) parseSlot(w http.ResponseWriter, r *http.Request) (match.Slot, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "slot"))
	slot := match.Slot(n)
	if err != nil || !slot.Valid() {
		writeError(w, "Slot must be 1 or 2", http.StatusBadRequest)
		return match.SlotNone, false
	}
	if h.inputs == nil {
		writeError(w, "Remote input disabled", http.StatusConflict)
		return match.SlotNone, false
	}
	return slot, true
}

func writeInputError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSlotNotRemote):
		writeError(w, "Slot is not remote controlled", http.StatusConflict)
	case errors.Is(err, match.ErrInvalidSlot):
		writeError(w, "Slot must be 1 or 2", http.StatusBadRequest)
	default:
		writeError(w, err.Error(), http.StatusBadRequest)
	}
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

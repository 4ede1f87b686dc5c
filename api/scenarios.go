/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Loads the built-in factory presets into the store and rebuilds the
	session, so the planner can be demoed without entering data by hand.

AVAILABLE SCENARIOS:

	starter-household:  Steady salary, a credit card and a car loan
	credit-card-crunch: Four debts with very different rates
	irregular-income:   Freelance income with lean and bonus months

HOW SCENARIOS WORK:
 1. Reset the store (clear all budgets and debts)
 2. Write the scenario's budgets, resolved around the current month
 3. Write the scenario's debts
 4. Reload the session and apply the scenario's strategy

Timeline settings in a scenario (now, month counts) are ignored here: the
server's clock and configuration stay in charge.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "credit-card-crunch"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Plan and debt handlers
  - factory/presets.go: Scenario definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/budget-engine/factory"
	"github.com/warp/budget-engine/planning"
)

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	presets, err := factory.Presets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenarios", err)
		return
	}

	dtos := make([]ScenarioDTO, len(presets))
	for i, sc := range presets {
		dtos[i] = ScenarioDTO{
			ID:          sc.ID,
			Name:        sc.Name,
			Description: sc.Description,
			Debts:       len(sc.Debts),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sc, ok := factory.Preset(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	snap, err := h.loadScenario(r.Context(), sc)
	if err != nil {
		h.writeSessionError(w, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": sc.ID,
		"plan":     toPlanDTO(snap),
	})
}

func (h *Handler) loadScenario(ctx context.Context, sc *factory.Scenario) (*planning.Snapshot, error) {
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	if err := sc.Seed(ctx, h.Store, h.Clock.Now()); err != nil {
		return nil, err
	}
	h.Session.ClearLocks()
	snap, err := h.Session.Load(ctx)
	if err != nil {
		return nil, err
	}
	if sc.Strategy != "" && sc.Strategy != snap.Strategy {
		if snap, err = h.Session.SetStrategy(ctx, string(sc.Strategy)); err != nil {
			return nil, err
		}
	}

	h.mu.Lock()
	h.currentScenario = sc.ID
	h.mu.Unlock()

	h.Logger.InfoContext(ctx, "Scenario loaded", "scenario", sc.ID, "debts", len(sc.Debts))
	return snap, nil
}

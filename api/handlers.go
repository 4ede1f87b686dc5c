/*
handlers.go - HTTP API handlers for the budget planner

PURPOSE:
  Exposes the planning session via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the planning pipeline.

ENDPOINTS:
  Plan:
    GET    /api/plan                   Grid snapshot
    PUT    /api/plan/cells             Edit one cell
    POST   /api/plan/reload            Rebuild the grid from the stores
    GET    /api/plan/payoff            Payoff plan for the active strategy
    GET    /api/plan/compare           Snowball vs avalanche
    PUT    /api/plan/strategy          Change the active strategy

  Strategies:
    GET    /api/strategies             Strategy catalog

  Debts:
    GET    /api/debts                  List debts
    POST   /api/debts                  Create debt
    PUT    /api/debts/{id}             Update debt
    DELETE /api/debts/{id}             Delete debt

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

  Status:
    GET    /api/status                 Session generation and rollover status

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Session: the single owner of grid, locks and plan
  - Store: direct access for listings and scenario seeding

REQUEST FLOW:
  1. Parse HTTP request
  2. Call the session (which validates and runs the pipeline)
  3. Serialize the resulting snapshot
  4. Map errors to status codes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown debt
  - 409: Read-only cell (historical month or computed row)
  - 503: Session not loaded yet
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/warp/budget-engine/factory"
	"github.com/warp/budget-engine/planning"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Backend is the store the server runs on.
type Backend interface {
	planning.BudgetStore
	planning.DebtStore
	factory.Seeder
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Session   *planning.Session
	Store     Backend
	Clock     planning.Clock
	Scheduler *RolloverScheduler // optional
	Logger    *slog.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over a session and its store.
func NewHandler(session *planning.Session, store Backend, clock planning.Clock, logger *slog.Logger) *Handler {
	if clock == nil {
		clock = planning.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Session: session,
		Store:   store,
		Clock:   clock,
		Logger:  logger,
	}
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// GetPlan returns the latest grid snapshot.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Session.Snapshot()
	if err != nil {
		h.writeSessionError(w, "Failed to get plan", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(snap))
}

// EditCell applies one cell edit and returns the re-simulated plan.
func (h *Handler) EditCell(w http.ResponseWriter, r *http.Request) {
	var req EditCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.MonthIndex == nil {
		writeError(w, http.StatusBadRequest, "month_index is required", nil)
		return
	}

	snap, err := h.Session.EditCell(r.Context(), *req.MonthIndex, req.Category, string(req.Value))
	if snap == nil {
		h.writeSessionError(w, "Failed to edit cell", err)
		return
	}

	resp := EditCellResponse{Plan: toPlanDTO(snap)}
	if err != nil {
		h.Logger.WarnContext(r.Context(), "Edit applied but not persisted", "category", req.Category, "error", err)
		resp.Warning = "Edit applied but not saved: " + err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReloadPlan rebuilds the grid from the stores.
func (h *Handler) ReloadPlan(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Session.Load(r.Context())
	if err != nil {
		h.writeSessionError(w, "Failed to reload plan", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(snap))
}

// GetPayoff returns the month-by-month payoff plan.
func (h *Handler) GetPayoff(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Session.Snapshot()
	if err != nil {
		h.writeSessionError(w, "Failed to get payoff plan", err)
		return
	}
	plan := snap.Plan
	if plan == nil {
		plan = &planning.PayoffPlan{Strategy: snap.Strategy}
	}
	writeJSON(w, http.StatusOK, toPayoffDTO(plan))
}

// ComparePlans simulates both strategies on the current inputs.
func (h *Handler) ComparePlans(w http.ResponseWriter, r *http.Request) {
	cmp, err := h.Session.Compare(r.Context())
	if err != nil {
		h.writeSessionError(w, "Failed to compare strategies", err)
		return
	}
	writeJSON(w, http.StatusOK, toComparisonDTO(cmp))
}

// SetStrategy switches the active strategy.
func (h *Handler) SetStrategy(w http.ResponseWriter, r *http.Request) {
	var req SetStrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snap, err := h.Session.SetStrategy(r.Context(), req.Strategy)
	if err != nil {
		h.writeSessionError(w, "Failed to set strategy", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(snap))
}

// ListStrategies returns the strategy catalog.
func (h *Handler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	var active planning.Strategy
	if snap, err := h.Session.Snapshot(); err == nil {
		active = snap.Strategy
	}

	catalog := planning.Strategies()
	dtos := make([]StrategyDTO, len(catalog))
	for i, s := range catalog {
		dtos[i] = StrategyDTO{
			Key:         string(s.Key),
			Name:        s.Name,
			Description: s.Description,
			Active:      s.Key == active,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// DEBT HANDLERS
// =============================================================================

// ListDebts returns the stored debts.
func (h *Handler) ListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.Store.ListDebts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list debts", err)
		return
	}

	dtos := make([]DebtDTO, len(debts))
	for i, d := range debts {
		dtos[i] = toDebtDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateDebt stores a new debt and re-simulates.
func (h *Handler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var req DebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	debt, snap, err := h.Session.CreateDebt(r.Context(), req.input())
	if err != nil {
		h.writeSessionError(w, "Failed to create debt", err)
		return
	}
	writeJSON(w, http.StatusCreated, debtResponse(debt, snap))
}

// UpdateDebt rewrites a stored debt and re-simulates.
func (h *Handler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req DebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	debt, snap, err := h.Session.UpdateDebt(r.Context(), id, req.input())
	if err != nil {
		h.writeSessionError(w, "Failed to update debt", err)
		return
	}
	writeJSON(w, http.StatusOK, debtResponse(debt, snap))
}

// DeleteDebt removes a stored debt and re-simulates.
func (h *Handler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snap, err := h.Session.DeleteDebt(r.Context(), id)
	if err != nil {
		h.writeSessionError(w, "Failed to delete debt", err)
		return
	}
	if snap == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(snap))
}

func debtResponse(d planning.Debt, snap *planning.Snapshot) DebtResponse {
	resp := DebtResponse{Debt: toDebtDTO(d)}
	if snap != nil {
		plan := toPlanDTO(snap)
		resp.Plan = &plan
	}
	return resp
}

// =============================================================================
// STATUS
// =============================================================================

// GetStatus reports the session generation and the last rollover check.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Session.Snapshot()
	if err != nil {
		h.writeSessionError(w, "Failed to get status", err)
		return
	}

	h.mu.Lock()
	status := StatusDTO{
		Generation:   snap.Generation,
		CurrentMonth: snap.Grid.CurrentMonth().Label,
		Strategy:     string(snap.Strategy),
		Scenario:     h.currentScenario,
	}
	h.mu.Unlock()

	if h.Scheduler != nil {
		if run, ok := h.Scheduler.LastRun(); ok {
			okRun := run.Err == nil
			status.LastRolloverAt = formatTime(run.At)
			status.LastRolloverOK = &okRun
		}
	}
	writeJSON(w, http.StatusOK, status)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeSessionError maps planning errors to HTTP statuses.
func (h *Handler) writeSessionError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(message, "error", err)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, planning.ErrReadOnlyCell):
		return http.StatusConflict
	case planning.IsNotFound(err):
		return http.StatusNotFound
	case planning.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, planning.ErrNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

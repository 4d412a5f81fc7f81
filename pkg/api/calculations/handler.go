// Package calculations exposes the calculation lifecycle over HTTP:
// onboarding a building, executing stages with overrides, inspecting
// status, resetting, and rendering a summary report.
package calculations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"retrofit_valuation/pkg/core/engine"
	"retrofit_valuation/pkg/core/report"
	"retrofit_valuation/pkg/core/service"
	"retrofit_valuation/pkg/core/store"
	"retrofit_valuation/pkg/core/unitmix"
	"retrofit_valuation/pkg/models"
)

// Handler holds dependencies for the calculation endpoints
type Handler struct {
	Engine  *engine.Engine
	Store   store.CalculationStore
	UnitMix *unitmix.Service
}

// NewHandler creates a new calculations handler
func NewHandler(eng *engine.Engine, s store.CalculationStore, mix *unitmix.Service) *Handler {
	return &Handler{
		Engine:  eng,
		Store:   s,
		UnitMix: mix,
	}
}

type CreateRequest struct {
	Building models.BuildingInfo `json:"building"`
	// UnitMix is optional; when absent or empty the mix is inferred.
	UnitMix *models.UnitMix `json:"unit_mix,omitempty"`
}

type ExecuteRequest struct {
	ID        string                 `json:"id"`
	Service   string                 `json:"service"`
	Overrides map[string]interface{} `json:"overrides,omitempty"`
	Cascade   *bool                  `json:"cascade,omitempty"` // default true
	Actor     string                 `json:"actor,omitempty"`
}

type ResetRequest struct {
	ID          string `json:"id"`
	FromService string `json:"from_service,omitempty"`
}

type ListResponse struct {
	IDs []string `json:"ids"`
}

// ErrorResponse is the JSON body for every non-2xx response. Stage and
// Fields are filled only when the failure is attributable to one stage.
type ErrorResponse struct {
	ID     string               `json:"id,omitempty"`
	Error  string               `json:"error"`
	Stage  string               `json:"stage,omitempty"`
	Fields []service.FieldError `json:"fields,omitempty"`
}

// HandleCreate onboards a building: infers the unit mix when the caller
// did not supply one, stores the record, and runs all six stages.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Building.Name == "" {
		http.Error(w, "building name is required", http.StatusBadRequest)
		return
	}
	if req.Building.TotalSqft <= 0 {
		http.Error(w, "building total_sqft must be positive", http.StatusBadRequest)
		return
	}

	mix, err := h.resolveUnitMix(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	record := &models.CalculationRecord{
		ID:        uuid.NewString(),
		Building:  req.Building,
		UnitMix:   mix,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.Create(r.Context(), record); err != nil {
		http.Error(w, fmt.Sprintf("failed to create calculation: %v", err), http.StatusInternalServerError)
		return
	}
	fmt.Printf("[CALC] Created %s for %q (%d units, mix source %s)\n",
		record.ID, record.Building.Name, mix.TotalUnits, mix.Source)

	if err := h.Engine.ExecuteAllServices(r.Context(), record.ID); err != nil {
		h.writeError(w, record.ID, err)
		return
	}

	computed, err := h.Store.Get(r.Context(), record.ID)
	if err != nil {
		h.writeError(w, record.ID, err)
		return
	}
	writeJSON(w, http.StatusCreated, computed)
}

// resolveUnitMix picks the caller's mix when one was supplied, otherwise
// asks the unit-mix service (LLM with heuristic fallback).
func (h *Handler) resolveUnitMix(ctx context.Context, req CreateRequest) (models.UnitMix, error) {
	if req.UnitMix != nil {
		mix := *req.UnitMix
		counted := mix.Studio + mix.OneBedroom + mix.TwoBedroom + mix.ThreeBedroom
		if counted > 0 || mix.TotalUnits > 0 {
			if mix.TotalUnits == 0 {
				mix.TotalUnits = counted
			}
			if mix.Source == "" {
				mix.Source = "manual"
			}
			return mix, nil
		}
	}
	return h.UnitMix.InferUnitMix(ctx, req.Building)
}

// HandleExecute runs one stage with optional overrides, cascading to its
// dependents unless the caller turned cascading off.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" || req.Service == "" {
		http.Error(w, "id and service are required", http.StatusBadRequest)
		return
	}

	cascade := true
	if req.Cascade != nil {
		cascade = *req.Cascade
	}
	fmt.Printf("[CALC] Execute %s on %s (cascade=%v, %d overrides)\n",
		req.Service, req.ID, cascade, len(req.Overrides))

	opts := engine.ExecuteOptions{
		Overrides: req.Overrides,
		Cascade:   cascade,
		Actor:     req.Actor,
	}
	if err := h.Engine.ExecuteService(r.Context(), req.ID, req.Service, opts); err != nil {
		h.writeError(w, req.ID, err)
		return
	}

	record, err := h.Store.Get(r.Context(), req.ID)
	if err != nil {
		h.writeError(w, req.ID, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// HandleStatus reports per-stage freshness for one calculation.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id query parameter is required", http.StatusBadRequest)
		return
	}
	status, err := h.Engine.GetServiceStatus(r.Context(), id)
	if err != nil {
		h.writeError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleReset clears freshness markers from a stage downward (or the
// whole calculation when from_service is empty).
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := h.Engine.ResetCalculation(r.Context(), req.ID, req.FromService); err != nil {
		h.writeError(w, req.ID, err)
		return
	}
	fmt.Printf("[CALC] Reset %s from %q\n", req.ID, req.FromService)

	status, err := h.Engine.GetServiceStatus(r.Context(), req.ID)
	if err != nil {
		h.writeError(w, req.ID, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleGet returns the full calculation record.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id query parameter is required", http.StatusBadRequest)
		return
	}
	record, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// HandleList returns the ids of all stored calculations.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	ids, err := h.Store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list calculations: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{IDs: ids})
}

// HandleSummary renders the record as a markdown report.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id query parameter is required", http.StatusBadRequest)
		return
	}
	record, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, id, err)
		return
	}

	md, err := report.Render(record)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to render summary: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, md)
}

// writeError maps engine and stage errors onto HTTP statuses: validation
// failures 422, unsatisfied dependencies 409, missing records 404,
// unknown stages 400, everything else 500. Cascade wrappers are seen
// through via errors.As/Is.
func (h *Handler) writeError(w http.ResponseWriter, id string, err error) {
	resp := ErrorResponse{ID: id, Error: err.Error()}
	status := http.StatusInternalServerError

	var valErr *service.ValidationError
	var depErr *service.DependencyNotSatisfiedError
	var compErr *service.ComputationError
	switch {
	case errors.As(err, &valErr):
		status = http.StatusUnprocessableEntity
		resp.Stage = valErr.Stage
		resp.Fields = valErr.Errors
	case errors.As(err, &depErr):
		status = http.StatusConflict
		resp.Stage = depErr.Stage
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrUnknownStage):
		status = http.StatusBadRequest
	case errors.As(err, &compErr):
		resp.Stage = compErr.Stage
	}

	fmt.Printf("[CALC] Request failed (%d): %v\n", status, err)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Printf("[CALC] Failed to encode response: %v\n", err)
	}
}

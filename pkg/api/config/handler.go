// Package config exposes runtime provider selection for unit-mix
// inference.
package config

import (
	"encoding/json"
	"fmt"
	"net/http"

	"retrofit_valuation/pkg/core/unitmix"
)

type Response struct {
	// ActiveProvider is empty when the deterministic heuristic is in use.
	ActiveProvider string   `json:"active_provider"`
	Available      []string `json:"available"`
}

type SwitchRequest struct {
	Provider string `json:"provider"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	Mix *unitmix.Service
}

// NewHandler creates a new config handler
func NewHandler(mix *unitmix.Service) *Handler {
	return &Handler{
		Mix: mix,
	}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	resp := Response{
		ActiveProvider: h.Mix.ActiveProvider(),
		Available:      h.Mix.AvailableProviders(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Mix.SetActiveProvider(req.Provider); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := req.Provider
	if name == "" {
		name = "heuristic"
	}
	fmt.Fprintf(w, "Success: Switched to %s", name)
}

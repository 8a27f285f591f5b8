package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/rowanvale/tracklink/internal/linker"
	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/shared"
)

// LinkageFinder answers linkage lookups for the read endpoints.
type LinkageFinder interface {
	FindForLocalTrack(ctx context.Context, trackID string) []models.Linkage
	FindForAlbum(ctx context.Context, albumTitle string) []models.Linkage
}

// SweepRunner triggers reconciliation passes.
type SweepRunner interface {
	Sweep(ctx context.Context, batchSize int) (linker.SweepResult, error)
}

// LinkageHandler serves the linkage service's HTTP API: health checks,
// linkage lookups, and on-demand sweeps.
type LinkageHandler struct {
	finder  LinkageFinder
	sweeper SweepRunner
	logger  *log.Logger
}

// NewLinkageHandler creates a LinkageHandler.
func NewLinkageHandler(finder LinkageFinder, sweeper SweepRunner, logger *log.Logger) *LinkageHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LinkageHandler{finder: finder, sweeper: sweeper, logger: logger}
}

// Routes returns the path patterns this handler serves.
func (h *LinkageHandler) Routes() []string {
	return []string{"/health", "/linkages", "/sweep"}
}

// ServeHTTP dispatches to the endpoint implementations.
func (h *LinkageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/health":
		h.handleHealth(w, r)
	case "/linkages":
		h.handleLinkages(w, r)
	case "/sweep":
		h.handleSweep(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *LinkageHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLinkages serves GET /linkages?track=<id> and GET /linkages?album=<title>.
//
// Lookups degrade to an empty list on store failure, so this endpoint never
// returns a 5xx for read problems.
func (h *LinkageHandler) handleLinkages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	track := r.URL.Query().Get("track")
	album := r.URL.Query().Get("album")

	var linkages []models.Linkage
	switch {
	case track != "":
		linkages = h.finder.FindForLocalTrack(r.Context(), track)
	case album != "":
		linkages = h.finder.FindForAlbum(r.Context(), album)
	default:
		http.Error(w, "track or album query parameter required", http.StatusBadRequest)
		return
	}

	if linkages == nil {
		linkages = []models.Linkage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"linkages": linkages, "count": len(linkages)})
}

// handleSweep serves POST /sweep?batch=<n>.
func (h *LinkageHandler) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	batchSize := 0
	if raw := r.URL.Query().Get("batch"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "batch must be a non-negative integer", http.StatusBadRequest)
			return
		}
		batchSize = parsed
	}

	result, err := h.sweeper.Sweep(r.Context(), batchSize)
	if err != nil {
		h.logger.Error("sweep failed", "error", err)
		http.Error(w, "sweep failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

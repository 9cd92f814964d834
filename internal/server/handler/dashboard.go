package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

// DashboardService is the live session the handler reads and steers.
type DashboardService interface {
	Snapshot() domain.DashboardSnapshot
	Select(ctx context.Context, assetID string) (domain.DashboardSnapshot, error)
	Assets() []domain.Asset
}

// DashboardHandler serves the chart snapshot, the asset catalog and asset
// selection.
type DashboardHandler struct {
	svc    DashboardService
	logger *slog.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(svc DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logHandler(logger, "dashboard")}
}

// ListAssets returns the selectable assets.
// GET /api/assets
func (h *DashboardHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"assets": h.svc.Assets()})
}

// GetSnapshot returns the current chart state.
// GET /api/dashboard
func (h *DashboardHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}

type selectRequest struct {
	AssetID string `json:"asset_id"`
}

// Select switches the dashboard to another asset and returns the cleared
// snapshot.
// POST /api/dashboard/select
func (h *DashboardHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.AssetID = strings.TrimSpace(req.AssetID)
	if req.AssetID == "" {
		writeError(w, http.StatusBadRequest, "asset_id is required")
		return
	}

	snap, err := h.svc.Select(r.Context(), req.AssetID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	h.logger.InfoContext(r.Context(), "asset selected", slog.String("asset", req.AssetID))
	writeJSON(w, http.StatusOK, snap)
}

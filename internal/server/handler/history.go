package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/cryptopredict/internal/service"
)

// HistoryService returns persisted predictions for an asset.
type HistoryService interface {
	History(ctx context.Context, assetID string, limit int) ([]service.HistoryRow, error)
}

// HistoryHandler serves the prediction history table.
type HistoryHandler struct {
	svc    HistoryService
	logger *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(svc HistoryService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, logger: logHandler(logger, "history")}
}

// List returns up to limit (default and max 100) predictions, newest first.
// GET /api/history/{asset}?limit=N
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	assetID := r.PathValue("asset")
	limit := min(queryInt(r, "limit", service.MaxHistory), service.MaxHistory)

	rows, err := h.svc.History(r.Context(), assetID, limit)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if rows == nil {
		rows = []service.HistoryRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"asset":       assetID,
		"count":       len(rows),
		"predictions": rows,
	})
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// PriceService returns spot prices, cached where possible.
type PriceService interface {
	Prices(ctx context.Context, assetIDs []string) (map[string]float64, error)
}

// PriceHandler serves spot prices.
type PriceHandler struct {
	svc      PriceService
	defaults []string
	logger   *slog.Logger
}

// NewPriceHandler creates a PriceHandler. defaults are used when the request
// names no ids.
func NewPriceHandler(svc PriceService, defaults []string, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{svc: svc, defaults: defaults, logger: logHandler(logger, "prices")}
}

// List returns {"prices": {"bitcoin": 50000}}.
// GET /api/prices?ids=bitcoin,ethereum
func (h *PriceHandler) List(w http.ResponseWriter, r *http.Request) {
	ids := queryList(r, "ids")
	if len(ids) == 0 {
		ids = h.defaults
	}
	prices, err := h.svc.Prices(r.Context(), ids)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prices": prices})
}

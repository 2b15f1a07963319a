package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/torunhut/api/internal/platform/httpx"
	"github.com/torunhut/api/internal/services"
)

// OrderBackfiller re-exports orders the spreadsheet sink missed. The OIDC
// service-to-service gate is applied at the router level.
type OrderBackfiller interface {
	Backfill(ctx context.Context) (int, error)
}

// InternalHandlers exposes the service-to-service maintenance endpoints.
type InternalHandlers struct {
	exporter OrderBackfiller
}

// NewInternalHandlers constructs a new InternalHandlers instance.
func NewInternalHandlers(exporter OrderBackfiller) *InternalHandlers {
	return &InternalHandlers{exporter: exporter}
}

// Routes registers the /internal endpoints.
func (h *InternalHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/exports/orders:backfill", h.backfillExports)
}

func (h *InternalHandlers) backfillExports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.exporter == nil {
		httpx.WriteError(ctx, w, httpx.NewError("export_unavailable", "order export is not configured", http.StatusServiceUnavailable))
		return
	}

	exported, err := h.exporter.Backfill(ctx)
	if err != nil {
		if errors.Is(err, services.ErrExportUnavailable) {
			httpx.WriteError(ctx, w, httpx.NewError("export_unavailable", "spreadsheet export temporarily unavailable", http.StatusServiceUnavailable))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("export_error", "failed to backfill order exports", http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"exported": exported})
}

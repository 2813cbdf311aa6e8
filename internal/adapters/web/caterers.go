package web

import (
	"net/http"

	"caterer-billing/internal/app"
)

// listCaterers handles GET /api/caterers.
func (h *Handler) listCaterers(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListCaterers(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Caterers)
}

// getCaterer handles GET /api/caterers/{id}.
func (h *Handler) getCaterer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetCaterer(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Caterer)
}

// createCaterer handles POST /api/caterers.
// Body: { name, contact_person?, phone?, email?, address?, gstin? }
func (h *Handler) createCaterer(w http.ResponseWriter, r *http.Request) {
	var body app.CatererRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateCaterer(r.Context(), body)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Caterer)
}

// updateCaterer handles PUT /api/caterers/{id}.
func (h *Handler) updateCaterer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body app.CatererRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.UpdateCaterer(r.Context(), id, body)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Caterer)
}

// deleteCaterer handles DELETE /api/caterers/{id}. Refused with 409 while
// distributions or payments still reference the caterer.
func (h *Handler) deleteCaterer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteCaterer(r.Context(), id); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// syncCatererBalance handles POST /api/caterers/{id}/sync-balance.
func (h *Handler) syncCatererBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.SyncCatererBalance(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Balance)
}

// syncAllBalances handles POST /api/sync-balances. Partial failure is not an
// HTTP error; the report carries the per-caterer tally.
func (h *Handler) syncAllBalances(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.SyncAllCatererBalances(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, report)
}

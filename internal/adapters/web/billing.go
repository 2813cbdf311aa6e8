package web

import (
	"net/http"

	"caterer-billing/internal/app"
)

// listDistributions handles GET /api/distributions?caterer_id=&status=.
func (h *Handler) listDistributions(w http.ResponseWriter, r *http.Request) {
	catererID, err := queryInt(r, "caterer_id")
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	status := r.URL.Query().Get("status")

	result, err := h.svc.ListDistributions(r.Context(), catererID, status)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Distributions)
}

// getDistribution handles GET /api/distributions/{id}.
func (h *Handler) getDistribution(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetDistribution(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Distribution)
}

// createDistribution handles POST /api/distributions.
// Body: { caterer_id, bill_no, distribution_date?, payment_mode?, notes?,
//
//	items: [{item_name, quantity, unit, rate, gst_percentage?}] }
//
// Line amounts, GST and totals are computed server-side; client-sent totals
// are never trusted.
func (h *Handler) createDistribution(w http.ResponseWriter, r *http.Request) {
	var body app.CreateDistributionRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateDistribution(r.Context(), body)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Distribution)
}

// deleteDistribution handles DELETE /api/distributions/{id}. Refused with 409
// while payments reference the bill.
func (h *Handler) deleteDistribution(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteDistribution(r.Context(), id); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applyPayment handles POST /api/distributions/{id}/payments.
// Body: { amount, payment_date?, payment_mode?, reference_no?, notes?,
// receipt_image?, expected_balance_due? }
//
// Overpayments return 422, stale expected_balance_due returns 409, payments
// against paid or cancelled bills return 400.
func (h *Handler) applyPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body app.ApplyPaymentRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	body.DistributionID = id

	result, err := h.svc.ApplyPayment(r.Context(), body)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Distribution)
}

// cancelDistribution handles POST /api/distributions/{id}/cancel.
func (h *Handler) cancelDistribution(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.CancelDistribution(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Distribution)
}

// listPayments handles GET /api/payments?caterer_id=&distribution_id=.
func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	catererID, err := queryInt(r, "caterer_id")
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	distributionID, err := queryInt(r, "distribution_id")
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.ListPayments(r.Context(), catererID, distributionID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Payments)
}

// recordCatererPayment handles POST /api/payments — a caterer-level payment
// not tied to any bill.
func (h *Handler) recordCatererPayment(w http.ResponseWriter, r *http.Request) {
	var body app.CatererPaymentRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.RecordCatererPayment(r.Context(), body)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Payment)
}

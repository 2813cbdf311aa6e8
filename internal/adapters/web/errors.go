package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"caterer-billing/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`

	// Related-record counts, present only on RELATED_RECORDS errors so the
	// UI can tell the user what blocks the deletion.
	Distributions int `json:"distributions,omitempty"`
	Payments      int `json:"payments,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeCoreError maps the typed core error taxonomy to HTTP statuses:
// validation 400, not found 404, overpayment 422, stale state and
// related-records conflicts 409, everything else 500.
func writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *core.ValidationError
		ope *core.OverpaymentError
		sse *core.StaleStateError
		nfe *core.NotFoundError
		rre *core.RelatedRecordsError
	)

	switch {
	case errors.As(err, &ve):
		writeError(w, r, ve.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.As(err, &nfe):
		writeError(w, r, nfe.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &ope):
		writeError(w, r, ope.Error(), "OVERPAYMENT", http.StatusUnprocessableEntity)
	case errors.As(err, &sse):
		writeError(w, r, sse.Error(), "STALE_STATE", http.StatusConflict)
	case errors.As(err, &rre):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(errorResponse{
			Error:         rre.Error(),
			Code:          "RELATED_RECORDS",
			RequestID:     requestIDFromContext(r.Context()),
			Distributions: rre.Distributions,
			Payments:      rre.Payments,
		})
	default:
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

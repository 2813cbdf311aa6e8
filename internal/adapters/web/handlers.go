package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"caterer-billing/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// All mutation endpoints: 1 MB body limit to prevent unbounded request abuse.
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// ── Caterers ──────────────────────────────────────────────────────────
		r.Get("/api/caterers", h.listCaterers)
		r.Post("/api/caterers", h.createCaterer)
		r.Get("/api/caterers/{id}", h.getCaterer)
		r.Put("/api/caterers/{id}", h.updateCaterer)
		r.Delete("/api/caterers/{id}", h.deleteCaterer)
		r.Post("/api/caterers/{id}/sync-balance", h.syncCatererBalance)
		r.Post("/api/sync-balances", h.syncAllBalances)

		// ── Distributions (bills) ─────────────────────────────────────────────
		r.Get("/api/distributions", h.listDistributions)
		r.Post("/api/distributions", h.createDistribution)
		r.Get("/api/distributions/{id}", h.getDistribution)
		r.Delete("/api/distributions/{id}", h.deleteDistribution)
		r.Post("/api/distributions/{id}/payments", h.applyPayment)
		r.Post("/api/distributions/{id}/cancel", h.cancelDistribution)

		// ── Payments ──────────────────────────────────────────────────────────
		r.Get("/api/payments", h.listPayments)
		r.Post("/api/payments", h.recordCatererPayment)

		// ── Reminders ─────────────────────────────────────────────────────────
		r.Get("/api/reminders", h.listReminders)
		r.Post("/api/reminders", h.createReminder)
		r.Get("/api/reminders/schedule", h.reminderSchedule)
		r.Post("/api/reminders/{id}/read", h.markReminderRead)
		r.Post("/api/reminders/{id}/acknowledge", h.acknowledgeReminder)
		r.Put("/api/reminders/next-date", h.setNextReminderDate)
		r.Delete("/api/reminders/{id}", h.deleteReminder)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// pathID extracts the {id} URL parameter as an integer.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid ID in URL", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter. Returns nil when absent.
func queryInt(r *http.Request, key string) (*int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, errors.New("invalid " + key + " query parameter")
	}
	return &n, nil
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

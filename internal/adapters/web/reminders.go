package web

import (
	"net/http"

	"caterer-billing/internal/app"
)

// listReminders handles GET /api/reminders — materialized reminders only,
// urgency computed against today.
func (h *Handler) listReminders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListReminders(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Reminders)
}

// reminderSchedule handles GET /api/reminders/schedule — the merged view of
// materialized reminders plus synthesized ones for open bills.
func (h *Handler) reminderSchedule(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetReminderSchedule(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Reminders)
}

// createReminder handles POST /api/reminders.
// Body: { caterer_id, distribution_id?, amount, original_due_date,
// reminder_date?, notes? }
//
// At most one reminder may exist per distribution; duplicates return 400.
func (h *Handler) createReminder(w http.ResponseWriter, r *http.Request) {
	var body app.CreateReminderRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateReminder(r.Context(), body)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Reminder)
}

// markReminderRead handles POST /api/reminders/{id}/read.
func (h *Handler) markReminderRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.MarkReminderRead(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Reminder)
}

// acknowledgeReminder handles POST /api/reminders/{id}/acknowledge.
func (h *Handler) acknowledgeReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.AcknowledgeReminder(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Reminder)
}

// setNextReminderDate handles PUT /api/reminders/next-date.
// Body: { source?, reminder_id?, distribution_id?, next_reminder_date }
//
// On a synthesized reminder (source "synthesized" + distribution_id) this
// promotes it to a persisted row before setting the follow-up date.
func (h *Handler) setNextReminderDate(w http.ResponseWriter, r *http.Request) {
	var body app.SetNextReminderRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.SetNextReminderDate(r.Context(), body)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result.Reminder)
}

// deleteReminder handles DELETE /api/reminders/{id}. Removes the reminder
// row only, never the underlying bill.
func (h *Handler) deleteReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteReminder(r.Context(), id); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

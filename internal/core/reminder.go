package core

import "time"

// upcomingWindow is how far ahead of today a reminder still counts as urgent.
const upcomingWindow = 48 * time.Hour

// UrgencyFor classifies a reminder date against today. Both sides are
// truncated to local midnight first.
func UrgencyFor(reminderDate, today time.Time) ReminderUrgency {
	rd := Midnight(reminderDate)
	td := Midnight(today)
	switch {
	case rd.Before(td):
		return UrgencyOverdue
	case rd.Equal(td):
		return UrgencyDueToday
	case rd.Before(td.Add(upcomingWindow)):
		return UrgencyUpcoming
	default:
		return UrgencyPending
	}
}

// BuildSchedule merges persisted reminder rows with reminders synthesized
// from distributions that still owe money. A distribution that already has a
// persisted reminder is never synthesized again, so at most one reminder
// exists per distribution. Cancelled and fully-paid distributions are the
// caller's responsibility to exclude; this function additionally skips any
// distribution whose balance is not positive.
//
// Synthesized reminders are always classified overdue: they only exist
// because the bill's balance is still open past its distribution date.
func BuildSchedule(distributions []Distribution, persisted []PaymentReminder, today time.Time) []Reminder {
	covered := make(map[int]bool, len(persisted))
	schedule := make([]Reminder, 0, len(persisted)+len(distributions))

	for _, p := range persisted {
		if p.DistributionID != nil {
			covered[*p.DistributionID] = true
		}
		schedule = append(schedule, Reminder{
			Source:           SourcePersisted,
			PersistedID:      p.ID,
			CatererID:        p.CatererID,
			DistributionID:   p.DistributionID,
			Amount:           p.Amount,
			ReminderDate:     p.ReminderDate,
			NextReminderDate: p.NextReminderDate,
			Urgency:          UrgencyFor(p.ReminderDate, today),
			IsRead:           p.IsRead,
			IsAcknowledged:   p.IsAcknowledged,
			Notes:            p.Notes,
		})
	}

	for _, d := range distributions {
		if d.Status == StatusCancelled || covered[d.ID] {
			continue
		}
		if !d.BalanceDue.IsPositive() {
			continue
		}
		id := d.ID
		schedule = append(schedule, Reminder{
			Source:         SourceSynthesized,
			CatererID:      d.CatererID,
			DistributionID: &id,
			Amount:         d.BalanceDue,
			ReminderDate:   d.DistributionDate,
			Urgency:        UrgencyOverdue,
		})
	}

	return schedule
}

// NotificationState tracks which reminders have already triggered a
// notification. It is an explicit value owned by the caller, created empty
// and discarded on teardown, never ambient global state.
type NotificationState struct {
	seen map[string]bool
}

func NewNotificationState() *NotificationState {
	return &NotificationState{seen: make(map[string]bool)}
}

// UrgentSet returns the reminders that should trigger a notification now:
// unread and either overdue, due today, or dated within the upcoming window.
// Each reminder is returned at most once per state lifetime.
func (ns *NotificationState) UrgentSet(schedule []Reminder, today time.Time) []Reminder {
	td := Midnight(today)
	var urgent []Reminder
	for _, r := range schedule {
		if r.IsRead {
			continue
		}
		soon := Midnight(r.ReminderDate).Before(td.Add(upcomingWindow))
		if r.Urgency != UrgencyOverdue && r.Urgency != UrgencyDueToday && !soon {
			continue
		}
		key := r.Key()
		if ns.seen[key] {
			continue
		}
		ns.seen[key] = true
		urgent = append(urgent, r)
	}
	return urgent
}

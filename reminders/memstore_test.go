package reminders

import (
	"context"
	"time"

	"randevu/types"
)

// memStore is an in-memory Store with the same guard semantics as PgStore,
// used to exercise the engine without a database.
type memStore struct {
	order        []string
	reminders    map[string]*types.AppointmentReminder
	appointments map[string]types.Appointment
	policies     map[string]types.ReminderPolicy
}

func newMemStore() *memStore {
	return &memStore{
		reminders:    map[string]*types.AppointmentReminder{},
		appointments: map[string]types.Appointment{},
		policies:     map[string]types.ReminderPolicy{},
	}
}

func (m *memStore) addAppointment(a types.Appointment) {
	m.appointments[a.ID] = a
}

func (m *memStore) addReminder(r types.AppointmentReminder) {
	cp := r
	m.reminders[r.ID] = &cp
	m.order = append(m.order, r.ID)
}

func (m *memStore) setPolicy(workspaceID string, p types.ReminderPolicy) {
	m.policies[workspaceID] = p
}

// setStatus simulates an external status change (e.g. the delivery consumer
// reporting a failure) without going through the state machine.
func (m *memStore) setStatus(id string, s types.ReminderStatus) {
	m.reminders[id].Status = s
}

func (m *memStore) all(match func(r types.AppointmentReminder) bool) []types.AppointmentReminder {
	var out []types.AppointmentReminder

	for _, id := range m.order {
		if r := m.reminders[id]; match(*r) {
			out = append(out, *r)
		}
	}

	return out
}

func (m *memStore) DueForReady(ctx context.Context, asOf time.Time) ([]types.AppointmentReminder, error) {
	return m.all(func(r types.AppointmentReminder) bool {
		return r.Status == types.ReminderStatusPending && !r.ScheduledFor.After(asOf)
	}), nil
}

func (m *memStore) PastAppointmentStart(ctx context.Context, asOf time.Time) ([]types.AppointmentReminder, error) {
	return m.all(func(r types.AppointmentReminder) bool {
		if r.Status != types.ReminderStatusPending && r.Status != types.ReminderStatusReady {
			return false
		}

		a, ok := m.appointments[r.AppointmentID]

		return ok && !a.StartsAt.After(asOf)
	}), nil
}

func (m *memStore) RetryCandidates(ctx context.Context, asOf time.Time) ([]types.AppointmentReminder, error) {
	return m.all(func(r types.AppointmentReminder) bool {
		if r.Status != types.ReminderStatusFailed && r.Status != types.ReminderStatusMissed {
			return false
		}

		return !r.NextRetryAt.Valid || !r.NextRetryAt.Time.After(asOf)
	}), nil
}

func (m *memStore) EscalationCandidates(ctx context.Context) ([]types.AppointmentReminder, error) {
	return m.all(func(r types.AppointmentReminder) bool {
		return r.Status == types.ReminderStatusFailed || r.Status == types.ReminderStatusMissed
	}), nil
}

func (m *memStore) Policies(ctx context.Context, workspaceIDs []string) (map[string]types.ReminderPolicy, error) {
	out := map[string]types.ReminderPolicy{}

	for _, id := range workspaceIDs {
		if p, ok := m.policies[id]; ok {
			out[id] = ResolvePolicy(&p)
		}
	}

	return out, nil
}

func (m *memStore) BulkTransition(ctx context.Context, workspaceID string, ids []string, from []types.ReminderStatus, to types.ReminderStatus, up Update) (int64, error) {
	var affected int64

	for _, id := range ids {
		r, ok := m.reminders[id]

		if !ok {
			continue
		}

		if workspaceID != AllWorkspaces && r.WorkspaceID != workspaceID {
			continue
		}

		if !inStatuses(r.Status, from) {
			continue
		}

		r.Status = to

		if up.IncrementAttempts {
			r.AttemptCount++
		}

		if up.ResetAttempts {
			r.AttemptCount = 0
		}

		if up.LastAttemptedAt != nil {
			r.LastAttemptedAt.Time = *up.LastAttemptedAt
			r.LastAttemptedAt.Valid = true
		}

		if up.NextRetryAt != nil {
			r.NextRetryAt.Time = *up.NextRetryAt
			r.NextRetryAt.Valid = true
		}

		if up.ClearNextRetry {
			r.NextRetryAt.Valid = false
		}

		if up.EscalatedAt != nil {
			r.EscalatedAt.Time = *up.EscalatedAt
			r.EscalatedAt.Valid = true
		}

		if up.OpenedAt != nil && !r.OpenedAt.Valid {
			r.OpenedAt.Time = *up.OpenedAt
			r.OpenedAt.Valid = true
		}

		if up.MarkedSentAt != nil {
			r.MarkedSentAt.Time = *up.MarkedSentAt
			r.MarkedSentAt.Valid = true
		}

		if up.MarkedSentBy != "" {
			r.MarkedSentBy.String = up.MarkedSentBy
			r.MarkedSentBy.Valid = true
		}

		if up.FailureReason != nil {
			r.FailureReason.String = *up.FailureReason
			r.FailureReason.Valid = true
		}

		if up.ClearFailureReason {
			r.FailureReason.Valid = false
			r.FailureReason.String = ""
		}

		affected++
	}

	return affected, nil
}

func (m *memStore) Get(ctx context.Context, workspaceID, id string) (types.AppointmentReminder, error) {
	r, ok := m.reminders[id]

	if !ok || r.WorkspaceID != workspaceID {
		return types.AppointmentReminder{}, ErrNotFound
	}

	return *r, nil
}

func (m *memStore) List(ctx context.Context, workspaceID string, f Filter) ([]types.AppointmentReminder, error) {
	return m.all(func(r types.AppointmentReminder) bool {
		if r.WorkspaceID != workspaceID {
			return false
		}

		if len(f.Statuses) > 0 && !inStatuses(r.Status, f.Statuses) {
			return false
		}

		a := m.appointments[r.AppointmentID]

		if f.TrainerID != "" && a.TrainerID != f.TrainerID {
			return false
		}

		if f.StudentID != "" && a.StudentID != f.StudentID {
			return false
		}

		if !f.From.IsZero() && r.ScheduledFor.Before(f.From) {
			return false
		}

		if !f.To.IsZero() && !r.ScheduledFor.Before(f.To) {
			return false
		}

		return true
	}), nil
}

func (m *memStore) Count(ctx context.Context, workspaceID string, f Filter) (uint64, error) {
	rs, _ := m.List(ctx, workspaceID, f)

	return uint64(len(rs)), nil
}

func (m *memStore) Insert(ctx context.Context, rs []types.AppointmentReminder) error {
	for _, r := range rs {
		m.addReminder(r)
	}

	return nil
}

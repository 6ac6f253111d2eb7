package reminders

import (
	"context"
	"testing"
	"time"

	"randevu/types"

	"go.uber.org/zap"
)

type recordingNotifier struct {
	ready     []string
	escalated []string
}

func (n *recordingNotifier) ReminderReady(ctx context.Context, r types.AppointmentReminder) error {
	n.ready = append(n.ready, r.ID)
	return nil
}

func (n *recordingNotifier) ReminderEscalated(ctx context.Context, r types.AppointmentReminder) error {
	n.escalated = append(n.escalated, r.ID)
	return nil
}

func testEngine(t *testing.T) (*Engine, *memStore, *recordingNotifier) {
	t.Helper()

	store := newMemStore()
	notifier := &recordingNotifier{}

	return New(store, notifier, zap.NewNop().Sugar()), store, notifier
}

func enabledPolicy() types.ReminderPolicy {
	return types.ReminderPolicy{
		Enabled:                true,
		WhatsappOffsetsMinutes: []int{1440, 120},
		Retry: types.RetryPolicy{
			MaxAttempts:         3,
			BackoffMinutes:      []int{30, 120, 360},
			EscalateOnExhausted: true,
		},
	}
}

func pendingReminder(id, wid, apptID string, scheduledFor time.Time) types.AppointmentReminder {
	return types.AppointmentReminder{
		ID:            id,
		WorkspaceID:   wid,
		AppointmentID: apptID,
		Channel:       types.ReminderChannelWhatsapp,
		ScheduledFor:  scheduledFor,
		Status:        types.ReminderStatusPending,
	}
}

func TestPrepareReadyIdempotent(t *testing.T) {
	e, store, notifier := testEngine(t)
	now := time.Now()

	store.setPolicy("ws1", enabledPolicy())
	store.addReminder(pendingReminder("r1", "ws1", "a1", now.Add(-time.Hour)))
	store.addReminder(pendingReminder("r2", "ws1", "a2", now.Add(time.Hour))) // not yet due

	n, err := e.PrepareReady(context.Background(), now)

	if err != nil {
		t.Fatal(err)
	}

	if n != 1 {
		t.Fatalf("expected 1 transition, got %d", n)
	}

	r, _ := store.Get(context.Background(), "ws1", "r1")

	if r.Status != types.ReminderStatusReady {
		t.Fatalf("expected r1 to be ready, got %s", r.Status)
	}

	if len(notifier.ready) != 1 || notifier.ready[0] != "r1" {
		t.Fatalf("expected one reminder.ready event for r1, got %v", notifier.ready)
	}

	// Second run with the same asOf must move nothing
	n, err = e.PrepareReady(context.Background(), now)

	if err != nil {
		t.Fatal(err)
	}

	if n != 0 {
		t.Fatalf("expected 0 transitions on repeat run, got %d", n)
	}
}

func TestPrepareReadyQuietHoursDeferral(t *testing.T) {
	e, store, _ := testEngine(t)

	ist, err := time.LoadLocation("Europe/Istanbul")

	if err != nil {
		t.Fatal(err)
	}

	pol := enabledPolicy()
	pol.QuietHours = types.QuietHours{
		Enabled:  true,
		Start:    "22:00",
		End:      "08:00",
		Timezone: "Europe/Istanbul",
	}
	store.setPolicy("ws1", pol)

	due := time.Date(2025, 3, 10, 23, 0, 0, 0, ist) // Monday 23:00 local
	store.addReminder(pendingReminder("r1", "ws1", "a1", due))

	n, err := e.PrepareReady(context.Background(), due)

	if err != nil {
		t.Fatal(err)
	}

	if n != 0 {
		t.Fatalf("expected quiet-hours deferral, got %d transitions", n)
	}

	r, _ := store.Get(context.Background(), "ws1", "r1")

	if r.Status != types.ReminderStatusPending {
		t.Fatalf("expected r1 to stay pending, got %s", r.Status)
	}

	// Next morning after the window
	morning := time.Date(2025, 3, 11, 8, 1, 0, 0, ist)

	n, err = e.PrepareReady(context.Background(), morning)

	if err != nil {
		t.Fatal(err)
	}

	if n != 1 {
		t.Fatalf("expected 1 transition after quiet hours, got %d", n)
	}
}

func TestMarkMissed(t *testing.T) {
	e, store, _ := testEngine(t)
	now := time.Now()

	store.setPolicy("ws1", enabledPolicy())
	store.addAppointment(types.Appointment{ID: "a1", WorkspaceID: "ws1", StartsAt: now.Add(-5 * time.Minute)})
	store.addAppointment(types.Appointment{ID: "a2", WorkspaceID: "ws1", StartsAt: now.Add(30 * time.Minute)})
	store.addReminder(pendingReminder("r1", "ws1", "a1", now.Add(-time.Hour)))
	store.addReminder(pendingReminder("r2", "ws1", "a2", now.Add(-time.Hour)))

	n, err := e.MarkMissed(context.Background(), now)

	if err != nil {
		t.Fatal(err)
	}

	if n != 1 {
		t.Fatalf("expected 1 missed reminder, got %d", n)
	}

	r1, _ := store.Get(context.Background(), "ws1", "r1")
	r2, _ := store.Get(context.Background(), "ws1", "r2")

	if r1.Status != types.ReminderStatusMissed {
		t.Fatalf("expected r1 missed, got %s", r1.Status)
	}

	if r2.Status != types.ReminderStatusPending {
		t.Fatalf("expected r2 untouched, got %s", r2.Status)
	}

	// Idempotence
	n, err = e.MarkMissed(context.Background(), now)

	if err != nil {
		t.Fatal(err)
	}

	if n != 0 {
		t.Fatalf("expected 0 on repeat run, got %d", n)
	}
}

func TestRetryExhaustionBoundary(t *testing.T) {
	e, store, _ := testEngine(t)
	now := time.Now()

	pol := enabledPolicy()
	pol.Retry.MaxAttempts = 2
	pol.Retry.BackoffMinutes = []int{30, 120}
	store.setPolicy("ws1", pol)

	r := pendingReminder("r1", "ws1", "a1", now.Add(-2*time.Hour))
	r.Status = types.ReminderStatusFailed
	store.addReminder(r)

	// First retry cycle
	n, err := e.RetryFailed(context.Background(), now)

	if err != nil {
		t.Fatal(err)
	}

	if n != 1 {
		t.Fatalf("expected 1 retried, got %d", n)
	}

	got, _ := store.Get(context.Background(), "ws1", "r1")

	if got.Status != types.ReminderStatusPending || got.AttemptCount != 1 {
		t.Fatalf("expected pending with 1 attempt, got %s/%d", got.Status, got.AttemptCount)
	}

	if !got.NextRetryAt.Valid || !got.NextRetryAt.Time.Equal(now.Add(30*time.Minute)) {
		t.Fatalf("expected next retry 30m out, got %v", got.NextRetryAt)
	}

	// Delivery fails again
	store.setStatus("r1", types.ReminderStatusFailed)

	second := now.Add(31 * time.Minute)
	n, err = e.RetryFailed(context.Background(), second)

	if err != nil {
		t.Fatal(err)
	}

	if n != 1 {
		t.Fatalf("expected second retry, got %d", n)
	}

	got, _ = store.Get(context.Background(), "ws1", "r1")

	if got.AttemptCount != 2 {
		t.Fatalf("expected 2 attempts, got %d", got.AttemptCount)
	}

	if !got.NextRetryAt.Time.Equal(second.Add(120 * time.Minute)) {
		t.Fatalf("expected next retry 120m out, got %v", got.NextRetryAt.Time)
	}

	// Exhausted: third cycle must not touch it
	store.setStatus("r1", types.ReminderStatusFailed)

	n, err = e.RetryFailed(context.Background(), second.Add(3*time.Hour))

	if err != nil {
		t.Fatal(err)
	}

	if n != 0 {
		t.Fatalf("expected 0 after exhaustion, got %d", n)
	}

	got, _ = store.Get(context.Background(), "ws1", "r1")

	if got.Status != types.ReminderStatusFailed {
		t.Fatalf("expected reminder left failed, got %s", got.Status)
	}
}

func TestEscalateStale(t *testing.T) {
	e, store, notifier := testEngine(t)
	now := time.Now()

	pol := enabledPolicy()
	pol.Retry.MaxAttempts = 2
	store.setPolicy("ws1", pol)

	noEsc := enabledPolicy()
	noEsc.Retry.MaxAttempts = 2
	noEsc.Retry.EscalateOnExhausted = false
	store.setPolicy("ws2", noEsc)

	exhausted := pendingReminder("r1", "ws1", "a1", now.Add(-time.Hour))
	exhausted.Status = types.ReminderStatusFailed
	exhausted.AttemptCount = 2
	store.addReminder(exhausted)

	// missed counts as escalation-eligible too
	missed := pendingReminder("r2", "ws1", "a2", now.Add(-time.Hour))
	missed.Status = types.ReminderStatusMissed
	missed.AttemptCount = 2
	store.addReminder(missed)

	remaining := pendingReminder("r3", "ws1", "a3", now.Add(-time.Hour))
	remaining.Status = types.ReminderStatusFailed
	remaining.AttemptCount = 1
	store.addReminder(remaining)

	optedOut := pendingReminder("r4", "ws2", "a4", now.Add(-time.Hour))
	optedOut.Status = types.ReminderStatusFailed
	optedOut.AttemptCount = 2
	store.addReminder(optedOut)

	n, err := e.EscalateStale(context.Background(), now)

	if err != nil {
		t.Fatal(err)
	}

	if n != 2 {
		t.Fatalf("expected 2 escalations, got %d", n)
	}

	r1, _ := store.Get(context.Background(), "ws1", "r1")

	if r1.Status != types.ReminderStatusEscalated || !r1.EscalatedAt.Valid {
		t.Fatalf("expected r1 escalated with escalated_at set, got %s", r1.Status)
	}

	r3, _ := store.Get(context.Background(), "ws1", "r3")

	if r3.Status != types.ReminderStatusFailed {
		t.Fatalf("expected r3 (attempts left) untouched, got %s", r3.Status)
	}

	r4, _ := store.Get(context.Background(), "ws2", "r4")

	if r4.Status != types.ReminderStatusFailed {
		t.Fatalf("expected r4 (escalation opt-out) untouched, got %s", r4.Status)
	}

	if len(notifier.escalated) != 2 {
		t.Fatalf("expected 2 reminder.escalated events, got %v", notifier.escalated)
	}
}

func TestBulkWorkspaceIsolation(t *testing.T) {
	e, store, _ := testEngine(t)
	now := time.Now()

	store.addReminder(pendingReminder("r1", "ws1", "a1", now))
	store.addReminder(pendingReminder("r2", "ws2", "a2", now))

	// ws1 caller passes IDs spanning two workspaces
	n, err := e.Bulk(context.Background(), "ws1", []string{"r1", "r2"}, types.ReminderBulkActionCancel, "u1", now)

	if err != nil {
		t.Fatal(err)
	}

	if n != 1 {
		t.Fatalf("expected only the caller's reminder affected, got %d", n)
	}

	r2, _ := store.Get(context.Background(), "ws2", "r2")

	if r2.Status != types.ReminderStatusPending {
		t.Fatalf("expected cross-tenant reminder untouched, got %s", r2.Status)
	}
}

func TestCancelIdempotent(t *testing.T) {
	e, store, _ := testEngine(t)
	now := time.Now()

	store.addReminder(pendingReminder("r1", "ws1", "a1", now))

	r, err := e.Cancel(context.Background(), "ws1", "r1")

	if err != nil {
		t.Fatal(err)
	}

	if r.Status != types.ReminderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", r.Status)
	}

	// Second cancel is a no-op success
	r, err = e.Cancel(context.Background(), "ws1", "r1")

	if err != nil {
		t.Fatal(err)
	}

	if r.Status != types.ReminderStatusCancelled {
		t.Fatalf("expected cancelled after repeat, got %s", r.Status)
	}
}

func TestCancelSentRejected(t *testing.T) {
	e, store, _ := testEngine(t)
	now := time.Now()

	r := pendingReminder("r1", "ws1", "a1", now)
	r.Status = types.ReminderStatusSent
	store.addReminder(r)

	_, err := e.Cancel(context.Background(), "ws1", "r1")

	if err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRequeueResetsAttempts(t *testing.T) {
	e, store, _ := testEngine(t)
	now := time.Now()

	r := pendingReminder("r1", "ws1", "a1", now)
	r.Status = types.ReminderStatusFailed
	r.AttemptCount = 2
	r.NextRetryAt.Time = now.Add(time.Hour)
	r.NextRetryAt.Valid = true
	store.addReminder(r)

	got, err := e.Requeue(context.Background(), "ws1", "r1", "manual_retry", now)

	if err != nil {
		t.Fatal(err)
	}

	if got.Status != types.ReminderStatusPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}

	if got.AttemptCount != 0 {
		t.Fatalf("expected attempts reset, got %d", got.AttemptCount)
	}

	if got.NextRetryAt.Valid {
		t.Fatal("expected next_retry_at cleared")
	}

	if !got.FailureReason.Valid || got.FailureReason.String != "manual_retry" {
		t.Fatalf("expected failure reason recorded, got %v", got.FailureReason)
	}
}

func TestOpen(t *testing.T) {
	e, store, _ := testEngine(t)
	now := time.Now()

	store.addReminder(pendingReminder("r1", "ws1", "a1", now))

	r, err := e.Open(context.Background(), "ws1", "r1", now)

	if err != nil {
		t.Fatal(err)
	}

	if r.Status != types.ReminderStatusReady || !r.OpenedAt.Valid {
		t.Fatalf("expected ready with opened_at, got %s", r.Status)
	}

	first := r.OpenedAt.Time

	// Opening again is a no-op and keeps the first opened_at
	r, err = e.Open(context.Background(), "ws1", "r1", now.Add(time.Minute))

	if err != nil {
		t.Fatal(err)
	}

	if !r.OpenedAt.Time.Equal(first) {
		t.Fatal("expected first opened_at to stick")
	}
}

func TestOpenTerminalRejected(t *testing.T) {
	e, store, _ := testEngine(t)
	now := time.Now()

	r := pendingReminder("r1", "ws1", "a1", now)
	r.Status = types.ReminderStatusEscalated
	store.addReminder(r)

	_, err := e.Open(context.Background(), "ws1", "r1", now)

	if err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestMarkSentForceConfirm(t *testing.T) {
	e, store, _ := testEngine(t)
	now := time.Now()

	r := pendingReminder("r1", "ws1", "a1", now)
	r.Status = types.ReminderStatusMissed
	store.addReminder(r)

	got, err := e.MarkSent(context.Background(), "ws1", "r1", "u42", now)

	if err != nil {
		t.Fatal(err)
	}

	if got.Status != types.ReminderStatusSent {
		t.Fatalf("expected sent, got %s", got.Status)
	}

	if !got.MarkedSentBy.Valid || got.MarkedSentBy.String != "u42" {
		t.Fatalf("expected confirming user recorded, got %v", got.MarkedSentBy)
	}
}

func TestGetWrongWorkspaceIsNotFound(t *testing.T) {
	e, store, _ := testEngine(t)
	now := time.Now()

	store.addReminder(pendingReminder("r1", "ws1", "a1", now))

	_, err := e.Get(context.Background(), "ws2", "r1")

	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound across tenants, got %v", err)
	}
}

func TestSeedForAppointment(t *testing.T) {
	e, store, _ := testEngine(t)
	start := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)

	appt := types.Appointment{
		ID:          "a1",
		WorkspaceID: "ws1",
		StartsAt:    start,
	}

	rs, err := e.SeedForAppointment(context.Background(), appt, enabledPolicy(), map[string]any{"student": "Ayşe"})

	if err != nil {
		t.Fatal(err)
	}

	if len(rs) != 2 {
		t.Fatalf("expected one reminder per offset, got %d", len(rs))
	}

	if !rs[0].ScheduledFor.Equal(start.Add(-24 * time.Hour)) {
		t.Fatalf("expected first reminder a day before, got %v", rs[0].ScheduledFor)
	}

	if !rs[1].ScheduledFor.Equal(start.Add(-2 * time.Hour)) {
		t.Fatalf("expected second reminder two hours before, got %v", rs[1].ScheduledFor)
	}

	listed, _ := store.List(context.Background(), "ws1", Filter{})

	if len(listed) != 2 {
		t.Fatalf("expected reminders persisted, got %d", len(listed))
	}

	// Disabled policy seeds nothing
	disabled := enabledPolicy()
	disabled.Enabled = false

	rs, err = e.SeedForAppointment(context.Background(), appt, disabled, nil)

	if err != nil {
		t.Fatal(err)
	}

	if len(rs) != 0 {
		t.Fatalf("expected no reminders for disabled policy, got %d", len(rs))
	}
}

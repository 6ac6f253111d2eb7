// The reminder lifecycle engine: four idempotent batch transitions driven by
// a periodic invoker, plus the manual single-reminder actions exposed over
// HTTP. All state lives in the Store; the engine holds no mutable state of
// its own, so overlapping invocations are safe (the store's status guard
// makes a row already moved by a prior run invisible to the next).
package reminders

import (
	"context"
	"errors"
	"time"

	"randevu/notifications"
	"randevu/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Engine struct {
	store    Store
	notifier notifications.Notifier
	logger   *zap.SugaredLogger
}

func New(store Store, notifier notifications.Notifier, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// policies fetches the resolved policy for every workspace appearing in rs,
// one batched lookup per batch invocation.
func (e *Engine) policies(ctx context.Context, rs []types.AppointmentReminder) (map[string]types.ReminderPolicy, error) {
	seen := make(map[string]struct{}, len(rs))
	var ids []string

	for _, r := range rs {
		if _, ok := seen[r.WorkspaceID]; ok {
			continue
		}

		seen[r.WorkspaceID] = struct{}{}
		ids = append(ids, r.WorkspaceID)
	}

	if len(ids) == 0 {
		return map[string]types.ReminderPolicy{}, nil
	}

	pols, err := e.store.Policies(ctx, ids)

	if err != nil {
		return nil, err
	}

	return pols, nil
}

func policyFor(pols map[string]types.ReminderPolicy, workspaceID string) types.ReminderPolicy {
	if p, ok := pols[workspaceID]; ok {
		return p
	}

	return ResolvePolicy(nil)
}

// PrepareReady promotes due pending reminders to ready, skipping workspaces
// currently inside a muted window. Skipped rows stay pending and are simply
// re-evaluated on the next cycle, which is how quiet-hours deferral works:
// no timer is armed, the cadence itself is the timer.
func (e *Engine) PrepareReady(ctx context.Context, asOf time.Time) (int64, error) {
	due, err := e.store.DueForReady(ctx, asOf)

	if err != nil {
		return 0, err
	}

	if len(due) == 0 {
		return 0, nil
	}

	pols, err := e.policies(ctx, due)

	if err != nil {
		return 0, err
	}

	byWorkspace := make(map[string][]types.AppointmentReminder)

	for _, r := range due {
		if Muted(asOf, policyFor(pols, r.WorkspaceID)) {
			continue
		}

		byWorkspace[r.WorkspaceID] = append(byWorkspace[r.WorkspaceID], r)
	}

	var total int64

	for wid, rs := range byWorkspace {
		n, err := e.store.BulkTransition(ctx, wid, reminderIDs(rs), []types.ReminderStatus{types.ReminderStatusPending}, types.ReminderStatusReady, Update{})

		if err != nil {
			return total, err
		}

		total += n

		if n == 0 {
			continue
		}

		for _, r := range rs {
			if err := e.notifier.ReminderReady(ctx, r); err != nil {
				e.logger.Error("Failed to emit reminder.ready event", zap.Error(err), zap.String("reminder_id", r.ID))
			}
		}
	}

	return total, nil
}

// MarkMissed expires pending/ready reminders whose appointment has already
// started. Policy is deliberately not consulted: a reminder whose session
// began is missed regardless of quiet hours.
func (e *Engine) MarkMissed(ctx context.Context, asOf time.Time) (int64, error) {
	expired, err := e.store.PastAppointmentStart(ctx, asOf)

	if err != nil {
		return 0, err
	}

	var total int64

	for wid, rs := range groupByWorkspace(expired) {
		n, err := e.store.BulkTransition(
			ctx,
			wid,
			reminderIDs(rs),
			[]types.ReminderStatus{types.ReminderStatusPending, types.ReminderStatusReady},
			types.ReminderStatusMissed,
			Update{},
		)

		if err != nil {
			return total, err
		}

		total += n
	}

	return total, nil
}

// RetryFailed moves failed/missed reminders with attempts left back to
// pending so they re-enter the PrepareReady flow. Rows that exhausted their
// workspace's max_attempts are left alone; EscalateStale owns those.
//
// Rows are grouped by workspace and current attempt count so each bulk
// update carries one uniform next_retry_at (the backoff is indexed by the
// attempt count before this retry, 0-based against completed attempts).
func (e *Engine) RetryFailed(ctx context.Context, asOf time.Time) (int64, error) {
	candidates, err := e.store.RetryCandidates(ctx, asOf)

	if err != nil {
		return 0, err
	}

	if len(candidates) == 0 {
		return 0, nil
	}

	pols, err := e.policies(ctx, candidates)

	if err != nil {
		return 0, err
	}

	type retryGroup struct {
		workspaceID string
		attempts    int
	}

	groups := make(map[retryGroup][]string)

	for _, r := range candidates {
		pol := policyFor(pols, r.WorkspaceID)

		if r.AttemptCount >= pol.Retry.MaxAttempts {
			continue
		}

		key := retryGroup{workspaceID: r.WorkspaceID, attempts: r.AttemptCount}
		groups[key] = append(groups[key], r.ID)
	}

	var total int64

	for key, ids := range groups {
		pol := policyFor(pols, key.workspaceID)
		next := asOf.Add(Backoff(key.attempts, pol.Retry))

		n, err := e.store.BulkTransition(
			ctx,
			key.workspaceID,
			ids,
			[]types.ReminderStatus{types.ReminderStatusFailed, types.ReminderStatusMissed},
			types.ReminderStatusPending,
			Update{
				IncrementAttempts:  true,
				LastAttemptedAt:    &asOf,
				NextRetryAt:        &next,
				ClearFailureReason: true,
			},
		)

		if err != nil {
			return total, err
		}

		total += n
	}

	return total, nil
}

// EscalateStale moves retry-exhausted failed/missed reminders to escalated
// for workspaces that opted in via escalate_on_exhausted. Workspaces without
// the flag keep exhausted rows in failed/missed for reports to surface.
func (e *Engine) EscalateStale(ctx context.Context, asOf time.Time) (int64, error) {
	candidates, err := e.store.EscalationCandidates(ctx)

	if err != nil {
		return 0, err
	}

	if len(candidates) == 0 {
		return 0, nil
	}

	pols, err := e.policies(ctx, candidates)

	if err != nil {
		return 0, err
	}

	byWorkspace := make(map[string][]types.AppointmentReminder)

	for _, r := range candidates {
		pol := policyFor(pols, r.WorkspaceID)

		if !pol.Retry.EscalateOnExhausted || r.AttemptCount < pol.Retry.MaxAttempts {
			continue
		}

		byWorkspace[r.WorkspaceID] = append(byWorkspace[r.WorkspaceID], r)
	}

	var total int64

	for wid, rs := range byWorkspace {
		n, err := e.store.BulkTransition(
			ctx,
			wid,
			reminderIDs(rs),
			[]types.ReminderStatus{types.ReminderStatusFailed, types.ReminderStatusMissed},
			types.ReminderStatusEscalated,
			Update{EscalatedAt: &asOf},
		)

		if err != nil {
			return total, err
		}

		total += n

		if n == 0 {
			continue
		}

		for _, r := range rs {
			if err := e.notifier.ReminderEscalated(ctx, r); err != nil {
				e.logger.Error("Failed to emit reminder.escalated event", zap.Error(err), zap.String("reminder_id", r.ID))
			}
		}
	}

	return total, nil
}

// Open marks a reminder as viewed by a human, promoting pending to ready.
// Opening an already-ready reminder is a no-op success; the first opened_at
// sticks.
func (e *Engine) Open(ctx context.Context, workspaceID, id string, now time.Time) (types.AppointmentReminder, error) {
	return e.single(
		ctx,
		workspaceID,
		id,
		[]types.ReminderStatus{types.ReminderStatusPending, types.ReminderStatusReady},
		types.ReminderStatusReady,
		Update{OpenedAt: &now},
	)
}

// MarkSent records a manual send confirmation. Operators may force-confirm
// failed/missed reminders automation already gave up on.
func (e *Engine) MarkSent(ctx context.Context, workspaceID, id, byUserID string, now time.Time) (types.AppointmentReminder, error) {
	return e.single(
		ctx,
		workspaceID,
		id,
		[]types.ReminderStatus{types.ReminderStatusPending, types.ReminderStatusReady, types.ReminderStatusFailed, types.ReminderStatusMissed},
		types.ReminderStatusSent,
		Update{MarkedSentAt: &now, MarkedSentBy: byUserID},
	)
}

// Cancel terminates a reminder. Cancelling an already-cancelled reminder is
// a no-op success, not an error.
func (e *Engine) Cancel(ctx context.Context, workspaceID, id string) (types.AppointmentReminder, error) {
	r, err := e.store.Get(ctx, workspaceID, id)

	if err != nil {
		return types.AppointmentReminder{}, err
	}

	if r.Status == types.ReminderStatusCancelled {
		return r, nil
	}

	return e.single(
		ctx,
		workspaceID,
		id,
		[]types.ReminderStatus{types.ReminderStatusPending, types.ReminderStatusReady, types.ReminderStatusMissed, types.ReminderStatusFailed},
		types.ReminderStatusCancelled,
		Update{},
	)
}

// Requeue gives a failed, missed or cancelled reminder another full cycle:
// attempts reset to zero, the retry timer cleared, the reminder back to
// pending. This is the explicit escape hatch past retry exhaustion.
func (e *Engine) Requeue(ctx context.Context, workspaceID, id, failureReason string, now time.Time) (types.AppointmentReminder, error) {
	up := Update{
		ResetAttempts:      true,
		ClearNextRetry:     true,
		ClearFailureReason: failureReason == "",
	}

	if failureReason != "" {
		up.FailureReason = &failureReason
	}

	return e.single(
		ctx,
		workspaceID,
		id,
		[]types.ReminderStatus{types.ReminderStatusFailed, types.ReminderStatusMissed, types.ReminderStatusCancelled},
		types.ReminderStatusPending,
		up,
	)
}

// single runs one guarded transition for a manual action and returns the
// reminder afterwards. Guard failures surface as ErrInvalidTransition; a
// concurrent transition to the same target counts as success.
func (e *Engine) single(ctx context.Context, workspaceID, id string, from []types.ReminderStatus, to types.ReminderStatus, up Update) (types.AppointmentReminder, error) {
	r, err := e.store.Get(ctx, workspaceID, id)

	if err != nil {
		return types.AppointmentReminder{}, err
	}

	if !inStatuses(r.Status, from) || !CanTransition(r.Status, to) {
		return types.AppointmentReminder{}, ErrInvalidTransition
	}

	n, err := e.store.BulkTransition(ctx, workspaceID, []string{id}, from, to, up)

	if err != nil {
		return types.AppointmentReminder{}, err
	}

	r, getErr := e.store.Get(ctx, workspaceID, id)

	if getErr != nil {
		return types.AppointmentReminder{}, getErr
	}

	// Lost a race with a concurrent action. Fine if it landed on the same
	// status, otherwise report the guard failure.
	if n == 0 && r.Status != to {
		return types.AppointmentReminder{}, ErrInvalidTransition
	}

	return r, nil
}

// Bulk applies a manual action across an explicit ID set. Rows failing the
// action's guard are silently skipped; the returned count is what actually
// changed. The ID set is always scoped to the acting workspace, so IDs from
// other tenants fall out of the count instead of erroring.
func (e *Engine) Bulk(ctx context.Context, workspaceID string, ids []string, action types.ReminderBulkAction, byUserID string, now time.Time) (int64, error) {
	switch action {
	case types.ReminderBulkActionMarkSent:
		return e.store.BulkTransition(
			ctx,
			workspaceID,
			ids,
			[]types.ReminderStatus{types.ReminderStatusPending, types.ReminderStatusReady, types.ReminderStatusFailed, types.ReminderStatusMissed},
			types.ReminderStatusSent,
			Update{MarkedSentAt: &now, MarkedSentBy: byUserID},
		)
	case types.ReminderBulkActionCancel:
		return e.store.BulkTransition(
			ctx,
			workspaceID,
			ids,
			[]types.ReminderStatus{types.ReminderStatusPending, types.ReminderStatusReady, types.ReminderStatusMissed, types.ReminderStatusFailed},
			types.ReminderStatusCancelled,
			Update{},
		)
	case types.ReminderBulkActionRequeue:
		return e.store.BulkTransition(
			ctx,
			workspaceID,
			ids,
			[]types.ReminderStatus{types.ReminderStatusFailed, types.ReminderStatusMissed, types.ReminderStatusCancelled},
			types.ReminderStatusPending,
			Update{ResetAttempts: true, ClearNextRetry: true, ClearFailureReason: true},
		)
	default:
		return 0, errors.New("unknown bulk action: " + string(action))
	}
}

// SeedForAppointment creates one pending reminder per configured offset for
// a freshly scheduled appointment. Called by the booking flow; a disabled
// policy creates nothing.
func (e *Engine) SeedForAppointment(ctx context.Context, appt types.Appointment, pol types.ReminderPolicy, payload map[string]any) ([]types.AppointmentReminder, error) {
	pol = ResolvePolicy(&pol)

	if !pol.Enabled {
		return nil, nil
	}

	rs := make([]types.AppointmentReminder, 0, len(pol.WhatsappOffsetsMinutes))

	for _, offset := range pol.WhatsappOffsetsMinutes {
		rs = append(rs, types.AppointmentReminder{
			ID:            uuid.NewString(),
			WorkspaceID:   appt.WorkspaceID,
			AppointmentID: appt.ID,
			Channel:       types.ReminderChannelWhatsapp,
			ScheduledFor:  appt.StartsAt.Add(-time.Duration(offset) * time.Minute),
			Status:        types.ReminderStatusPending,
			Payload:       payload,
		})
	}

	if err := e.store.Insert(ctx, rs); err != nil {
		return nil, err
	}

	return rs, nil
}

// List delegates to the repository; manual-action HTTP handlers and the CSV
// export share this query.
func (e *Engine) List(ctx context.Context, workspaceID string, f Filter) ([]types.AppointmentReminder, error) {
	return e.store.List(ctx, workspaceID, f)
}

// Count returns the filter's total match count for pagination.
func (e *Engine) Count(ctx context.Context, workspaceID string, f Filter) (uint64, error) {
	return e.store.Count(ctx, workspaceID, f)
}

// Get returns one workspace-scoped reminder.
func (e *Engine) Get(ctx context.Context, workspaceID, id string) (types.AppointmentReminder, error) {
	return e.store.Get(ctx, workspaceID, id)
}

func reminderIDs(rs []types.AppointmentReminder) []string {
	ids := make([]string, len(rs))

	for i, r := range rs {
		ids[i] = r.ID
	}

	return ids
}

func groupByWorkspace(rs []types.AppointmentReminder) map[string][]types.AppointmentReminder {
	out := make(map[string][]types.AppointmentReminder)

	for _, r := range rs {
		out[r.WorkspaceID] = append(out[r.WorkspaceID], r)
	}

	return out
}

func inStatuses(s types.ReminderStatus, set []types.ReminderStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}

	return false
}

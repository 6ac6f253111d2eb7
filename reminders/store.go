package reminders

import (
	"context"
	"errors"
	"time"

	"randevu/types"
)

// ErrNotFound is returned when a reminder does not exist or is outside the
// caller's workspace. The two cases are deliberately indistinguishable so
// existence never leaks across tenants.
var ErrNotFound = errors.New("reminder not found")

// ErrInvalidTransition is returned when a manual action's guard fails, e.g.
// opening an escalated reminder.
var ErrInvalidTransition = errors.New("invalid reminder state transition")

// AllWorkspaces is the workspace filter value meaning "no tenant scoping".
// Only the periodic batch operations may use it; everything reachable from
// the HTTP surface passes a concrete workspace ID.
const AllWorkspaces = ""

// Filter narrows List queries. Zero values mean "no constraint".
type Filter struct {
	Statuses  []types.ReminderStatus
	TrainerID string
	StudentID string
	From      time.Time // scheduled_for >= From
	To        time.Time // scheduled_for < To
	Limit     uint64
	Offset    uint64
}

// Update is the set of field changes applied alongside a bulk transition.
// All rows in one BulkTransition call receive the same updates; callers
// needing per-row values (retry backoff) group rows accordingly.
type Update struct {
	IncrementAttempts  bool
	ResetAttempts      bool
	LastAttemptedAt    *time.Time
	NextRetryAt        *time.Time
	ClearNextRetry     bool
	EscalatedAt        *time.Time
	OpenedAt           *time.Time // applied only if opened_at is still unset
	MarkedSentAt       *time.Time
	MarkedSentBy       string
	FailureReason      *string
	ClearFailureReason bool
}

// Store is the persistence boundary of the reminder engine. Each call is
// atomic; BulkTransition in particular must guard on the expected source
// statuses per row so that overlapping batch runs stay idempotent.
//
// Any error other than ErrNotFound is a storage error and propagates to the
// invoker untouched, which retries on its next scheduled run.
type Store interface {
	// DueForReady returns pending reminders with scheduled_for <= asOf.
	DueForReady(ctx context.Context, asOf time.Time) ([]types.AppointmentReminder, error)

	// PastAppointmentStart returns pending/ready reminders whose owning
	// appointment has already started as of asOf.
	PastAppointmentStart(ctx context.Context, asOf time.Time) ([]types.AppointmentReminder, error)

	// RetryCandidates returns failed/missed reminders whose retry timer has
	// elapsed (or was never set) as of asOf.
	RetryCandidates(ctx context.Context, asOf time.Time) ([]types.AppointmentReminder, error)

	// EscalationCandidates returns all failed/missed reminders. Retry
	// exhaustion is policy-dependent, so the engine filters.
	EscalationCandidates(ctx context.Context) ([]types.AppointmentReminder, error)

	// Policies returns the resolved reminder policy per workspace ID, one
	// batched lookup per engine invocation.
	Policies(ctx context.Context, workspaceIDs []string) (map[string]types.ReminderPolicy, error)

	// BulkTransition moves the given rows from any of the expected source
	// statuses to the target status, applying the field updates, and returns
	// how many rows actually changed. Rows no longer in a source status are
	// skipped, not errors. workspaceID of AllWorkspaces disables scoping.
	BulkTransition(ctx context.Context, workspaceID string, ids []string, from []types.ReminderStatus, to types.ReminderStatus, up Update) (int64, error)

	// Get returns a single reminder scoped to the workspace, or ErrNotFound.
	Get(ctx context.Context, workspaceID, id string) (types.AppointmentReminder, error)

	// List returns reminders of a workspace matching the filter, newest
	// scheduled_for first.
	List(ctx context.Context, workspaceID string, f Filter) ([]types.AppointmentReminder, error)

	// Count returns the total number of reminders matching the filter,
	// ignoring Limit/Offset. Used for pagination.
	Count(ctx context.Context, workspaceID string, f Filter) (uint64, error)

	// Insert stores freshly created reminder records.
	Insert(ctx context.Context, rs []types.AppointmentReminder) error
}

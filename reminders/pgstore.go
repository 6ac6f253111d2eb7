package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"randevu/db"
	"randevu/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	reminderColsArr = db.GetCols(types.AppointmentReminder{})
	reminderCols    = strings.Join(reminderColsArr, ", ")

	// Prefixed variant for queries joining appointments
	reminderColsR = "r." + strings.Join(reminderColsArr, ", r.")
)

// PgStore is the production Store over Postgres. All bulk transitions are
// single guarded UPDATE statements, so each row is a compare-and-swap on its
// status and concurrent batch runs cannot double-transition a row.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) collect(rows pgx.Rows, err error, op string) ([]types.AppointmentReminder, error) {
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}

	rs, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.AppointmentReminder])

	if err != nil {
		return nil, fmt.Errorf("%s: collect: %w", op, err)
	}

	return rs, nil
}

func (s *PgStore) DueForReady(ctx context.Context, asOf time.Time) ([]types.AppointmentReminder, error) {
	rows, err := s.pool.Query(
		ctx,
		"SELECT "+reminderCols+" FROM appointment_reminders WHERE status = $1 AND scheduled_for <= $2 ORDER BY scheduled_for",
		types.ReminderStatusPending,
		asOf,
	)

	return s.collect(rows, err, "dueForReady")
}

func (s *PgStore) PastAppointmentStart(ctx context.Context, asOf time.Time) ([]types.AppointmentReminder, error) {
	rows, err := s.pool.Query(
		ctx,
		"SELECT "+reminderColsR+" FROM appointment_reminders r JOIN appointments a ON a.id = r.appointment_id WHERE r.status = ANY($1) AND a.starts_at <= $2",
		statusStrings(types.ReminderStatusPending, types.ReminderStatusReady),
		asOf,
	)

	return s.collect(rows, err, "pastAppointmentStart")
}

func (s *PgStore) RetryCandidates(ctx context.Context, asOf time.Time) ([]types.AppointmentReminder, error) {
	rows, err := s.pool.Query(
		ctx,
		"SELECT "+reminderCols+" FROM appointment_reminders WHERE status = ANY($1) AND (next_retry_at IS NULL OR next_retry_at <= $2)",
		statusStrings(types.ReminderStatusFailed, types.ReminderStatusMissed),
		asOf,
	)

	return s.collect(rows, err, "retryCandidates")
}

func (s *PgStore) EscalationCandidates(ctx context.Context) ([]types.AppointmentReminder, error) {
	rows, err := s.pool.Query(
		ctx,
		"SELECT "+reminderCols+" FROM appointment_reminders WHERE status = ANY($1)",
		statusStrings(types.ReminderStatusFailed, types.ReminderStatusMissed),
	)

	return s.collect(rows, err, "escalationCandidates")
}

func (s *PgStore) Policies(ctx context.Context, workspaceIDs []string) (map[string]types.ReminderPolicy, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, reminder_policy FROM workspaces WHERE id = ANY($1)", workspaceIDs)

	if err != nil {
		return nil, fmt.Errorf("policies: query: %w", err)
	}

	defer rows.Close()

	pols := make(map[string]types.ReminderPolicy, len(workspaceIDs))

	for rows.Next() {
		var id string
		var raw []byte

		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("policies: scan: %w", err)
		}

		if len(raw) == 0 {
			pols[id] = ResolvePolicy(nil)
			continue
		}

		var p types.ReminderPolicy

		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("policies: unmarshal workspace %s: %w", id, err)
		}

		pols[id] = ResolvePolicy(&p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("policies: rows: %w", err)
	}

	return pols, nil
}

func (s *PgStore) BulkTransition(ctx context.Context, workspaceID string, ids []string, from []types.ReminderStatus, to types.ReminderStatus, up Update) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	set := []string{"status = $1"}
	args := []any{string(to)}

	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if up.IncrementAttempts {
		set = append(set, "attempt_count = attempt_count + 1")
	}

	if up.ResetAttempts {
		set = append(set, "attempt_count = 0")
	}

	if up.LastAttemptedAt != nil {
		add("last_attempted_at", *up.LastAttemptedAt)
	}

	if up.NextRetryAt != nil {
		add("next_retry_at", *up.NextRetryAt)
	}

	if up.ClearNextRetry {
		set = append(set, "next_retry_at = NULL")
	}

	if up.EscalatedAt != nil {
		add("escalated_at", *up.EscalatedAt)
	}

	if up.OpenedAt != nil {
		// First open wins
		args = append(args, *up.OpenedAt)
		set = append(set, fmt.Sprintf("opened_at = COALESCE(opened_at, $%d)", len(args)))
	}

	if up.MarkedSentAt != nil {
		add("marked_sent_at", *up.MarkedSentAt)
	}

	if up.MarkedSentBy != "" {
		add("marked_sent_by_user_id", up.MarkedSentBy)
	}

	if up.FailureReason != nil {
		add("failure_reason", *up.FailureReason)
	}

	if up.ClearFailureReason {
		set = append(set, "failure_reason = NULL")
	}

	args = append(args, ids)
	idArg := len(args)

	args = append(args, statusStrings(from...))
	fromArg := len(args)

	sql := "UPDATE appointment_reminders SET " + strings.Join(set, ", ") +
		fmt.Sprintf(" WHERE id = ANY($%d) AND status = ANY($%d)", idArg, fromArg)

	if workspaceID != AllWorkspaces {
		args = append(args, workspaceID)
		sql += fmt.Sprintf(" AND workspace_id = $%d", len(args))
	}

	cmd, err := s.pool.Exec(ctx, sql, args...)

	if err != nil {
		return 0, fmt.Errorf("bulkTransition to %s: %w", to, err)
	}

	return cmd.RowsAffected(), nil
}

func (s *PgStore) Get(ctx context.Context, workspaceID, id string) (types.AppointmentReminder, error) {
	rows, err := s.pool.Query(
		ctx,
		"SELECT "+reminderCols+" FROM appointment_reminders WHERE workspace_id = $1 AND id = $2",
		workspaceID,
		id,
	)

	if err != nil {
		return types.AppointmentReminder{}, fmt.Errorf("get: query: %w", err)
	}

	r, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.AppointmentReminder])

	if errors.Is(err, pgx.ErrNoRows) {
		return types.AppointmentReminder{}, ErrNotFound
	}

	if err != nil {
		return types.AppointmentReminder{}, fmt.Errorf("get: collect: %w", err)
	}

	return r, nil
}

// listWhere builds the filter clause shared by List and Count, starting at
// the appointment_reminders/appointments join.
func listWhere(workspaceID string, f Filter) (string, []any) {
	sql := " FROM appointment_reminders r JOIN appointments a ON a.id = r.appointment_id WHERE r.workspace_id = $1"
	args := []any{workspaceID}

	where := func(expr string, v any) {
		args = append(args, v)
		sql += fmt.Sprintf(" AND "+expr, len(args))
	}

	if len(f.Statuses) > 0 {
		where("r.status = ANY($%d)", statusStrings(f.Statuses...))
	}

	if f.TrainerID != "" {
		where("a.trainer_id = $%d", f.TrainerID)
	}

	if f.StudentID != "" {
		where("a.student_id = $%d", f.StudentID)
	}

	if !f.From.IsZero() {
		where("r.scheduled_for >= $%d", f.From)
	}

	if !f.To.IsZero() {
		where("r.scheduled_for < $%d", f.To)
	}

	return sql, args
}

func (s *PgStore) List(ctx context.Context, workspaceID string, f Filter) ([]types.AppointmentReminder, error) {
	sql, args := listWhere(workspaceID, f)

	limit := f.Limit

	if limit == 0 {
		limit = 50
	}

	sql = "SELECT " + reminderColsR + sql + fmt.Sprintf(" ORDER BY r.scheduled_for DESC LIMIT %d OFFSET %d", limit, f.Offset)

	rows, err := s.pool.Query(ctx, sql, args...)

	return s.collect(rows, err, "list")
}

func (s *PgStore) Count(ctx context.Context, workspaceID string, f Filter) (uint64, error) {
	sql, args := listWhere(workspaceID, f)

	var count uint64

	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*)"+sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	return count, nil
}

func (s *PgStore) Insert(ctx context.Context, rs []types.AppointmentReminder) error {
	if len(rs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for _, r := range rs {
		batch.Queue(
			"INSERT INTO appointment_reminders (id, workspace_id, appointment_id, channel, scheduled_for, status, attempt_count, payload) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
			r.ID,
			r.WorkspaceID,
			r.AppointmentID,
			string(r.Channel),
			r.ScheduledFor,
			string(r.Status),
			r.AttemptCount,
			r.Payload,
		)
	}

	err := s.pool.SendBatch(ctx, batch).Close()

	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	return nil
}

func statusStrings(statuses ...types.ReminderStatus) []string {
	out := make([]string, len(statuses))

	for i, s := range statuses {
		out[i] = string(s)
	}

	return out
}

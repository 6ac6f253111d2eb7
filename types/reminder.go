package types

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusReady     ReminderStatus = "ready"
	ReminderStatusSent      ReminderStatus = "sent"
	ReminderStatusMissed    ReminderStatus = "missed"
	ReminderStatusCancelled ReminderStatus = "cancelled"
	ReminderStatusFailed    ReminderStatus = "failed"
	ReminderStatusEscalated ReminderStatus = "escalated"
)

type ReminderChannel string

const (
	ReminderChannelWhatsapp ReminderChannel = "whatsapp"
)

// An appointment reminder is a scheduled notification record tied to one
// appointment and one channel, independent of actual message delivery. Rows
// are mutated exclusively through the state machine and never deleted by it
// (cancellation is a terminal status, not a row deletion).
type AppointmentReminder struct {
	ID              string             `db:"id" json:"id"`
	WorkspaceID     string             `db:"workspace_id" json:"workspace_id"`
	AppointmentID   string             `db:"appointment_id" json:"appointment_id"`
	Channel         ReminderChannel    `db:"channel" json:"channel"`
	ScheduledFor    time.Time          `db:"scheduled_for" json:"scheduled_for" description:"When the reminder should become actionable"`
	Status          ReminderStatus     `db:"status" json:"status"`
	AttemptCount    int                `db:"attempt_count" json:"attempt_count"`
	LastAttemptedAt pgtype.Timestamptz `db:"last_attempted_at" json:"last_attempted_at"`
	NextRetryAt     pgtype.Timestamptz `db:"next_retry_at" json:"next_retry_at"`
	EscalatedAt     pgtype.Timestamptz `db:"escalated_at" json:"escalated_at"`
	FailureReason   pgtype.Text        `db:"failure_reason" json:"failure_reason"`
	OpenedAt        pgtype.Timestamptz `db:"opened_at" json:"opened_at" description:"Set when a human opens the reminder"`
	MarkedSentAt    pgtype.Timestamptz `db:"marked_sent_at" json:"marked_sent_at"`
	MarkedSentBy    pgtype.Text        `db:"marked_sent_by_user_id" json:"marked_sent_by_user_id"`
	Payload         map[string]any     `db:"payload" json:"payload" description:"Rendered message content and addressee info, immutable after creation"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
}

type ReminderList struct {
	Reminders []AppointmentReminder `json:"reminders" description:"List of reminders"`
}

type ReminderBulkAction string

const (
	ReminderBulkActionMarkSent ReminderBulkAction = "mark-sent"
	ReminderBulkActionCancel   ReminderBulkAction = "cancel"
	ReminderBulkActionRequeue  ReminderBulkAction = "requeue"
)

type ReminderBulkRequest struct {
	IDs    []string           `json:"ids" validate:"required,min=1,max=200" msg:"You must provide between 1 and 200 reminder IDs"`
	Action ReminderBulkAction `json:"action" validate:"required,oneof=mark-sent cancel requeue" msg:"Action must be one of mark-sent, cancel or requeue"`
}

type ReminderRequeueRequest struct {
	FailureReason string `json:"failure_reason" validate:"omitempty,max=512" msg:"Failure reason must be at most 512 characters"`
}

type ReminderAffected struct {
	Affected int64 `json:"affected" description:"Number of reminders actually transitioned"`
}

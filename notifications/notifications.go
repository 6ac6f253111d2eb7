// The delivery boundary of the reminder engine. The engine only manages
// reminder record state; when a record becomes actionable (ready) or needs
// human attention (escalated), an event is handed to a Notifier and the
// external WhatsApp/push fan-out consumers take it from there.
package notifications

import (
	"context"
	"time"

	"randevu/types"
)

const (
	EventReminderReady     = "reminder.ready"
	EventReminderEscalated = "reminder.escalated"
)

// ReminderEvent is the wire shape published to the fan-out exchange.
type ReminderEvent struct {
	Event         string                `json:"event"`
	ReminderID    string                `json:"reminder_id"`
	WorkspaceID   string                `json:"workspace_id"`
	AppointmentID string                `json:"appointment_id"`
	Channel       types.ReminderChannel `json:"channel"`
	ScheduledFor  time.Time             `json:"scheduled_for"`
	Payload       map[string]any        `json:"payload"`
	OccurredAt    time.Time             `json:"occurred_at"`
}

type Notifier interface {
	ReminderReady(ctx context.Context, r types.AppointmentReminder) error
	ReminderEscalated(ctx context.Context, r types.AppointmentReminder) error
}

// Discard drops all events. Used when no AMQP URL is configured.
type Discard struct{}

func (Discard) ReminderReady(ctx context.Context, r types.AppointmentReminder) error { return nil }

func (Discard) ReminderEscalated(ctx context.Context, r types.AppointmentReminder) error { return nil }

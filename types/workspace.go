package types

import "time"

// A workspace is a single tenant (a studio/gym) owning trainers, students,
// appointments and reminders. Every query against tenant-owned rows must be
// scoped by workspace ID.
type Workspace struct {
	ID             string         `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	ReminderPolicy ReminderPolicy `db:"reminder_policy" json:"reminder_policy"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// ReminderPolicy is the per-workspace reminder configuration blob, stored as
// JSONB on the workspaces table. Absent/partial blobs are filled in by
// reminders.ResolvePolicy before use.
type ReminderPolicy struct {
	Enabled                bool        `json:"enabled"`
	WhatsappOffsetsMinutes []int       `json:"whatsapp_offsets_minutes"`
	WeekendMute            bool        `json:"weekend_mute"`
	ManualSendConfirmation bool        `json:"manual_send_confirmation_required"`
	QuietHours             QuietHours  `json:"quiet_hours"`
	Retry                  RetryPolicy `json:"retry"`
}

// QuietHours is a local-time window during which automatic reminder promotion
// is deferred. Start/End are "HH:MM" in the given IANA timezone; a window with
// Start > End wraps midnight.
type QuietHours struct {
	Enabled  bool   `json:"enabled"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

type RetryPolicy struct {
	MaxAttempts         int   `json:"max_attempts"`
	BackoffMinutes      []int `json:"backoff_minutes"`
	EscalateOnExhausted bool  `json:"escalate_on_exhausted"`
}

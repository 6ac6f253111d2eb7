package types

import "time"

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// An appointment is a single booked session between a trainer and a student.
// CRUD over appointments lives outside this service; reminders only need the
// owning workspace and the start time.
type Appointment struct {
	ID          string            `db:"id" json:"id"`
	WorkspaceID string            `db:"workspace_id" json:"workspace_id"`
	TrainerID   string            `db:"trainer_id" json:"trainer_id"`
	StudentID   string            `db:"student_id" json:"student_id"`
	StartsAt    time.Time         `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time         `db:"ends_at" json:"ends_at"`
	Status      AppointmentStatus `db:"status" json:"status"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}

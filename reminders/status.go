package reminders

import "randevu/types"

// Allowed from->to pairs of the reminder state machine. Every transition in
// this package funnels through CanTransition, illegal pairs are rejected in
// one place instead of ad hoc string checks.
//
// pending -> ready -> sent is the happy path. missed/failed re-enter via
// retry or requeue, cancelled re-enters only via requeue. sent, cancelled
// and escalated are terminal for automation (requeue deliberately punches
// through cancelled as the operator escape hatch).
var transitions = map[types.ReminderStatus][]types.ReminderStatus{
	types.ReminderStatusPending: {
		types.ReminderStatusReady,
		types.ReminderStatusSent,
		types.ReminderStatusMissed,
		types.ReminderStatusCancelled,
	},
	types.ReminderStatusReady: {
		types.ReminderStatusReady, // open on an already-ready reminder is a no-op
		types.ReminderStatusSent,
		types.ReminderStatusMissed,
		types.ReminderStatusCancelled,
	},
	types.ReminderStatusMissed: {
		types.ReminderStatusPending,
		types.ReminderStatusSent,
		types.ReminderStatusCancelled,
		types.ReminderStatusEscalated,
	},
	types.ReminderStatusFailed: {
		types.ReminderStatusPending,
		types.ReminderStatusSent,
		types.ReminderStatusCancelled,
		types.ReminderStatusEscalated,
	},
	types.ReminderStatusCancelled: {
		types.ReminderStatusPending,
	},
	types.ReminderStatusSent:      {},
	types.ReminderStatusEscalated: {},
}

func CanTransition(from, to types.ReminderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// IsTerminal reports whether no transition at all leads out of the status.
func IsTerminal(s types.ReminderStatus) bool {
	return len(transitions[s]) == 0
}

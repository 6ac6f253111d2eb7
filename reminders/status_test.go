package reminders

import (
	"testing"

	"randevu/types"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]types.ReminderStatus{
		{types.ReminderStatusPending, types.ReminderStatusReady},
		{types.ReminderStatusPending, types.ReminderStatusMissed},
		{types.ReminderStatusReady, types.ReminderStatusReady},
		{types.ReminderStatusReady, types.ReminderStatusSent},
		{types.ReminderStatusMissed, types.ReminderStatusPending},
		{types.ReminderStatusMissed, types.ReminderStatusEscalated},
		{types.ReminderStatusFailed, types.ReminderStatusPending},
		{types.ReminderStatusFailed, types.ReminderStatusEscalated},
		{types.ReminderStatusCancelled, types.ReminderStatusPending},
	}

	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Errorf("expected %s -> %s allowed", pair[0], pair[1])
		}
	}

	rejected := [][2]types.ReminderStatus{
		{types.ReminderStatusSent, types.ReminderStatusPending},
		{types.ReminderStatusSent, types.ReminderStatusCancelled},
		{types.ReminderStatusEscalated, types.ReminderStatusPending},
		{types.ReminderStatusCancelled, types.ReminderStatusSent},
		{types.ReminderStatusPending, types.ReminderStatusEscalated},
		{types.ReminderStatusReady, types.ReminderStatusPending},
	}

	for _, pair := range rejected {
		if CanTransition(pair[0], pair[1]) {
			t.Errorf("expected %s -> %s rejected", pair[0], pair[1])
		}
	}

	// Unknown statuses never transition anywhere
	if CanTransition("garbage", types.ReminderStatusPending) {
		t.Error("expected unknown status to have no transitions")
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(types.ReminderStatusSent) {
		t.Error("expected sent terminal")
	}

	if !IsTerminal(types.ReminderStatusEscalated) {
		t.Error("expected escalated terminal")
	}

	// cancelled still re-enters the lifecycle via requeue
	if IsTerminal(types.ReminderStatusCancelled) {
		t.Error("expected cancelled non-terminal")
	}

	if IsTerminal(types.ReminderStatusPending) {
		t.Error("expected pending non-terminal")
	}
}

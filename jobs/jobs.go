// Periodic invocation of the reminder batch operations. Each tick is an
// independent short-lived unit of work; a failed operation is just logged
// and retried naturally on the next tick, since every operation is
// idempotent over the rows its guard still matches.
package jobs

import (
	"time"

	"randevu/state"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Fixed cycle order: a reminder must not get promoted to ready in the same
// cycle its appointment already started, so mark-missed runs first.
var cycle = []struct {
	Name string
	Run  func() (int64, error)
}{
	{"reminders:mark-missed", func() (int64, error) { return state.Reminders.MarkMissed(state.Context, time.Now()) }},
	{"reminders:prepare-ready", func() (int64, error) { return state.Reminders.PrepareReady(state.Context, time.Now()) }},
	{"reminders:retry-failed", func() (int64, error) { return state.Reminders.RetryFailed(state.Context, time.Now()) }},
	{"reminders:escalate-stale", func() (int64, error) { return state.Reminders.EscalateStale(state.Context, time.Now()) }},
}

// RunCycle executes the four batch operations in order, logging affected
// counts. An operation failing does not stop the ones after it.
func RunCycle() {
	for _, op := range cycle {
		affected, err := op.Run()

		if err != nil {
			state.Logger.Error("Reminder batch operation failed", zap.Error(err), zap.String("op", op.Name))
			continue
		}

		state.Logger.Info("Reminder batch operation done", zap.String("op", op.Name), zap.Int64("affected", affected))
	}
}

// Start registers the reminder cycle on an in-process cron schedule. No-op
// when the deployment drives the /tasks endpoints from an external scheduler
// instead.
func Start() {
	if !state.Config.Reminders.RunJobsInProcess {
		state.Logger.Info("In-process reminder jobs disabled, expecting external scheduler on /tasks")
		return
	}

	c := cron.New()

	_, err := c.AddFunc(state.Config.Reminders.JobSpec, RunCycle)

	if err != nil {
		panic(err)
	}

	c.Start()

	state.Logger.Info("Started reminder job schedule", zap.String("spec", state.Config.Reminders.JobSpec))
}

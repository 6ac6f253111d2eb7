package run_reminder_task

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"randevu/state"
	"randevu/types"

	docs "github.com/infinitybotlist/eureka/doclib"
	"github.com/infinitybotlist/eureka/uapi"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
)

// The four batch operations by task name. Invocation cadence and ordering
// are the scheduler's responsibility; each operation is idempotent so
// overlapping or repeated triggers are safe.
var ops = map[string]func(ctx context.Context, asOf time.Time) (int64, error){
	"mark-missed":    func(ctx context.Context, asOf time.Time) (int64, error) { return state.Reminders.MarkMissed(ctx, asOf) },
	"prepare-ready":  func(ctx context.Context, asOf time.Time) (int64, error) { return state.Reminders.PrepareReady(ctx, asOf) },
	"retry-failed":   func(ctx context.Context, asOf time.Time) (int64, error) { return state.Reminders.RetryFailed(ctx, asOf) },
	"escalate-stale": func(ctx context.Context, asOf time.Time) (int64, error) { return state.Reminders.EscalateStale(ctx, asOf) },
}

func Docs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Run Reminder Task",
		Description: "Runs one reminder batch operation (mark-missed, prepare-ready, retry-failed or escalate-stale) and returns the affected row count. Requires the internal API token. Recommended cadence is every 5 minutes in the listed order",
		Params: []docs.Parameter{
			{
				Name:        "op",
				Description: "The batch operation to run",
				Required:    true,
				In:          "path",
				Schema:      docs.IdSchema,
			},
		},
		Resp: types.ReminderAffected{},
	}
}

func Route(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	token := state.Config.Meta.InternalAPIToken

	if token == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), []byte(token)) != 1 {
		return uapi.DefaultResponse(http.StatusUnauthorized)
	}

	op := chi.URLParam(r, "op")

	run, ok := ops[op]

	if !ok {
		return uapi.HttpResponse{
			Status: http.StatusNotFound,
			Json:   types.ApiError{Message: "Unknown reminder task: " + op},
		}
	}

	affected, err := run(d.Context, time.Now())

	if err != nil {
		state.Logger.Error("Reminder task failed", zap.Error(err), zap.String("op", op))
		return uapi.DefaultResponse(http.StatusInternalServerError)
	}

	return uapi.HttpResponse{
		Json: types.ReminderAffected{Affected: affected},
	}
}

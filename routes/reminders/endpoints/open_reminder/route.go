package open_reminder

import (
	"errors"
	"net/http"
	"time"

	"randevu/reminders"
	"randevu/state"
	"randevu/types"

	docs "github.com/infinitybotlist/eureka/doclib"
	"github.com/infinitybotlist/eureka/uapi"
	"github.com/infinitybotlist/eureka/ratelimit"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
)

func Docs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Open Reminder",
		Description: "Marks a reminder as opened by a human, promoting it from pending to ready. Opening an already-ready reminder is a no-op",
		Params: []docs.Parameter{
			{
				Name:        "wid",
				Description: "Workspace ID",
				Required:    true,
				In:          "path",
				Schema:      docs.IdSchema,
			},
			{
				Name:        "rid",
				Description: "Reminder ID",
				Required:    true,
				In:          "path",
				Schema:      docs.IdSchema,
			},
		},
		Resp: types.AppointmentReminder{},
	}
}

func Route(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	limit, err := ratelimit.Ratelimit{
		Expiry:      1 * time.Minute,
		MaxRequests: 30,
		Bucket:      "reminder_action",
	}.Limit(d.Context, r)

	if err != nil {
		state.Logger.Error("Error applying ratelimit", zap.Error(err))
		return uapi.DefaultResponse(http.StatusInternalServerError)
	}

	if limit.Exceeded {
		return uapi.HttpResponse{
			Json: types.ApiError{
				Message: "You are being ratelimited. Please try again in " + limit.TimeToReset.String(),
			},
			Headers: limit.Headers(),
			Status:  http.StatusTooManyRequests,
		}
	}

	wid := chi.URLParam(r, "wid")
	rid := chi.URLParam(r, "rid")

	rem, err := state.Reminders.Open(d.Context, wid, rid, time.Now())

	if errors.Is(err, reminders.ErrNotFound) {
		return uapi.DefaultResponse(http.StatusNotFound)
	}

	if errors.Is(err, reminders.ErrInvalidTransition) {
		return uapi.HttpResponse{
			Status: http.StatusBadRequest,
			Json:   types.ApiError{Message: "This reminder can no longer be opened"},
		}
	}

	if err != nil {
		state.Logger.Error("Error opening reminder", zap.Error(err), zap.String("workspace_id", wid), zap.String("reminder_id", rid))
		return uapi.DefaultResponse(http.StatusInternalServerError)
	}

	return uapi.HttpResponse{
		Json: rem,
	}
}

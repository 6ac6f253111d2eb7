package mark_reminder_sent

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
		Summary:     "Mark Reminder Sent",
		Description: "Confirms that the reminder message was sent by hand. Operators may force-confirm reminders automation already gave up on (failed/missed)",
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

	rem, err := state.Reminders.MarkSent(d.Context, wid, rid, d.Auth.ID, time.Now())

	if errors.Is(err, reminders.ErrNotFound) {
		return uapi.DefaultResponse(http.StatusNotFound)
	}

	if errors.Is(err, reminders.ErrInvalidTransition) {
		return uapi.HttpResponse{
			Status: http.StatusBadRequest,
			Json:   types.ApiError{Message: "This reminder cannot be marked as sent from its current status"},
		}
	}

	if err != nil {
		state.Logger.Error("Error marking reminder sent", zap.Error(err), zap.String("workspace_id", wid), zap.String("reminder_id", rid))
		return uapi.DefaultResponse(http.StatusInternalServerError)
	}

	return uapi.HttpResponse{
		Json: rem,
	}
}

package requeue_reminder

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
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
)

var compiledMessages = uapi.CompileValidationErrors(types.ReminderRequeueRequest{})

func Docs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Requeue Reminder",
		Description: "Gives a failed, missed or cancelled reminder another full cycle: resets the attempt counter and retry timer and moves it back to pending",
		Req:         types.ReminderRequeueRequest{},
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

	var payload types.ReminderRequeueRequest

	hresp, ok := uapi.MarshalReqWithHeaders(r, &payload, limit.Headers())

	if !ok {
		return hresp
	}

	err = state.Validator.Struct(payload)

	if err != nil {
		errs := err.(validator.ValidationErrors)
		return uapi.ValidatorErrorResponse(compiledMessages, errs)
	}

	wid := chi.URLParam(r, "wid")
	rid := chi.URLParam(r, "rid")

	rem, err := state.Reminders.Requeue(d.Context, wid, rid, payload.FailureReason, time.Now())

	if errors.Is(err, reminders.ErrNotFound) {
		return uapi.DefaultResponse(http.StatusNotFound)
	}

	if errors.Is(err, reminders.ErrInvalidTransition) {
		return uapi.HttpResponse{
			Status: http.StatusBadRequest,
			Json:   types.ApiError{Message: "Only failed, missed or cancelled reminders can be requeued"},
		}
	}

	if err != nil {
		state.Logger.Error("Error requeueing reminder", zap.Error(err), zap.String("workspace_id", wid), zap.String("reminder_id", rid))
		return uapi.DefaultResponse(http.StatusInternalServerError)
	}

	return uapi.HttpResponse{
		Json: rem,
	}
}

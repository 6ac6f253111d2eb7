package bulk_reminder_action

import (
	"net/http"
	"time"

	"randevu/state"
	"randevu/types"

	docs "github.com/infinitybotlist/eureka/doclib"
	"github.com/infinitybotlist/eureka/uapi"
	"github.com/infinitybotlist/eureka/ratelimit"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
)

var compiledMessages = uapi.CompileValidationErrors(types.ReminderBulkRequest{})

func Docs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Bulk Reminder Action",
		Description: "Applies mark-sent, cancel or requeue across up to 200 reminders. Reminders not satisfying the action's guard are silently skipped; the response carries the count actually changed",
		Req:         types.ReminderBulkRequest{},
		Params: []docs.Parameter{
			{
				Name:        "wid",
				Description: "Workspace ID",
				Required:    true,
				In:          "path",
				Schema:      docs.IdSchema,
			},
		},
		Resp: types.ReminderAffected{},
	}
}

func Route(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	limit, err := ratelimit.Ratelimit{
		Expiry:      1 * time.Minute,
		MaxRequests: 10,
		Bucket:      "reminder_bulk",
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

	var payload types.ReminderBulkRequest

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

	affected, err := state.Reminders.Bulk(d.Context, wid, payload.IDs, payload.Action, d.Auth.ID, time.Now())

	if err != nil {
		state.Logger.Error("Error applying bulk reminder action", zap.Error(err), zap.String("workspace_id", wid), zap.String("action", string(payload.Action)))
		return uapi.DefaultResponse(http.StatusInternalServerError)
	}

	return uapi.HttpResponse{
		Json: types.ReminderAffected{Affected: affected},
	}
}

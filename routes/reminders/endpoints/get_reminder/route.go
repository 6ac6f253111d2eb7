package get_reminder

import (
	"errors"
	"net/http"

	"randevu/reminders"
	"randevu/state"
	"randevu/types"

	docs "github.com/infinitybotlist/eureka/doclib"
	"github.com/infinitybotlist/eureka/uapi"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
)

func Docs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Get Reminder",
		Description: "Gets a single appointment reminder of a workspace",
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
	wid := chi.URLParam(r, "wid")
	rid := chi.URLParam(r, "rid")

	rem, err := state.Reminders.Get(d.Context, wid, rid)

	if errors.Is(err, reminders.ErrNotFound) {
		return uapi.DefaultResponse(http.StatusNotFound)
	}

	if err != nil {
		state.Logger.Error("Error fetching reminder", zap.Error(err), zap.String("workspace_id", wid), zap.String("reminder_id", rid))
		return uapi.DefaultResponse(http.StatusInternalServerError)
	}

	return uapi.HttpResponse{
		Json: rem,
	}
}

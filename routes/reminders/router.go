package reminders

import (
	"randevu/api"
	"randevu/routes/reminders/endpoints/bulk_reminder_action"
	"randevu/routes/reminders/endpoints/cancel_reminder"
	"randevu/routes/reminders/endpoints/export_reminders_csv"
	"randevu/routes/reminders/endpoints/get_reminder"
	"randevu/routes/reminders/endpoints/get_workspace_reminders"
	"randevu/routes/reminders/endpoints/mark_reminder_sent"
	"randevu/routes/reminders/endpoints/open_reminder"
	"randevu/routes/reminders/endpoints/requeue_reminder"

	"github.com/go-chi/chi/v5"
	"github.com/infinitybotlist/eureka/uapi"
)

const tagName = "Reminders"

type Router struct{}

func (b Router) Tag() (string, string) {
	return tagName, "These API endpoints manage appointment reminders of a workspace"
}

func workspaceAuth() []uapi.AuthType {
	return []uapi.AuthType{
		{
			URLVar: "wid",
			Type:   api.TargetTypeUser,
		},
		{
			URLVar: "wid",
			Type:   api.TargetTypeWorkspace,
		},
	}
}

func (b Router) Routes(r *chi.Mux) {
	uapi.Route{
		Pattern: "/workspaces/{wid}/reminders",
		OpId:    "get_workspace_reminders",
		Method:  uapi.GET,
		Docs:    get_workspace_reminders.Docs,
		Handler: get_workspace_reminders.Route,
		Auth:    workspaceAuth(),
	}.Route(r)

	uapi.Route{
		Pattern: "/workspaces/{wid}/reminders/export",
		OpId:    "export_reminders_csv",
		Method:  uapi.GET,
		Docs:    export_reminders_csv.Docs,
		Handler: export_reminders_csv.Route,
		Auth:    workspaceAuth(),
	}.Route(r)

	uapi.Route{
		Pattern: "/workspaces/{wid}/reminders/bulk",
		OpId:    "bulk_reminder_action",
		Method:  uapi.POST,
		Docs:    bulk_reminder_action.Docs,
		Handler: bulk_reminder_action.Route,
		Auth:    workspaceAuth(),
	}.Route(r)

	uapi.Route{
		Pattern: "/workspaces/{wid}/reminders/{rid}",
		OpId:    "get_reminder",
		Method:  uapi.GET,
		Docs:    get_reminder.Docs,
		Handler: get_reminder.Route,
		Auth:    workspaceAuth(),
	}.Route(r)

	uapi.Route{
		Pattern: "/workspaces/{wid}/reminders/{rid}/open",
		OpId:    "open_reminder",
		Method:  uapi.POST,
		Docs:    open_reminder.Docs,
		Handler: open_reminder.Route,
		Auth:    workspaceAuth(),
	}.Route(r)

	uapi.Route{
		Pattern: "/workspaces/{wid}/reminders/{rid}/mark-sent",
		OpId:    "mark_reminder_sent",
		Method:  uapi.POST,
		Docs:    mark_reminder_sent.Docs,
		Handler: mark_reminder_sent.Route,
		Auth:    workspaceAuth(),
	}.Route(r)

	uapi.Route{
		Pattern: "/workspaces/{wid}/reminders/{rid}/cancel",
		OpId:    "cancel_reminder",
		Method:  uapi.POST,
		Docs:    cancel_reminder.Docs,
		Handler: cancel_reminder.Route,
		Auth:    workspaceAuth(),
	}.Route(r)

	uapi.Route{
		Pattern: "/workspaces/{wid}/reminders/{rid}/requeue",
		OpId:    "requeue_reminder",
		Method:  uapi.POST,
		Docs:    requeue_reminder.Docs,
		Handler: requeue_reminder.Route,
		Auth:    workspaceAuth(),
	}.Route(r)
}
